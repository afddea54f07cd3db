package layout

import (
	"math"

	"github.com/matzehuels/atomtree/pkg/tree"
)

// Default cell size of one node. Width is the breadth spacing between
// siblings, height the distance between consecutive depths.
const (
	DefaultNodeWidth  = 600.0
	DefaultNodeHeight = 1100.0
)

// SeparationFunc returns the distance, in cells, between two adjacent nodes
// at the same depth.
type SeparationFunc func(a, b *tree.HierarchyNode) float64

// DefaultSeparation keeps siblings one cell apart and cousins two.
func DefaultSeparation(a, b *tree.HierarchyNode) float64 {
	if a.Parent == b.Parent {
		return 1
	}
	return 2
}

// Options configures [Tidy].
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	Separation SeparationFunc
}

// DefaultOptions returns the standard 600×1100 cell layout.
func DefaultOptions() Options {
	return Options{
		NodeWidth:  DefaultNodeWidth,
		NodeHeight: DefaultNodeHeight,
		Separation: DefaultSeparation,
	}
}

func (o Options) withDefaults() Options {
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.Separation == nil {
		o.Separation = DefaultSeparation
	}
	return o
}

// Rect is an axis-aligned box in rendered space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Result is a positioned hierarchy.
type Result struct {
	Hierarchy *tree.Hierarchy
	Nodes     []*tree.HierarchyNode // breadth-first order
	Links     []tree.Link           // one per non-root node
	Bounds    Rect                  // node centers in rendered (Y, X) space
	Options   Options
}

// Tidy positions every node of h in place and returns the result.
func Tidy(h *tree.Hierarchy, opts Options) Result {
	opts = opts.withDefaults()

	t := newWalker(h.Root(), opts.Separation)
	t.firstWalk(t.root)
	t.root.parent.mod = -t.root.prelim
	t.secondWalk(t.root)

	h.EachBefore(func(n *tree.HierarchyNode) {
		n.X *= opts.NodeWidth
		n.Y = float64(n.Depth) * opts.NodeHeight
	})

	return Result{
		Hierarchy: h,
		Nodes:     h.Nodes(),
		Links:     h.Links(),
		Bounds:    bounds(h.Nodes()),
		Options:   opts,
	}
}

func bounds(nodes []*tree.HierarchyNode) Rect {
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, n := range nodes {
		r.MinX = math.Min(r.MinX, n.Y)
		r.MaxX = math.Max(r.MaxX, n.Y)
		r.MinY = math.Min(r.MinY, n.X)
		r.MaxY = math.Max(r.MaxY, n.X)
	}
	return r
}
