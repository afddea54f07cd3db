package render

import (
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/layout"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// NodeClass is the class attribute of every node group.
const NodeClass = "atomNodes"

// NodeView is the drawn form of one hierarchy node.
type NodeView struct {
	Node    *tree.HierarchyNode
	Index   int
	Group   *surface.Element
	Marker  *surface.Element
	Outline *surface.Element
	Label   *surface.Element
}

// Home returns the laid-out position of the node group in zoom-group
// coordinates.
func (v *NodeView) Home() (x, y float64) {
	return v.Node.Y, v.Node.X
}

// MoveTo places the node group at (x, y) in zoom-group coordinates.
func (v *NodeView) MoveTo(x, y float64) {
	v.Group.SetTransform(viewport.Transform{X: x, Y: y, K: 1})
}

// Scene is the result of one render pass.
type Scene struct {
	Surface surface.Surface
	Zoom    *surface.Element
	Links   *surface.Element
	Nodes   []*NodeView
	Layout  layout.Result
	Style   Style
}

// Node returns the view with the given breadth-first index, or nil.
func (s *Scene) Node(index int) *NodeView {
	if index < 0 || index >= len(s.Nodes) {
		return nil
	}
	return s.Nodes[index]
}

// Find returns the first view whose node is called name, or nil.
func (s *Scene) Find(name string) *NodeView {
	for _, v := range s.Nodes {
		if v.Node.Node.Name == name {
			return v
		}
	}
	return nil
}

// Render clears s and draws res with the initial viewport transform.
// It fails with SURFACE_UNMOUNTED before touching the surface when s is not
// mounted.
func Render(s surface.Surface, res layout.Result, initial viewport.Transform, style Style) (*Scene, error) {
	if s == nil || !s.Mounted() {
		id := ""
		if s != nil {
			id = s.ID()
		}
		return nil, errors.New(errors.ErrCodeSurfaceUnmounted, "surface %q is not mounted", id)
	}
	style = style.WithDefaults()

	w, h := s.Size()
	s.Clear()
	s.SetSize(w, h)
	s.SetZoomTransform(initial)

	zoom := s.Root().Append("g").
		Attr("cursor", "grab").
		SetTransform(initial)
	scene := &Scene{
		Surface: s,
		Zoom:    zoom,
		Links:   drawLinks(zoom, res.Links, style),
		Layout:  res,
		Style:   style,
	}

	nodes := zoom.Append("g").
		Attr("stroke-linejoin", "round").
		Attr("stroke-width", style.NodeStrokeWidth)
	scene.Nodes = make([]*NodeView, len(res.Nodes))
	for i, n := range res.Nodes {
		scene.Nodes[i] = drawNode(nodes, n, style)
	}
	return scene, nil
}

// LinkPath returns the horizontal cubic curve between two laid-out nodes.
// Both control points share the horizontal midpoint.
func LinkPath(source, target *tree.HierarchyNode) surface.Path {
	x0, y0 := source.Y, source.X
	x1, y1 := target.Y, target.X
	mx := (x0 + x1) / 2
	var p surface.Path
	p.MoveTo(x0, y0).CubicTo(mx, y0, mx, y1, x1, y1)
	return p
}

func drawLinks(parent *surface.Element, links []tree.Link, style Style) *surface.Element {
	g := parent.Append("g").
		Attr("fill", "none").
		Attr("stroke", style.LinkStroke).
		Attr("stroke-width", style.LinkWidth)
	for _, l := range links {
		g.Append("path").SetPath(LinkPath(l.Source, l.Target)).SetDatum(l)
	}
	return g
}

func drawNode(parent *surface.Element, n *tree.HierarchyNode, style Style) *NodeView {
	v := &NodeView{Node: n, Index: n.Index}
	v.Group = parent.Append("g").Attr("class", NodeClass).SetDatum(n)
	v.MoveTo(v.Home())

	v.Marker = v.Group.Append("circle").
		Attr("fill", style.NodeFill).
		Attr("r", style.NodeRadius)

	x, anchor := style.LabelOffset, "start"
	if !n.IsLeaf() {
		x, anchor = -style.LabelOffset, "end"
	}
	label := func() *surface.Element {
		return v.Group.Append("text").
			Attr("dy", ".31em").
			Attr("x", x).
			Attr("text-anchor", anchor).
			Attr("fill", style.LabelFill).
			Style("font-size", style.LabelFontSize).
			SetText(n.Node.Name)
	}
	v.Outline = label().
		Attr("stroke", style.LabelOutline).
		Attr("stroke-width", style.LabelOutlineW)
	v.Label = label()
	return v
}
