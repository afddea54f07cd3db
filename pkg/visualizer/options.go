package visualizer

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atomtree/pkg/layout"
	"github.com/matzehuels/atomtree/pkg/render"
	"github.com/matzehuels/atomtree/pkg/snapshot"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// Converter turns a host snapshot into the children of the root node.
type Converter func(snapshot any) ([]*tree.Node, error)

// Options configures a [Visualizer].
type Options struct {
	// RootName names the synthetic root node. Defaults to tree.DefaultRootName.
	RootName string

	// Converter defaults to snapshot.ToNodes.
	Converter Converter

	Layout layout.Options
	Style  render.Style

	// Constraints bound zoom and pan. Zero fields take their
	// viewport.DefaultConstraints value.
	Constraints viewport.Constraints

	// Initial is the viewport transform of the first cycle. Nil means the
	// identity transform. Its scale is clamped to the constraints.
	Initial *viewport.Transform

	// DragDeadZone is the pointer travel needed before a press becomes a
	// drag, for surfaces that support it.
	DragDeadZone float64

	// NoDrag, NoZoom and NoHover disable the corresponding gestures.
	NoDrag  bool
	NoZoom  bool
	NoHover bool

	// Logger defaults to a discard logger.
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.RootName == "" {
		o.RootName = tree.DefaultRootName
	}
	if o.Converter == nil {
		o.Converter = snapshot.ToNodes
	}
	o.Constraints = o.Constraints.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.Style = o.Style.WithDefaults()
	return o
}

// initial returns the constrained first-cycle transform.
func (o Options) initial() viewport.Transform {
	t := viewport.Identity
	if o.Initial != nil {
		t = *o.Initial
	}
	return o.Constraints.Constrain(t)
}
