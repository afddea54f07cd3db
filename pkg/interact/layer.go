package interact

import (
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atomtree/pkg/render"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// Point is a position in zoom-group coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Overrides holds the dragged position of nodes, keyed by breadth-first
// index. An entry exists only for nodes moved during the current scene.
type Overrides map[int]Point

// Options configures a [Layer].
type Options struct {
	// Constraints bound zoom and pan. Zero fields are filled by
	// viewport.Constraints.WithDefaults.
	Constraints viewport.Constraints
	// Logger receives debug output. Defaults to a discard logger.
	Logger *log.Logger
	// NoDrag disables per-node dragging.
	NoDrag bool
	// NoZoom disables zoom and pan gestures.
	NoZoom bool
	// NoHover disables popups.
	NoHover bool
}

func (o Options) withDefaults() Options {
	o.Constraints = o.Constraints.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Layer holds the listeners and transient gesture state of one scene.
type Layer struct {
	surface     surface.Surface
	scene       *render.Scene
	state       *viewport.State
	constraints viewport.Constraints
	logger      *log.Logger

	overrides Overrides
	popups    map[int]string
	handles   []surface.Handle
}

// Bind attaches drag, zoom and hover handling to scene. state receives every
// committed viewport change.
func Bind(s surface.Surface, scene *render.Scene, state *viewport.State, opts Options) *Layer {
	opts = opts.withDefaults()
	l := &Layer{
		surface:     s,
		scene:       scene,
		state:       state,
		constraints: opts.Constraints,
		logger:      opts.Logger,
		overrides:   make(Overrides),
		popups:      make(map[int]string),
	}

	for _, v := range scene.Nodes {
		if !opts.NoDrag {
			l.bindDrag(v, v.Index)
		}
		if !opts.NoHover {
			l.bindHover(v, v.Index)
		}
	}
	if !opts.NoZoom {
		l.bindZoom()
	}
	return l
}

// Unbind removes every listener registered by the layer. It is not needed
// before a rebuild, which clears listeners along with the elements.
func (l *Layer) Unbind() {
	for _, h := range l.handles {
		h.Remove()
	}
	l.handles = nil
}

// Scene returns the scene the layer is bound to.
func (l *Layer) Scene() *render.Scene { return l.scene }

// Overrides returns a copy of the current drag overrides.
func (l *Layer) Overrides() Overrides {
	return maps.Clone(l.overrides)
}

// Position returns where the node with the given index is drawn: its
// override if dragged, its laid-out position otherwise.
func (l *Layer) Position(index int) (Point, bool) {
	if p, ok := l.overrides[index]; ok {
		return p, true
	}
	v := l.scene.Node(index)
	if v == nil {
		return Point{}, false
	}
	x, y := v.Home()
	return Point{X: x, Y: y}, true
}

// Popups returns the ids of the popups currently shown, sorted.
func (l *Layer) Popups() []string {
	return slices.Sorted(maps.Values(l.popups))
}

func (l *Layer) on(e *surface.Element, t surface.EventType, fn surface.Listener) {
	l.handles = append(l.handles, e.On(t, fn))
}
