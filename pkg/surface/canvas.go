package surface

import (
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// DefaultID is the identifier of the drawing surface.
const DefaultID = "canvas"

// Surface is the drawing capability consumed by the render pipeline and the
// interaction layer.
type Surface interface {
	// ID returns the stable surface identifier.
	ID() string
	// Mounted reports whether the surface can be drawn into.
	Mounted() bool
	// Size returns the logical drawing box.
	Size() (width, height float64)
	SetSize(width, height float64)
	// Clear removes every element and listener below the root.
	Clear()
	Root() *Element
	Lookup(id string) *Element
	// ZoomTransform returns the zoom transform stored on the surface.
	ZoomTransform() viewport.Transform
	SetZoomTransform(t viewport.Transform)
}

// Canvas is an in-memory [Surface].
type Canvas struct {
	id      string
	width   float64
	height  float64
	mounted bool
	root    *Element
	ids     map[string]*Element
	zoom    viewport.Transform
	version uint64

	pointers     [maxPointers]pointerState
	pinch        pinchState
	dragDeadZone float64
	nextHandle   uint32
}

// NewCanvas returns a mounted canvas with the given id and logical size.
func NewCanvas(id string, width, height float64) *Canvas {
	if id == "" {
		id = DefaultID
	}
	c := &Canvas{
		id:      id,
		width:   width,
		height:  height,
		mounted: true,
		ids:     make(map[string]*Element),
		zoom:    viewport.Identity,
	}
	c.root = &Element{tag: "svg", canvas: c}
	return c
}

// ID returns the canvas identifier.
func (c *Canvas) ID() string { return c.id }

// Mounted reports whether the canvas accepts drawing.
func (c *Canvas) Mounted() bool { return c.mounted }

// Mount marks the canvas as attached to a host.
func (c *Canvas) Mount() { c.mounted = true }

// Unmount detaches the canvas from its host. Render cycles fail until it is
// mounted again.
func (c *Canvas) Unmount() { c.mounted = false }

// Size returns the logical drawing box.
func (c *Canvas) Size() (float64, float64) { return c.width, c.height }

// SetSize changes the logical drawing box.
func (c *Canvas) SetSize(width, height float64) {
	c.width, c.height = width, height
	c.version++
}

// Root returns the svg root element.
func (c *Canvas) Root() *Element { return c.root }

// Lookup returns the attached element with the given id, or nil.
func (c *Canvas) Lookup(id string) *Element {
	return c.ids[id]
}

// Clear removes every element below the root, drops all listeners
// (including those on the root) and abandons gestures in flight. The stored
// zoom transform survives.
func (c *Canvas) Clear() {
	for _, ch := range c.root.children {
		ch.parent = nil
		ch.Walk(func(el *Element) bool {
			el.listeners = nil
			return true
		})
	}
	c.root.children = nil
	c.root.listeners = nil
	c.ids = make(map[string]*Element)
	c.pointers = [maxPointers]pointerState{}
	c.pinch = pinchState{}
	c.version++
}

// ZoomTransform returns the zoom transform stored on the canvas.
func (c *Canvas) ZoomTransform() viewport.Transform { return c.zoom }

// SetZoomTransform stores t on the canvas.
func (c *Canvas) SetZoomTransform(t viewport.Transform) {
	c.zoom = t
	c.version++
}

// Version increases on every mutation of the canvas or its elements.
// Hosts compare versions to decide when to redraw.
func (c *Canvas) Version() uint64 { return c.version }

// Count returns the number of attached elements with the given tag.
func (c *Canvas) Count(tag string) int {
	n := 0
	c.root.Walk(func(el *Element) bool {
		if el.tag == tag {
			n++
		}
		return true
	})
	return n
}

// SetDragDeadZone sets the distance the pointer must travel before a press
// becomes a drag. The default is zero: any movement starts a drag.
func (c *Canvas) SetDragDeadZone(d float64) {
	c.dragDeadZone = d
}

var _ Surface = (*Canvas)(nil)
