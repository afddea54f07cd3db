package surface

import "github.com/matzehuels/atomtree/pkg/viewport"

// EventType identifies an element-level event.
type EventType int

// Element events.
const (
	EventPointerEnter EventType = iota
	EventPointerLeave
	EventPointerDown
	EventPointerUp
	EventPointerMove
	EventDragStart
	EventDrag
	EventDragEnd
	EventWheel
	EventDoubleClick
	EventPinch
)

var eventNames = [...]string{
	EventPointerEnter: "pointerenter",
	EventPointerLeave: "pointerleave",
	EventPointerDown:  "pointerdown",
	EventPointerUp:    "pointerup",
	EventPointerMove:  "pointermove",
	EventDragStart:    "dragstart",
	EventDrag:         "drag",
	EventDragEnd:      "dragend",
	EventWheel:        "wheel",
	EventDoubleClick:  "dblclick",
	EventPinch:        "pinch",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Modifiers is a bit set of held keyboard modifiers.
type Modifiers uint8

// Keyboard modifiers.
const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Event is delivered to listeners.
type Event struct {
	Type EventType
	// Target is the element the listener is registered on.
	Target *Element
	// Hit is the topmost element under the pointer, or nil.
	Hit     *Element
	Pointer int
	// X and Y are surface coordinates.
	X, Y float64
	// StartX and StartY are where the press began (drag events).
	StartX, StartY float64
	// DX and DY are the movement since the previous event (drag events).
	DX, DY    float64
	DeltaY    float64
	DeltaMode viewport.DeltaMode
	Mods      Modifiers
	// Scale is the pinch distance ratio since the previous pinch event.
	Scale float64
}

// Listener handles an event.
type Listener func(Event)

type listener struct {
	id uint32
	fn Listener
}

// Handle identifies a registered listener.
type Handle struct {
	el  *Element
	typ EventType
	id  uint32
}

// Remove unregisters the listener. Removing twice is a no-op.
func (h Handle) Remove() {
	if h.el == nil {
		return
	}
	ls := h.el.listeners[h.typ]
	for i := range ls {
		if ls[i].id == h.id {
			copy(ls[i:], ls[i+1:])
			ls[len(ls)-1] = listener{}
			h.el.listeners[h.typ] = ls[:len(ls)-1]
			return
		}
	}
}

// On registers fn for events of type t targeted at e.
func (e *Element) On(t EventType, fn Listener) Handle {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]listener)
	}
	e.canvas.nextHandle++
	id := e.canvas.nextHandle
	e.listeners[t] = append(e.listeners[t], listener{id: id, fn: fn})
	return Handle{el: e, typ: t, id: id}
}

// Listens reports whether e has a listener for any of the given types.
func (e *Element) Listens(types ...EventType) bool {
	for _, t := range types {
		if len(e.listeners[t]) > 0 {
			return true
		}
	}
	return false
}

// emit calls e's listeners for ev.Type. The listener list is copied so
// listeners may register or remove listeners while running.
func (e *Element) emit(ev Event) {
	ls := e.listeners[ev.Type]
	if len(ls) == 0 {
		return
	}
	ev.Target = e
	for _, l := range append([]listener(nil), ls...) {
		l.fn(ev)
	}
}

// nearest returns the closest element from e up to the root that listens for
// any of types. A nil e starts at root.
func nearest(e, root *Element, types ...EventType) *Element {
	if e == nil {
		e = root
	}
	for el := e; el != nil; el = el.parent {
		if el.Listens(types...) {
			return el
		}
	}
	return nil
}
