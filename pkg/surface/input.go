package surface

import (
	"math"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// pointer 0 is the mouse, 1-9 are touches
const maxPointers = 10

// InputKind identifies a raw input event.
type InputKind int

// Raw input kinds.
const (
	InputPointerDown InputKind = iota
	InputPointerMove
	InputPointerUp
	InputPointerOut
	InputWheel
	InputDoubleClick
)

var inputNames = [...]string{
	InputPointerDown: "down",
	InputPointerMove: "move",
	InputPointerUp:   "up",
	InputPointerOut:  "out",
	InputWheel:       "wheel",
	InputDoubleClick: "dblclick",
}

func (k InputKind) String() string {
	if int(k) < len(inputNames) {
		return inputNames[k]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k InputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *InputKind) UnmarshalText(b []byte) error {
	for i, n := range inputNames {
		if n == string(b) {
			*k = InputKind(i)
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown input kind %q", b)
}

// Input is a raw pointer event in surface coordinates.
type Input struct {
	Kind      InputKind          `json:"kind"`
	Pointer   int                `json:"pointer,omitempty"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	DeltaY    float64            `json:"delta_y,omitempty"`
	DeltaMode viewport.DeltaMode `json:"delta_mode,omitempty"`
	Shift     bool               `json:"shift,omitempty"`
	Ctrl      bool               `json:"ctrl,omitempty"`
}

func (in Input) mods() Modifiers {
	var m Modifiers
	if in.Shift {
		m |= ModShift
	}
	if in.Ctrl {
		m |= ModCtrl
	}
	return m
}

type pointerState struct {
	down     bool
	dragging bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	target   *Element // drag target captured at press time
	hover    *Element // element that received the last pointerenter
}

type pinchState struct {
	active   bool
	p0, p1   int
	prevDist float64
}

var (
	hoverTypes = []EventType{EventPointerEnter, EventPointerLeave}
	dragTypes  = []EventType{EventDragStart, EventDrag, EventDragEnd}
)

// Dispatch feeds one raw input event through hit testing and delivers the
// derived element events.
func (c *Canvas) Dispatch(in Input) error {
	if !c.mounted {
		return errors.New(errors.ErrCodeSurfaceUnmounted, "surface %s is not mounted", c.id)
	}
	if in.Pointer < 0 || in.Pointer >= maxPointers {
		return errors.New(errors.ErrCodeInvalidInput, "pointer %d out of range [0, %d)", in.Pointer, maxPointers)
	}

	ps := &c.pointers[in.Pointer]
	hit := c.HitTest(in.X, in.Y)
	base := Event{Hit: hit, Pointer: in.Pointer, X: in.X, Y: in.Y, Mods: in.mods()}

	switch in.Kind {
	case InputPointerOut:
		c.updateHover(ps, nil, base)
		return nil
	case InputWheel:
		ev := base
		ev.Type = EventWheel
		ev.DeltaY = in.DeltaY
		ev.DeltaMode = in.DeltaMode
		if el := nearest(hit, c.root, EventWheel); el != nil {
			el.emit(ev)
		}
		return nil
	case InputDoubleClick:
		ev := base
		ev.Type = EventDoubleClick
		if el := nearest(hit, c.root, EventDoubleClick); el != nil {
			el.emit(ev)
		}
		return nil
	}

	c.updateHover(ps, nearest(hit, c.root, hoverTypes...), base)

	switch in.Kind {
	case InputPointerDown:
		c.pointerDown(ps, in, base)
	case InputPointerMove:
		c.pointerMove(ps, in, base)
	case InputPointerUp:
		c.pointerUp(ps, in, base)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown input kind %d", in.Kind)
	}
	return nil
}

func (c *Canvas) updateHover(ps *pointerState, target *Element, base Event) {
	if target == ps.hover {
		return
	}
	if ps.hover != nil && ps.hover.Attached() {
		ev := base
		ev.Type = EventPointerLeave
		ps.hover.emit(ev)
	}
	ps.hover = target
	if target != nil {
		ev := base
		ev.Type = EventPointerEnter
		target.emit(ev)
	}
}

func (c *Canvas) pointerDown(ps *pointerState, in Input, base Event) {
	*ps = pointerState{
		down:   true,
		startX: in.X,
		startY: in.Y,
		lastX:  in.X,
		lastY:  in.Y,
		target: nearest(base.Hit, c.root, dragTypes...),
		hover:  ps.hover,
	}

	ev := base
	ev.Type = EventPointerDown
	if el := nearest(base.Hit, c.root, EventPointerDown); el != nil {
		el.emit(ev)
	}

	// A second touch turns the pair into a pinch.
	if in.Pointer > 0 && !c.pinch.active {
		for i := 1; i < maxPointers; i++ {
			other := &c.pointers[i]
			if i == in.Pointer || !other.down {
				continue
			}
			c.endDrag(other, i, base)
			ps.target = nil
			c.pinch = pinchState{
				active:   true,
				p0:       i,
				p1:       in.Pointer,
				prevDist: math.Hypot(other.lastX-in.X, other.lastY-in.Y),
			}
			break
		}
	}
}

func (c *Canvas) pointerMove(ps *pointerState, in Input, base Event) {
	if !ps.down {
		ev := base
		ev.Type = EventPointerMove
		if el := nearest(base.Hit, c.root, EventPointerMove); el != nil {
			el.emit(ev)
		}
		ps.lastX, ps.lastY = in.X, in.Y
		return
	}

	if c.pinch.active && (in.Pointer == c.pinch.p0 || in.Pointer == c.pinch.p1) {
		ps.lastX, ps.lastY = in.X, in.Y
		c.firePinch(base)
		return
	}

	if in.X == ps.lastX && in.Y == ps.lastY {
		return
	}
	if ps.target != nil && ps.target.Attached() {
		if !ps.dragging && math.Hypot(in.X-ps.startX, in.Y-ps.startY) > c.dragDeadZone {
			ps.dragging = true
			ev := base
			ev.Type = EventDragStart
			ev.StartX, ev.StartY = ps.startX, ps.startY
			ps.target.emit(ev)
		}
		if ps.dragging {
			ev := base
			ev.Type = EventDrag
			ev.StartX, ev.StartY = ps.startX, ps.startY
			ev.DX, ev.DY = in.X-ps.lastX, in.Y-ps.lastY
			ps.target.emit(ev)
		}
	}
	ps.lastX, ps.lastY = in.X, in.Y
}

func (c *Canvas) pointerUp(ps *pointerState, in Input, base Event) {
	if !ps.down {
		return
	}
	ps.lastX, ps.lastY = in.X, in.Y
	c.endDrag(ps, in.Pointer, base)

	ev := base
	ev.Type = EventPointerUp
	if el := nearest(base.Hit, c.root, EventPointerUp); el != nil {
		el.emit(ev)
	}

	if c.pinch.active && (in.Pointer == c.pinch.p0 || in.Pointer == c.pinch.p1) {
		c.pinch = pinchState{}
	}
	hover := ps.hover
	*ps = pointerState{hover: hover}
}

func (c *Canvas) endDrag(ps *pointerState, pointer int, base Event) {
	if ps.dragging && ps.target != nil && ps.target.Attached() {
		ev := base
		ev.Type = EventDragEnd
		ev.Pointer = pointer
		ev.X, ev.Y = ps.lastX, ps.lastY
		ev.StartX, ev.StartY = ps.startX, ps.startY
		ps.target.emit(ev)
	}
	ps.dragging = false
	ps.target = nil
}

func (c *Canvas) firePinch(base Event) {
	a, b := &c.pointers[c.pinch.p0], &c.pointers[c.pinch.p1]
	dist := math.Hypot(b.lastX-a.lastX, b.lastY-a.lastY)
	if c.pinch.prevDist > 0 && dist != c.pinch.prevDist {
		ev := base
		ev.Type = EventPinch
		ev.X, ev.Y = (a.lastX+b.lastX)/2, (a.lastY+b.lastY)/2
		ev.Scale = dist / c.pinch.prevDist
		if el := nearest(nil, c.root, EventPinch); el != nil {
			el.emit(ev)
		}
	}
	c.pinch.prevDist = dist
}
