package surface

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// recorder collects event types delivered to listeners.
type recorder struct {
	events []Event
}

func (r *recorder) on(e *Element, types ...EventType) {
	for _, t := range types {
		e.On(t, func(ev Event) { r.events = append(r.events, ev) })
	}
}

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func equalTypes(a, b []EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// scene builds a zoom group with one node group at (100, 100) holding a
// circle of radius 50 and a label to its right.
func scene() (*Canvas, *Element, *Element) {
	c := NewCanvas("", 600, 1100)
	zoom := c.Root().Append("g").SetTransform(viewport.Identity)
	node := zoom.Append("g").SetTransform(viewport.Transform{X: 100, Y: 100, K: 1})
	node.Append("circle").Attr("r", 50)
	node.Append("text").Attr("x", 75).Attr("dy", ".31em").Style("font-size", "2rem").SetText("label")
	return c, zoom, node
}

func TestHitTest(t *testing.T) {
	c, zoom, node := scene()

	if hit := c.HitTest(100, 100); hit == nil || hit.Tag() != "circle" {
		t.Errorf("HitTest(center) = %v, want circle", hit)
	}
	if hit := c.HitTest(100+75+10, 100); hit == nil || hit.Tag() != "text" {
		t.Errorf("HitTest(label) = %v, want text", hit)
	}
	if hit := c.HitTest(400, 400); hit != nil {
		t.Errorf("HitTest(empty) = %v, want nil", hit)
	}

	// Topmost wins: a second circle painted later covers the first.
	top := zoom.Append("g").SetTransform(viewport.Transform{X: 100, Y: 100, K: 1})
	over := top.Append("circle").Attr("r", 10)
	if hit := c.HitTest(100, 100); hit != over {
		t.Errorf("HitTest should return the topmost circle")
	}

	over.Style("pointer-events", "none")
	if hit := c.HitTest(100, 100); hit == over {
		t.Errorf("pointer-events none should not be hit")
	}

	zoom.SetTransform(viewport.Transform{K: 0})
	if hit := c.HitTest(100, 100); hit != nil {
		t.Errorf("zero scale should hide everything, hit %v", hit)
	}
	_ = node
}

func TestHitTestTextAnchor(t *testing.T) {
	c := NewCanvas("", 600, 600)
	g := c.Root().Append("g").SetTransform(viewport.Transform{X: 300, Y: 300, K: 1})
	g.Append("text").Attr("x", -75).Attr("text-anchor", "end").Style("font-size", "2rem").SetText("parent")

	if hit := c.HitTest(300-75-20, 300); hit == nil {
		t.Error("end-anchored text should extend left of x")
	}
	if hit := c.HitTest(300-75+20, 300); hit != nil {
		t.Error("end-anchored text should not extend right of x")
	}
}

func TestDispatchHover(t *testing.T) {
	c, _, node := scene()
	var r recorder
	r.on(node, EventPointerEnter, EventPointerLeave)

	moves := []Input{
		{Kind: InputPointerMove, X: 500, Y: 500}, // outside
		{Kind: InputPointerMove, X: 100, Y: 100}, // circle
		{Kind: InputPointerMove, X: 180, Y: 100}, // label, same group
		{Kind: InputPointerMove, X: 500, Y: 500}, // outside
		{Kind: InputPointerMove, X: 100, Y: 100},
		{Kind: InputPointerOut},
	}
	for _, in := range moves {
		if err := c.Dispatch(in); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}

	want := []EventType{EventPointerEnter, EventPointerLeave, EventPointerEnter, EventPointerLeave}
	if got := r.types(); !equalTypes(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if r.events[0].Target != node {
		t.Error("enter should target the listening group")
	}
}

func TestDispatchDrag(t *testing.T) {
	c, zoom, node := scene()
	var nodeRec, rootRec recorder
	nodeRec.on(node, EventDragStart, EventDrag, EventDragEnd)
	rootRec.on(c.Root(), EventDragStart, EventDrag, EventDragEnd)

	steps := []Input{
		{Kind: InputPointerDown, X: 100, Y: 100},
		{Kind: InputPointerMove, X: 110, Y: 105},
		{Kind: InputPointerMove, X: 130, Y: 120},
		{Kind: InputPointerUp, X: 130, Y: 120},
	}
	for _, in := range steps {
		_ = c.Dispatch(in)
	}

	want := []EventType{EventDragStart, EventDrag, EventDrag, EventDragEnd}
	if got := nodeRec.types(); !equalTypes(got, want) {
		t.Fatalf("node events = %v, want %v", got, want)
	}
	if len(rootRec.events) != 0 {
		t.Errorf("root received %d drag events during a node drag", len(rootRec.events))
	}
	last := nodeRec.events[2]
	if last.DX != 20 || last.DY != 15 || last.StartX != 100 || last.StartY != 100 {
		t.Errorf("drag event = %+v", last)
	}

	// Pressing on empty space drags the root instead.
	for _, in := range []Input{
		{Kind: InputPointerDown, X: 500, Y: 500},
		{Kind: InputPointerMove, X: 510, Y: 500},
		{Kind: InputPointerUp, X: 510, Y: 500},
	} {
		_ = c.Dispatch(in)
	}
	want = []EventType{EventDragStart, EventDrag, EventDragEnd}
	if got := rootRec.types(); !equalTypes(got, want) {
		t.Errorf("root events = %v, want %v", got, want)
	}
	_ = zoom
}

func TestDispatchDragDeadZone(t *testing.T) {
	c, _, node := scene()
	c.SetDragDeadZone(5)
	var r recorder
	r.on(node, EventDragStart, EventDrag, EventDragEnd)

	_ = c.Dispatch(Input{Kind: InputPointerDown, X: 100, Y: 100})
	_ = c.Dispatch(Input{Kind: InputPointerMove, X: 102, Y: 101})
	_ = c.Dispatch(Input{Kind: InputPointerUp, X: 102, Y: 101})
	if len(r.events) != 0 {
		t.Errorf("movement inside the dead zone produced %v", r.types())
	}
}

func TestDispatchClearAbandonsGesture(t *testing.T) {
	c, _, node := scene()
	var r recorder
	r.on(node, EventDragStart, EventDrag, EventDragEnd)

	_ = c.Dispatch(Input{Kind: InputPointerDown, X: 100, Y: 100})
	_ = c.Dispatch(Input{Kind: InputPointerMove, X: 120, Y: 100})
	c.Clear()
	_ = c.Dispatch(Input{Kind: InputPointerMove, X: 140, Y: 100})
	_ = c.Dispatch(Input{Kind: InputPointerUp, X: 140, Y: 100})

	want := []EventType{EventDragStart, EventDrag}
	if got := r.types(); !equalTypes(got, want) {
		t.Errorf("events = %v, want %v (gesture should be abandoned)", got, want)
	}
}

func TestDispatchWheelAndDoubleClick(t *testing.T) {
	c, _, _ := scene()
	var r recorder
	r.on(c.Root(), EventWheel, EventDoubleClick)

	_ = c.Dispatch(Input{Kind: InputWheel, X: 100, Y: 100, DeltaY: -120, DeltaMode: viewport.DeltaLine, Ctrl: true})
	_ = c.Dispatch(Input{Kind: InputDoubleClick, X: 400, Y: 400, Shift: true})

	want := []EventType{EventWheel, EventDoubleClick}
	if got := r.types(); !equalTypes(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	w := r.events[0]
	if w.DeltaY != -120 || w.DeltaMode != viewport.DeltaLine || w.Mods&ModCtrl == 0 {
		t.Errorf("wheel event = %+v", w)
	}
	if r.events[1].Mods&ModShift == 0 {
		t.Error("double click lost the shift modifier")
	}
}

func TestDispatchPinch(t *testing.T) {
	c, _, _ := scene()
	var r recorder
	r.on(c.Root(), EventPinch, EventDragStart)

	_ = c.Dispatch(Input{Kind: InputPointerDown, Pointer: 1, X: 300, Y: 500})
	_ = c.Dispatch(Input{Kind: InputPointerDown, Pointer: 2, X: 400, Y: 500})
	_ = c.Dispatch(Input{Kind: InputPointerMove, Pointer: 2, X: 500, Y: 500})

	if len(r.events) != 1 || r.events[0].Type != EventPinch {
		t.Fatalf("events = %v, want one pinch", r.types())
	}
	p := r.events[0]
	if p.Scale != 2 || p.X != 400 || p.Y != 500 {
		t.Errorf("pinch = scale %v at (%v,%v), want 2 at (400,500)", p.Scale, p.X, p.Y)
	}
}

func TestDispatchErrors(t *testing.T) {
	c := NewCanvas("", 10, 10)
	if err := c.Dispatch(Input{Pointer: 42}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad pointer error = %v", err)
	}
	c.Unmount()
	if err := c.Dispatch(Input{}); !errors.Is(err, errors.ErrCodeSurfaceUnmounted) {
		t.Errorf("unmounted error = %v", err)
	}
}

func TestHandleRemove(t *testing.T) {
	c, _, _ := scene()
	calls := 0
	h := c.Root().On(EventWheel, func(Event) { calls++ })

	_ = c.Dispatch(Input{Kind: InputWheel})
	h.Remove()
	h.Remove()
	_ = c.Dispatch(Input{Kind: InputWheel})

	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestInputJSON(t *testing.T) {
	var in Input
	if err := json.Unmarshal([]byte(`{"kind":"wheel","x":10,"y":20,"delta_y":-3}`), &in); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if in.Kind != InputWheel || in.X != 10 || in.DeltaY != -3 {
		t.Errorf("decoded %+v", in)
	}
	if err := json.Unmarshal([]byte(`{"kind":"hover"}`), &in); err == nil {
		t.Error("unknown kind should fail")
	}

	data, _ := json.Marshal(Input{Kind: InputDoubleClick, X: 1, Y: 2})
	if string(data) != `{"kind":"dblclick","x":1,"y":2}` {
		t.Errorf("Marshal = %s", data)
	}
}
