package interact

import (
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/viewport"
)

// Gesture kinds reported to observability hooks.
const (
	GestureWheel       = "wheel"
	GestureDoubleClick = "dblclick"
	GesturePinch       = "pinch"
	GesturePan         = "pan"
	GestureSet         = "set"
)

// bindZoom registers the surface-wide zoom gestures on the root element.
// Events that no node handles bubble up to it.
func (l *Layer) bindZoom() {
	root := l.surface.Root()
	c := l.constraints

	l.on(root, surface.EventWheel, func(ev surface.Event) {
		t := c.Wheel(l.current(), ev.DeltaY, ev.DeltaMode, ev.Mods&surface.ModCtrl != 0, ev.X, ev.Y)
		l.commit(GestureWheel, t)
	})
	l.on(root, surface.EventDoubleClick, func(ev surface.Event) {
		t := c.DoubleClick(l.current(), ev.Mods&surface.ModShift != 0, ev.X, ev.Y)
		l.commit(GestureDoubleClick, t)
	})
	l.on(root, surface.EventPinch, func(ev surface.Event) {
		t := c.ScaleBy(l.current(), ev.Scale, ev.X, ev.Y)
		l.commit(GesturePinch, t)
	})
	l.on(root, surface.EventDrag, func(ev surface.Event) {
		t := c.TranslateBy(l.current(), ev.DX, ev.DY)
		l.commit(GesturePan, t)
	})
}

// current returns the transform stored on the surface, which is the one
// applied to the live zoom group.
func (l *Layer) current() viewport.Transform {
	return l.surface.ZoomTransform()
}

// ZoomTo applies t under the layer's constraints as if a gesture produced
// it, and returns the transform actually applied.
func (l *Layer) ZoomTo(t viewport.Transform) viewport.Transform {
	t = l.constraints.Constrain(t)
	l.commit(GestureSet, t)
	return t
}

// commit applies t to the zoom group, stores it on the surface and writes it
// to the shared viewport state. It is the only writer of that state during a
// scene's lifetime.
func (l *Layer) commit(kind string, t viewport.Transform) {
	l.scene.Zoom.SetTransform(t)
	l.surface.SetZoomTransform(t)
	if l.state != nil {
		l.state.Write(t)
	}
	observability.Gesture().OnZoom(kind, t.X, t.Y, t.K)
	l.logger.Debug("zoom", "gesture", kind, "transform", t)
}
