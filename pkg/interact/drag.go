package interact

import (
	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/render"
	"github.com/matzehuels/atomtree/pkg/surface"
)

const (
	cursorGrab     = "grab"
	cursorGrabbing = "grabbing"
)

// bindDrag makes the node group draggable. Pointer movement is converted to
// zoom-group units so the node follows the pointer at any scale.
func (l *Layer) bindDrag(v *render.NodeView, index int) {
	l.on(v.Group, surface.EventDragStart, func(surface.Event) {
		v.Group.Raise()
		l.scene.Zoom.Attr("cursor", cursorGrabbing)
	})

	l.on(v.Group, surface.EventDrag, func(ev surface.Event) {
		k := l.surface.ZoomTransform().K
		if k == 0 {
			return
		}
		p, _ := l.Position(index)
		p.X += ev.DX / k
		p.Y += ev.DY / k
		l.overrides[index] = p
		v.MoveTo(p.X, p.Y)
	})

	l.on(v.Group, surface.EventDragEnd, func(surface.Event) {
		l.scene.Zoom.Attr("cursor", cursorGrab)
		if p, ok := l.overrides[index]; ok {
			observability.Gesture().OnDrag(index, p.X, p.Y)
			l.logger.Debug("node dragged", "index", index, "x", p.X, "y", p.Y)
		}
	})
}
