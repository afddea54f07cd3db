package interact

import (
	"strconv"

	"github.com/matzehuels/atomtree/pkg/observability"
	"github.com/matzehuels/atomtree/pkg/render"
	"github.com/matzehuels/atomtree/pkg/surface"
)

// PopupID returns the element id of the popup of the node with the given
// breadth-first index.
func PopupID(index int) string {
	return "popup-" + strconv.Itoa(index)
}

// bindHover shows the node's payload while the pointer is over a leaf.
func (l *Layer) bindHover(v *render.NodeView, index int) {
	if !v.Node.IsLeaf() {
		return
	}
	l.on(v.Group, surface.EventPointerEnter, func(surface.Event) {
		l.showPopup(v, index)
	})
	l.on(v.Group, surface.EventPointerLeave, func(surface.Event) {
		l.hidePopup(index)
	})
}

func (l *Layer) showPopup(v *render.NodeView, index int) {
	if _, ok := l.popups[index]; ok {
		return
	}
	body, err := v.Node.Node.MarshalPayload()
	if err != nil {
		l.logger.Warn("popup payload", "node", v.Node.Node.Name, "err", err)
		return
	}

	st := l.scene.Style
	id := PopupID(index)
	popup := v.Group.Append("text").
		Attr("x", st.PopupOffsetX).
		Attr("y", st.PopupOffsetY).
		Attr("stroke", st.PopupStroke).
		Style("fill", st.PopupFill).
		Style("font-size", st.PopupFontSize).
		SetText(string(body))
	if err := popup.SetID(id); err != nil {
		popup.Remove()
		l.logger.Warn("popup not shown", "id", id, "err", err)
		return
	}
	l.popups[index] = id
	observability.Gesture().OnPopup(id, true)
}

func (l *Layer) hidePopup(index int) {
	id, ok := l.popups[index]
	if !ok {
		return
	}
	delete(l.popups, index)
	if el := l.surface.Lookup(id); el != nil {
		el.Remove()
	}
	observability.Gesture().OnPopup(id, false)
}
