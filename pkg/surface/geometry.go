package surface

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/atomtree/pkg/viewport"
)

// Text metrics used for hit testing. Glyphs are approximated as a fixed
// fraction of the font size per terminal cell.
const (
	rootFontSize = 16.0
	glyphAdvance = 0.6
	lineHeight   = 1.2
	ascent       = 0.8
)

// compose returns the transform of a child with local transform t under a
// parent whose world transform is w.
func compose(w, t viewport.Transform) viewport.Transform {
	return viewport.Transform{X: w.X + w.K*t.X, Y: w.Y + w.K*t.Y, K: w.K * t.K}
}

// WorldTransform returns the transform from e's local coordinates to surface
// coordinates, including e's own transform.
func (e *Element) WorldTransform() viewport.Transform {
	w := viewport.Identity
	var chain []*Element
	for el := e; el != nil; el = el.parent {
		chain = append(chain, el)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if t, ok := chain[i].Transform(); ok {
			w = compose(w, t)
		}
	}
	return w
}

// ParseLength converts a CSS length ("2rem", "12px", ".31em", "5") to user
// units. em lengths are relative to fontSize.
func ParseLength(s string, fontSize float64) (float64, bool) {
	s = strings.TrimSpace(s)
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "rem"):
		s, mult = strings.TrimSuffix(s, "rem"), rootFontSize
	case strings.HasSuffix(s, "em"):
		s, mult = strings.TrimSuffix(s, "em"), fontSize
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

// FontSize returns the effective font size of e in user units.
func (e *Element) FontSize() float64 {
	if v, ok := e.Inherited("font-size"); ok {
		if f, ok := ParseLength(v, rootFontSize); ok {
			return f
		}
	}
	return rootFontSize
}

func (e *Element) length(name string, fontSize float64) float64 {
	v, ok := e.Lookup(name)
	if !ok {
		return 0
	}
	f, _ := ParseLength(v, fontSize)
	return f
}

// TextBox returns the estimated local bounding box of a text element.
func (e *Element) TextBox() (minX, minY, maxX, maxY float64) {
	fs := e.FontSize()
	lines := strings.Split(e.text, "\n")
	cells := 0
	for _, l := range lines {
		cells = max(cells, runewidth.StringWidth(l))
	}
	w := float64(cells) * fs * glyphAdvance
	h := float64(len(lines)) * fs * lineHeight

	x := e.length("x", fs) + e.length("dx", fs)
	baseline := e.length("y", fs) + e.length("dy", fs)

	anchor, _ := e.Inherited("text-anchor")
	switch anchor {
	case "end":
		minX = x - w
	case "middle":
		minX = x - w/2
	default:
		minX = x
	}
	minY = baseline - fs*ascent
	return minX, minY, minX + w, minY + h
}

// contains reports whether the local point (lx, ly) falls on e.
func (e *Element) contains(lx, ly float64) bool {
	switch e.tag {
	case "circle":
		cx, _ := e.Float("cx")
		cy, _ := e.Float("cy")
		r, _ := e.Float("r")
		dx, dy := lx-cx, ly-cy
		return dx*dx+dy*dy <= r*r
	case "text":
		if e.text == "" {
			return false
		}
		x0, y0, x1, y1 := e.TextBox()
		return lx >= x0 && lx <= x1 && ly >= y0 && ly <= y1
	}
	return false
}

type hitEntry struct {
	el *Element
	w  viewport.Transform
}

// HitTest returns the topmost circle or text element at surface point
// (x, y), or nil. Subtrees with pointer-events "none" and elements under a
// zero-scale transform are skipped.
func (c *Canvas) HitTest(x, y float64) *Element {
	var buf []hitEntry
	var collect func(e *Element, w viewport.Transform)
	collect = func(e *Element, w viewport.Transform) {
		if v, ok := e.Lookup("pointer-events"); ok && v == "none" {
			return
		}
		if t, ok := e.Transform(); ok {
			w = compose(w, t)
		}
		if w.K == 0 {
			return
		}
		if e.tag == "circle" || e.tag == "text" {
			buf = append(buf, hitEntry{el: e, w: w})
		}
		for _, ch := range e.children {
			collect(ch, w)
		}
	}
	collect(c.root, viewport.Identity)

	for i := len(buf) - 1; i >= 0; i-- {
		lx, ly := buf[i].w.Invert(x, y)
		if buf[i].el.contains(lx, ly) {
			return buf[i].el
		}
	}
	return nil
}
