package surface

import (
	"strconv"
	"strings"
)

// Verb is a path drawing command.
type Verb byte

// Path verbs.
const (
	MoveTo  Verb = 'M'
	LineTo  Verb = 'L'
	CubicTo Verb = 'C'
)

// Segment is one command with its points. MoveTo and LineTo use one point,
// CubicTo three (two control points and the end point).
type Segment struct {
	Verb   Verb
	Points [][2]float64
}

// Path is an ordered list of segments.
type Path struct {
	Segments []Segment
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) *Path {
	p.Segments = append(p.Segments, Segment{Verb: MoveTo, Points: [][2]float64{{x, y}}})
	return p
}

// LineTo draws a straight line to (x, y).
func (p *Path) LineTo(x, y float64) *Path {
	p.Segments = append(p.Segments, Segment{Verb: LineTo, Points: [][2]float64{{x, y}}})
	return p
}

// CubicTo draws a cubic Bézier curve to (x, y).
func (p *Path) CubicTo(x1, y1, x2, y2, x, y float64) *Path {
	p.Segments = append(p.Segments, Segment{Verb: CubicTo, Points: [][2]float64{{x1, y1}, {x2, y2}, {x, y}}})
	return p
}

// String formats the path as SVG path data, e.g. "M0,0C550,0,550,300,1100,300".
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteByte(byte(s.Verb))
		for i, pt := range s.Points {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(pt[0], 'f', -1, 64))
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(pt[1], 'f', -1, 64))
		}
	}
	return b.String()
}
