package viewport

import "math"

// DeltaMode is the unit of a wheel delta.
type DeltaMode int

// Wheel delta units.
const (
	DeltaPixel DeltaMode = iota
	DeltaLine
	DeltaPage
)

// WheelFactor converts a wheel delta into a scale multiplier: each pixel of
// downward scroll shrinks the view by 2^-0.002. Pinch gestures reported as
// ctrl+wheel are ten times as sensitive.
func WheelFactor(deltaY float64, mode DeltaMode, ctrl bool) float64 {
	unit := 0.002
	switch mode {
	case DeltaLine:
		unit = 0.05
	case DeltaPage:
		unit = 1
	}
	if ctrl {
		unit *= 10
	}
	return math.Pow(2, -deltaY*unit)
}

// Wheel applies a wheel event at (px, py).
func (c Constraints) Wheel(t Transform, deltaY float64, mode DeltaMode, ctrl bool, px, py float64) Transform {
	return c.ScaleBy(t, WheelFactor(deltaY, mode, ctrl), px, py)
}

// DoubleClick zooms in by 2 at (px, py), or out when shift is held.
func (c Constraints) DoubleClick(t Transform, shift bool, px, py float64) Transform {
	f := 2.0
	if shift {
		f = 0.5
	}
	return c.ScaleBy(t, f, px, py)
}

// Pinch rescales t so that the distance between two touch points goes from
// d0 to d1, anchored at their midpoint (mx, my).
func (c Constraints) Pinch(t Transform, d0, d1, mx, my float64) Transform {
	if d0 <= 0 {
		return c.Constrain(t)
	}
	return c.ScaleBy(t, d1/d0, mx, my)
}
