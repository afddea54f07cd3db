package viewport

import "math"

// Default zoom bounds and logical viewport box.
const (
	DefaultMinScale = 0.0
	DefaultMaxScale = 8.0
	DefaultWidth    = 600.0
	DefaultHeight   = 1100.0
)

// Rect is an axis-aligned box in surface coordinates.
type Rect struct {
	MinX float64 `json:"min_x" toml:"min_x"`
	MinY float64 `json:"min_y" toml:"min_y"`
	MaxX float64 `json:"max_x" toml:"max_x"`
	MaxY float64 `json:"max_y" toml:"max_y"`
}

// Unbounded is a translate extent that never constrains panning.
var Unbounded = Rect{
	MinX: math.Inf(-1), MinY: math.Inf(-1),
	MaxX: math.Inf(1), MaxY: math.Inf(1),
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// Constraints bound the transforms reachable through zoom gestures.
type Constraints struct {
	MinScale float64
	MaxScale float64
	// Extent is the visible viewport box.
	Extent Rect
	// TranslateExtent is the box the viewport may not leave.
	TranslateExtent Rect
}

// DefaultConstraints allows scales in [0, 8] over a 600×1100 viewport with
// unbounded panning.
func DefaultConstraints() Constraints {
	return Constraints{
		MinScale:        DefaultMinScale,
		MaxScale:        DefaultMaxScale,
		Extent:          Rect{MaxX: DefaultWidth, MaxY: DefaultHeight},
		TranslateExtent: Unbounded,
	}
}

// WithDefaults fills each zero field of c from [DefaultConstraints]. A
// zero MinScale is already the default and stays as given.
func (c Constraints) WithDefaults() Constraints {
	if c.MaxScale == 0 {
		c.MaxScale = DefaultMaxScale
	}
	if c.Extent == (Rect{}) {
		c.Extent = Rect{MaxX: DefaultWidth, MaxY: DefaultHeight}
	}
	if c.TranslateExtent == (Rect{}) {
		c.TranslateExtent = Unbounded
	}
	return c
}

// Clamp limits k to [MinScale, MaxScale]. NaN clamps to MinScale.
func (c Constraints) Clamp(k float64) float64 {
	if math.IsNaN(k) {
		return c.MinScale
	}
	return math.Max(c.MinScale, math.Min(c.MaxScale, k))
}

// Constrain clamps the scale of t and shifts it so the extent stays inside
// the translate extent. When the translate extent is smaller than the
// visible extent the two are centered on each other.
func (c Constraints) Constrain(t Transform) Transform {
	t.K = c.Clamp(t.K)
	if t.K == 0 {
		return t
	}

	x0, y0 := t.Invert(c.Extent.MinX, c.Extent.MinY)
	x1, y1 := t.Invert(c.Extent.MaxX, c.Extent.MaxY)
	dx0 := x0 - c.TranslateExtent.MinX
	dx1 := x1 - c.TranslateExtent.MaxX
	dy0 := y0 - c.TranslateExtent.MinY
	dy1 := y1 - c.TranslateExtent.MaxY

	return t.Translate(settle(dx0, dx1), settle(dy0, dy1))
}

func settle(d0, d1 float64) float64 {
	if d1 > d0 {
		return (d0 + d1) / 2
	}
	if v := math.Min(0, d0); v != 0 {
		return v
	}
	return math.Max(0, d1)
}

// ScaleTo sets the scale of t to k around the surface point (px, py).
func (c Constraints) ScaleTo(t Transform, k, px, py float64) Transform {
	return c.Constrain(t.Rescale(c.Clamp(k), px, py))
}

// ScaleBy multiplies the scale of t by f around the surface point (px, py).
func (c Constraints) ScaleBy(t Transform, f, px, py float64) Transform {
	return c.ScaleTo(t, t.K*f, px, py)
}

// TranslateBy pans t by (dx, dy) surface units.
func (c Constraints) TranslateBy(t Transform, dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return c.Constrain(t)
}
