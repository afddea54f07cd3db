package viewport

import (
	"math"
	"strconv"
)

// Transform is a uniform scale followed by a translation.
type Transform struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
	K float64 `json:"k" toml:"k"`
}

// Identity is the default transform of a freshly mounted drawing.
var Identity = Transform{K: 1}

// Apply maps a local point to surface coordinates.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a surface point to local coordinates. A zero scale has no
// inverse; the translation alone is undone in that case.
func (t Transform) Invert(x, y float64) (float64, float64) {
	if t.K == 0 {
		return x - t.X, y - t.Y
	}
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// Translate moves the transform by (dx, dy) local units.
func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{X: t.X + t.K*dx, Y: t.Y + t.K*dy, K: t.K}
}

// Rescale returns the transform with scale k, keeping the surface point
// (px, py) fixed.
func (t Transform) Rescale(k, px, py float64) Transform {
	lx, ly := t.Invert(px, py)
	return Transform{X: px - lx*k, Y: py - ly*k, K: k}
}

// IsZero reports whether the scale is zero. Nothing drawn under such a
// transform is visible.
func (t Transform) IsZero() bool { return t.K == 0 }

// Equal reports whether t and o differ by at most eps in every component.
func (t Transform) Equal(o Transform, eps float64) bool {
	return math.Abs(t.X-o.X) <= eps && math.Abs(t.Y-o.Y) <= eps && math.Abs(t.K-o.K) <= eps
}

// String formats the transform as an SVG transform attribute.
func (t Transform) String() string {
	return "translate(" + ftoa(t.X) + "," + ftoa(t.Y) + ") scale(" + ftoa(t.K) + ")"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
