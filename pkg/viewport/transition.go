package viewport

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Transition animates a transform from one value to another.
type Transition struct {
	tweens [3]*gween.Tween
	to     Transform
	Done   bool
}

// NewTransition animates from → to over d. A nil easing function uses
// ease.InOutQuad.
func NewTransition(from, to Transform, d time.Duration, fn ease.TweenFunc) *Transition {
	if fn == nil {
		fn = ease.InOutQuad
	}
	secs := float32(d.Seconds())
	return &Transition{
		tweens: [3]*gween.Tween{
			gween.New(float32(from.X), float32(to.X), secs, fn),
			gween.New(float32(from.Y), float32(to.Y), secs, fn),
			gween.New(float32(from.K), float32(to.K), secs, fn),
		},
		to:   to,
		Done: d <= 0,
	}
}

// Step advances the animation by dt and returns the current transform.
// Once finished it returns the exact target.
func (tr *Transition) Step(dt time.Duration) Transform {
	if tr.Done {
		return tr.to
	}
	var v [3]float64
	done := true
	for i, tw := range tr.tweens {
		cur, finished := tw.Update(float32(dt.Seconds()))
		v[i] = float64(cur)
		if !finished {
			done = false
		}
	}
	if done {
		tr.Done = true
		return tr.to
	}
	return Transform{X: v[0], Y: v[1], K: v[2]}
}

// Fit returns the transform that centers bounds in the extent of c at the
// largest scale that shows all of it, with pad surface units of margin.
func (c Constraints) Fit(bounds Rect, pad float64) Transform {
	w := bounds.MaxX - bounds.MinX
	h := bounds.MaxY - bounds.MinY
	ew := c.Extent.MaxX - c.Extent.MinX - 2*pad
	eh := c.Extent.MaxY - c.Extent.MinY - 2*pad

	k := c.MaxScale
	if w > 0 {
		k = min(k, ew/w)
	}
	if h > 0 {
		k = min(k, eh/h)
	}
	k = c.Clamp(k)

	bx, by := bounds.Center()
	ex, ey := c.Extent.Center()
	return Transform{X: ex - bx*k, Y: ey - by*k, K: k}
}
