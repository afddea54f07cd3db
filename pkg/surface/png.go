package surface

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/atomtree/pkg/viewport"
)

// PNGOption configures [Canvas.WritePNG].
type PNGOption func(*pngConfig)

type pngConfig struct {
	scale      float64
	background string
}

// WithScale sets the number of pixels per logical unit. The default is 1.
func WithScale(s float64) PNGOption {
	return func(c *pngConfig) {
		if s > 0 {
			c.scale = s
		}
	}
}

// WithBackground sets the fill color behind the drawing ("none" keeps the
// image transparent).
func WithBackground(color string) PNGOption {
	return func(c *pngConfig) { c.background = color }
}

var (
	fontOnce  sync.Once
	fontParse *truetype.Font
	fontErr   error
)

func regularFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontParse, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontParse, fontErr
}

type rasterizer struct {
	dc    *gg.Context
	font  *truetype.Font
	faces map[int]font.Face
}

// WritePNG rasterizes the canvas and writes it as PNG.
func (c *Canvas) WritePNG(w io.Writer, opts ...PNGOption) error {
	cfg := pngConfig{scale: 1, background: "#1e1e1e"}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := regularFont()
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}

	width := int(math.Ceil(c.width * cfg.scale))
	height := int(math.Ceil(c.height * cfg.scale))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas %s has empty size %gx%g", c.id, c.width, c.height)
	}

	r := &rasterizer{
		dc:    gg.NewContext(width, height),
		font:  f,
		faces: make(map[int]font.Face),
	}
	if bg, ok := ParseColor(cfg.background); ok {
		r.dc.SetColor(bg)
		r.dc.Clear()
	}
	r.dc.SetLineJoin(gg.LineJoinRound)
	r.dc.SetLineCap(gg.LineCapRound)

	r.draw(c.root, viewport.Transform{K: cfg.scale})
	return r.dc.EncodePNG(w)
}

func (r *rasterizer) draw(e *Element, w viewport.Transform) {
	if v, ok := e.Lookup("display"); ok && v == "none" {
		return
	}
	if t, ok := e.Transform(); ok {
		w = compose(w, t)
	}
	if w.K == 0 {
		return
	}

	switch e.tag {
	case "circle":
		r.circle(e, w)
	case "path":
		r.path(e, w)
	case "text":
		r.text(e, w)
	}
	for _, ch := range e.children {
		r.draw(ch, w)
	}
}

func (r *rasterizer) circle(e *Element, w viewport.Transform) {
	cx, _ := e.Float("cx")
	cy, _ := e.Float("cy")
	rad, _ := e.Float("r")
	x, y := w.Apply(cx, cy)
	r.dc.DrawCircle(x, y, rad*w.K)
	if fill, ok := paint(e, "fill", color.Black); ok {
		r.dc.SetColor(fill)
		r.dc.FillPreserve()
	}
	if stroke, ok := paint(e, "stroke", nil); ok {
		r.dc.SetColor(stroke)
		r.dc.SetLineWidth(strokeWidth(e) * w.K)
		r.dc.StrokePreserve()
	}
	r.dc.ClearPath()
}

func (r *rasterizer) path(e *Element, w viewport.Transform) {
	p, ok := e.Path()
	if !ok {
		return
	}
	for _, s := range p.Segments {
		pts := make([]float64, 0, 6)
		for _, pt := range s.Points {
			x, y := w.Apply(pt[0], pt[1])
			pts = append(pts, x, y)
		}
		switch s.Verb {
		case MoveTo:
			r.dc.MoveTo(pts[0], pts[1])
		case LineTo:
			r.dc.LineTo(pts[0], pts[1])
		case CubicTo:
			r.dc.CubicTo(pts[0], pts[1], pts[2], pts[3], pts[4], pts[5])
		}
	}
	if fill, ok := paint(e, "fill", color.Black); ok {
		r.dc.SetColor(fill)
		r.dc.FillPreserve()
	}
	if stroke, ok := paint(e, "stroke", nil); ok {
		r.dc.SetColor(stroke)
		r.dc.SetLineWidth(strokeWidth(e) * w.K)
		r.dc.StrokePreserve()
	}
	r.dc.ClearPath()
}

// text draws each line anchored like SVG text. A stroke is emulated by
// drawing the glyphs offset in eight directions before the fill.
func (r *rasterizer) text(e *Element, w viewport.Transform) {
	if e.text == "" {
		return
	}
	fs := e.FontSize()
	px := int(math.Round(fs * w.K))
	if px <= 0 {
		return
	}
	r.dc.SetFontFace(r.face(px))

	ax := 0.0
	if anchor, _ := e.Inherited("text-anchor"); anchor == "end" {
		ax = 1
	} else if anchor == "middle" {
		ax = 0.5
	}
	x := e.length("x", fs) + e.length("dx", fs)
	y := e.length("y", fs) + e.length("dy", fs)

	stroke, hasStroke := paint(e, "stroke", nil)
	fill, hasFill := paint(e, "fill", color.Black)
	sw := strokeWidth(e) * w.K

	for i, line := range strings.Split(e.text, "\n") {
		sx, sy := w.Apply(x, y+float64(i)*fs*lineHeight)
		if hasStroke && sw > 0 {
			r.dc.SetColor(stroke)
			for a := 0; a < 8; a++ {
				th := float64(a) * math.Pi / 4
				r.dc.DrawStringAnchored(line, sx+sw*math.Cos(th), sy+sw*math.Sin(th), ax, 0)
			}
		}
		if hasFill {
			r.dc.SetColor(fill)
			r.dc.DrawStringAnchored(line, sx, sy, ax, 0)
		}
	}
}

func (r *rasterizer) face(px int) font.Face {
	if f, ok := r.faces[px]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{Size: float64(px), DPI: 72, Hinting: font.HintingFull})
	r.faces[px] = f
	return f
}

// paint resolves an inherited fill or stroke. def is used when nothing in
// the ancestry sets the property; a nil def means "none".
func paint(e *Element, prop string, def color.Color) (color.Color, bool) {
	v, ok := e.Inherited(prop)
	if !ok {
		return def, def != nil
	}
	return ParseColor(v)
}

func strokeWidth(e *Element) float64 {
	if v, ok := e.Inherited("stroke-width"); ok {
		if f, ok := ParseLength(v, e.FontSize()); ok {
			return f
		}
	}
	return 1
}

var namedColors = map[string]color.Color{
	"white":       color.White,
	"black":       color.Black,
	"transparent": color.Transparent,
	"red":         color.RGBA{R: 0xff, A: 0xff},
	"green":       color.RGBA{G: 0x80, A: 0xff},
	"blue":        color.RGBA{B: 0xff, A: 0xff},
	"gray":        color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":        color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// ParseColor parses a named color or a #rgb / #rrggbb hex color. "none" and
// unknown values report false.
func ParseColor(s string) (color.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") {
		return nil, false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
