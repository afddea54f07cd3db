package surface

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/atomtree/pkg/viewport"
)

func drawing() *Canvas {
	c := NewCanvas("canvas", 600, 1100)
	zoom := c.Root().Append("g").SetTransform(viewport.Identity)

	var p Path
	p.MoveTo(0, 0).CubicTo(550, 0, 550, 300, 1100, 300)
	zoom.Append("g").Attr("fill", "none").Attr("stroke", "#646464").
		Append("path").SetPath(p)

	node := zoom.Append("g").SetTransform(viewport.Transform{X: 300, Y: 550, K: 1})
	node.Append("circle").Attr("r", 50).Attr("fill", "#c300ff")
	node.Append("text").Attr("x", 75).Attr("fill", "white").SetText(`a <b> & "c"`)
	popup := node.Append("text").Attr("x", 75).Attr("y", 60).SetText("{\n  \"name\": \"A\"\n}")
	_ = popup.SetID("popup-3")
	return c
}

func TestWriteSVG(t *testing.T) {
	out := drawing().SVG()

	wants := []string{
		`id="canvas"`,
		`viewBox="0 0 600 1100"`,
		`<path d="M0,0C550,0,550,300,1100,300"`,
		`<circle cx="0.00" cy="0.00" r="50.00" fill="#c300ff"`,
		`transform="translate(300,550) scale(1)"`,
		`a &lt;b&gt; &amp; &#34;c&#34;`,
		`id="popup-3"`,
		`<tspan x="75" dy="0" xml:space="preserve" >{</tspan>`,
		`<tspan x="75" dy="1.2em" xml:space="preserve" >}</tspan>`,
		`</svg>`,
	}
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("SVG output missing %q\n%s", w, out)
		}
	}
	if n := strings.Count(out, "<circle"); n != 1 {
		t.Errorf("got %d circles, want 1", n)
	}
}

func TestWriteSVGAttributeEscaping(t *testing.T) {
	c := NewCanvas("canvas", 10, 10)
	c.Root().Append("g").Attr("data-name", `x"><script>`)
	out := c.SVG()
	if strings.Contains(out, `<script>`) {
		t.Errorf("attribute value not escaped:\n%s", out)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := drawing().WritePNG(&buf, WithScale(0.5)); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 300 || b.Dy() != 550 {
		t.Fatalf("size = %dx%d, want 300x550", b.Dx(), b.Dy())
	}

	// The circle center at (300, 550) maps to (150, 275) at half scale.
	r, g, bl, _ := img.At(150, 275).RGBA()
	if r>>8 != 0xc3 || g>>8 != 0x00 || bl>>8 != 0xff {
		t.Errorf("circle pixel = %02x%02x%02x, want c300ff", r>>8, g>>8, bl>>8)
	}
	// The corner stays background.
	r, g, bl, _ = img.At(2, 2).RGBA()
	if r>>8 != 0x1e || g>>8 != 0x1e || bl>>8 != 0x1e {
		t.Errorf("background pixel = %02x%02x%02x, want 1e1e1e", r>>8, g>>8, bl>>8)
	}
}

func TestWritePNGEmpty(t *testing.T) {
	c := NewCanvas("canvas", 0, 0)
	if err := c.WritePNG(&bytes.Buffer{}); err == nil {
		t.Error("empty canvas should fail")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
		ok   bool
	}{
		{"white", color.White, true},
		{"#c300ff", color.RGBA{R: 0xc3, B: 0xff, A: 0xff}, true},
		{"#646464", color.RGBA{R: 0x64, G: 0x64, B: 0x64, A: 0xff}, true},
		{"#fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, true},
		{" WHITE ", color.White, true},
		{"none", nil, false},
		{"#12", nil, false},
		{"#zzzzzz", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
