package surface

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo/float"
)

var attrEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// WriteSVG serializes the canvas as a standalone SVG document.
func (c *Canvas) WriteSVG(w io.Writer) error {
	bw := bufio.NewWriter(w)
	s := svg.New(bw)

	root := []string{
		rawAttr("id", c.id),
		fmt.Sprintf(`viewBox="0 0 %s %s"`, formatValue(c.width), formatValue(c.height)),
	}
	s.Start(c.width, c.height, append(root, attrList(c.root, nil)...)...)
	for _, ch := range c.root.children {
		writeElement(s, ch)
	}
	s.End()
	return bw.Flush()
}

// SVG returns the canvas serialized as a string.
func (c *Canvas) SVG() string {
	var b strings.Builder
	_ = c.WriteSVG(&b)
	return b.String()
}

func writeElement(s *svg.SVG, e *Element) {
	switch e.tag {
	case "g":
		s.Group(attrList(e, nil)...)
		for _, ch := range e.children {
			writeElement(s, ch)
		}
		s.Gend()
	case "circle":
		cx, _ := e.Float("cx")
		cy, _ := e.Float("cy")
		r, _ := e.Float("r")
		s.Circle(cx, cy, r, attrList(e, []string{"cx", "cy", "r"})...)
	case "path":
		d, _ := e.Get("d")
		if p, ok := e.Path(); ok {
			d = p.String()
		}
		s.Path(d, attrList(e, []string{"d"})...)
	case "text":
		writeText(s, e)
	default:
		fmt.Fprintf(s.Writer, "<%s %s>", e.tag, strings.Join(attrList(e, nil), " "))
		xmlEscape(s.Writer, e.text)
		for _, ch := range e.children {
			writeElement(s, ch)
		}
		fmt.Fprintf(s.Writer, "</%s>\n", e.tag)
	}
}

func writeText(s *svg.SVG, e *Element) {
	x, _ := e.Float("x")
	y, _ := e.Float("y")
	attrs := attrList(e, []string{"x", "y"})
	lines := strings.Split(e.text, "\n")
	if len(lines) == 1 {
		s.Text(x, y, e.text, attrs...)
		return
	}
	s.Textspan(x, y, "", attrs...)
	for i, line := range lines {
		dy := "1.2em"
		if i == 0 {
			dy = "0"
		}
		s.Span(line, rawAttr("x", formatValue(x)), rawAttr("dy", dy), `xml:space="preserve"`)
	}
	s.TextEnd()
}

// attrList renders id, transform, attributes and inline style as raw
// name="value" strings, skipping the names in skip.
func attrList(e *Element, skip []string) []string {
	var out []string
	if e.id != "" {
		out = append(out, rawAttr("id", e.id))
	}
	if e.transform != nil {
		out = append(out, rawAttr("transform", e.transform.String()))
	}
outer:
	for _, a := range e.attrs {
		for _, s := range skip {
			if a.name == s {
				continue outer
			}
		}
		out = append(out, rawAttr(a.name, a.value))
	}
	if len(e.styles) > 0 {
		parts := make([]string, len(e.styles))
		for i, st := range e.styles {
			parts[i] = st.name + ":" + st.value
		}
		out = append(out, rawAttr("style", strings.Join(parts, ";")))
	}
	return out
}

func rawAttr(name, value string) string {
	return name + `="` + attrEscaper.Replace(value) + `"`
}

func xmlEscape(w io.Writer, s string) {
	_, _ = io.WriteString(w, attrEscaper.Replace(s))
}
