package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/tree"
)

// LeafColor fills leaf nodes.
const LeafColor = "#c300ff"

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the leaf data in node labels.
	// When false, only the node name is shown.
	Detailed bool
}

// ToDOT converts a hierarchy to Graphviz DOT format. Nodes are keyed by their
// breadth-first index so repeated names stay distinct.
func ToDOT(h *tree.Hierarchy, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#646464\", penwidth=2];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range h.Nodes() {
		label := fmtLabel(n, opts.Detailed)
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.Index, strings.Join(fmtAttrs(n, label), ", "))
	}

	buf.WriteString("\n")
	for _, l := range h.Links() {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", l.Source.Index, l.Target.Index)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *tree.HierarchyNode, detailed bool) string {
	if !detailed || len(n.Node.Data) == 0 {
		return n.Node.Name
	}

	parts := make([]string, 0, len(n.Node.Data))
	for _, k := range slices.Sorted(maps.Keys(n.Node.Data)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Node.Data[k]))
	}
	return n.Node.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *tree.HierarchyNode, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsLeaf() && !n.IsRoot() {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", LeafColor), "fontcolor=white")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderFormat(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConvertFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConvertFailed, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
