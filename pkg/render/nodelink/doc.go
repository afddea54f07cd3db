// Package nodelink renders a state hierarchy as a Graphviz node-link diagram.
//
// # Overview
//
// This is the static counterpart of the interactive tree: the same
// hierarchy, laid out by Graphviz instead of the tidy tree algorithm. It is
// useful for exporting a snapshot into tools that understand DOT.
//
// # Usage
//
//	dot := nodelink.ToDOT(h, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The generated DOT uses left-to-right layout (rankdir=LR), matching the
// interactive tree's orientation. Leaves are drawn in the node marker
// colour; internal nodes are white.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
