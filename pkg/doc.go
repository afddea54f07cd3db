// Package pkg provides the core libraries for atomtree state visualization.
//
// # Overview
//
// Atomtree draws a snapshot of application state as a left-to-right tidy
// tree. Top-level keys of the snapshot become the children of a synthetic
// root; nested objects become subtrees and everything else becomes a leaf
// carrying its value. Drawings can be dragged, zoomed and panned, and
// hovering a leaf shows its data as a JSON popup.
//
// The typical data flow:
//
//	Snapshot (JSON / YAML / redis)
//	         ↓
//	    [snapshot] package (snapshot → nodes)
//	         ↓
//	    [tree] package (hierarchy, breadth-first indices)
//	         ↓
//	    [layout] package (tidy tree positions)
//	         ↓
//	    [render] package (elements on a surface)
//	         ↓
//	    [interact] package (drag, zoom, hover)
//	         ↓
//	    SVG / PNG / DOT
//
// # Quick Start
//
// Draw a snapshot and export it:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/atomtree/pkg/surface"
//	    "github.com/matzehuels/atomtree/pkg/visualizer"
//	)
//
//	canvas := surface.NewCanvas("canvas", 600, 1100)
//	vis := visualizer.New(canvas, visualizer.Options{})
//	vis.Update(context.Background(), map[string]any{"A": 1, "B": map[string]any{"C": 2}})
//	canvas.WriteSVG(os.Stdout)
//
// # Main Packages
//
// ## Drawing
//
// [visualizer] - Runs render cycles: convert, lay out, clear, draw, bind.
// The viewport survives every cycle; unchanged snapshots are skipped.
//
// [viewport] - Zoom transforms, scale and translate constraints, wheel and
// double-click gesture math, and animated transitions.
//
// [surface] - Retained element tree with hit testing and pointer input,
// encoded as SVG or rasterized to PNG.
//
// [render/nodelink] - Static node-link diagrams through Graphviz.
//
// ## Infrastructure
//
// [pipeline] - One-shot renders to every output format with a content-keyed
// cache, used by the CLI.
//
// [server] - HTTP surface for browsers: drawings, viewport, input events and
// a live-reload stream.
//
// [source] - Snapshot feeds from watched files and redis channels.
//
// [cache] - Byte caches keyed by content hashes (file, null, scoped).
//
// [config] - TOML configuration.
//
// [observability] - Hooks for cycles, gestures, cache and HTTP traffic.
//
// [errors] - Error codes shared by every package.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/viewport/...  # Specific package
//	go test -run Example        # Examples only
//
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/snapshot
// [tree]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/tree
// [layout]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/render
// [interact]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/interact
// [visualizer]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/visualizer
// [viewport]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/viewport
// [surface]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/surface
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/server
// [source]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/source
// [cache]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/atomtree/pkg/errors
package pkg
