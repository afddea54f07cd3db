// Package server exposes a visualizer over HTTP.
//
// The server owns one in-memory canvas. Snapshots arrive through
// POST /snapshot (or a watch feed calling [Server.Emit]), raw pointer input
// through POST /events, and the drawing is read back as SVG or PNG:
//
//	GET  /healthz      liveness and cycle count
//	GET  /canvas.svg   current drawing
//	GET  /canvas.png   current drawing, rasterized (?scale=2)
//	GET  /viewport     current zoom transform
//	PUT  /viewport     apply a zoom transform (clamped)
//	POST /snapshot     JSON or YAML snapshot; redraws when it changed
//	POST /events       array of raw inputs dispatched in order
//	GET  /popups       ids of the popups currently shown
//	GET  /stream       server-sent events, one per canvas change
//
// PNG encodings are cached by the SHA-256 of the SVG text they were
// rasterized from, so any [cache.Cache] works, including a [cache.FileCache]
// shared across restarts.
package server
