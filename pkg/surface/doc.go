// Package surface provides the retained-mode drawing surface the render
// pipeline draws into.
//
// The core engine consumes the [Surface] capability: a stable id, a fixed
// logical size, a destructive [Surface.Clear], element creation with
// declarative attribute setters, event binding, and query/apply of the zoom
// transform. [Canvas] is the in-memory implementation used by every host in
// this module.
//
// # Elements
//
// Elements form a tree rooted at the canvas' svg element. Setters return the
// element so calls chain:
//
//	g := canvas.Root().Append("g").Attr("class", "nodes")
//	g.Append("circle").Attr("r", 50).Attr("fill", "#c300ff")
//
// Identifiers are assigned with [Element.SetID] and must be unique within a
// canvas; [Canvas.Lookup] finds an element by id. Transforms are set with
// [Element.SetTransform] and path geometry with [Element.SetPath].
//
// # Events
//
// Listeners are registered per element with [Element.On] and removed with
// the returned [Handle]. Raw pointer input enters through
// [Canvas.Dispatch], which hit-tests circles and text in reverse painter
// order and derives enter/leave, drag, wheel, double-click and pinch events.
// A listener receives events targeted at the nearest element (the hit
// element or an ancestor) that listens for that event type. [Canvas.Clear]
// drops every listener and abandons gestures in flight.
//
// # Sinks
//
// [Canvas.WriteSVG] serializes the element tree with svgo and
// [Canvas.WritePNG] rasterizes it with gg.
package surface
