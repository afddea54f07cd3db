// Package interact attaches gesture handling to a rendered scene.
//
// [Bind] registers three groups of listeners on a freshly rendered
// [render.Scene]:
//
//   - node drag: each node group can be dragged on its own. The dragged
//     position lives in an [Overrides] map keyed by breadth-first index and is
//     applied only to the group's transform; tree nodes are never modified.
//   - zoom and pan: wheel, double click, pinch and background drag produce a
//     new [viewport.Transform] under the layer's constraints. Each change is
//     applied to the zoom group, stored on the surface and written to the
//     shared [viewport.State].
//   - hover inspection: entering a leaf node appends a popup with the node's
//     JSON payload; leaving removes it again. Internal nodes show nothing.
//
// A layer lives exactly as long as its scene. The next render clears the
// surface, which drops every listener together with any drag overrides and
// popups.
package interact
