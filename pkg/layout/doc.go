// Package layout computes tidy-tree coordinates for a [tree.Hierarchy].
//
// [Tidy] implements the Reingold–Tilford algorithm in the linear-time form
// of Buchheim, Jünger and Leipert. Every node receives exactly one position:
// X on the breadth axis and Y on the depth axis. With the default
// [Options], nodes occupy a fixed 600×1100 cell, siblings are one cell apart
// and cousins two, and the root sits at the origin.
//
// Renderers swap the axes (drawing a node at (Y, X)) so the tree grows
// horizontally. [Result.Bounds] reports the extent in that rendered space.
//
// The layout is deterministic: identical hierarchies produce identical
// coordinates, and child order is preserved.
package layout
