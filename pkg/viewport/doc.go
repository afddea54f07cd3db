// Package viewport holds the pan/zoom transform of the drawing and the math
// behind zoom gestures.
//
// A [Transform] maps zoom-group coordinates to surface coordinates:
// screen = local*K + (X, Y). [Constraints] bound the scale (0 to 8 by default)
// and keep the visible extent inside a translate extent. Out-of-range scales
// are clamped to the nearest bound, never rejected.
//
// [State] is the only piece of view state that survives a full rebuild of
// the drawing. The render cycle reads it before clearing the surface and
// applies it as the initial transform of the new zoom group; the zoom
// gesture handler is its sole writer during interaction.
//
// [Transition] animates between two transforms with gween easing, for
// "reset view" style jumps.
package viewport
