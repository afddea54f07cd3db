// Package visualizer runs the render cycle of the interactive tree.
//
// A [Visualizer] owns one drawing surface and the viewport state shared by
// all cycles. Each call to [Visualizer.Update] with a new snapshot runs one
// cycle:
//
//  1. read the viewport transform of the live drawing
//  2. convert the snapshot and build a fresh hierarchy
//  3. lay it out as a tidy tree
//  4. clear the surface and render the tree with the transform from step 1
//  5. bind drag, zoom and hover handling to the new scene
//
// Snapshots whose content hash equals the one last drawn are skipped. A
// cycle against an unmounted surface fails with SURFACE_UNMOUNTED before the
// surface is touched.
//
// Cycles and input dispatch are serialised by one mutex, so a host may feed
// snapshots and pointer events from different goroutines.
package visualizer
