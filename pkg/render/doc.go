// Package render draws a laid-out hierarchy onto a [surface.Surface].
//
// [Render] is destructive: it clears the surface and rebuilds every element
// from the layout result. The drawing is organised as
//
//	svg#canvas
//	└── g              zoom group, carries the viewport transform
//	    ├── g          links: one horizontal cubic curve per edge
//	    └── g.atomNodes (one per node, at translate(y, x))
//	        ├── circle
//	        ├── text   label outline pass
//	        └── text   label fill pass
//
// The axes are swapped so the tree grows left to right. Labels sit left of
// nodes with children and right of leaves.
package render
