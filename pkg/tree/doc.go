// Package tree provides the rooted hierarchy rendered by atomtree.
//
// A [Node] is the immutable payload handed over by a snapshot converter: a
// name, an opaque data map and an ordered list of children. A [Hierarchy] is
// the per-render view over a node tree: it wraps every node in a
// [HierarchyNode] carrying depth, parent, breadth-first index and the layout
// position filled in by pkg/layout.
//
// Hierarchies are rebuilt from scratch on every render cycle and are never
// patched in place. Node payloads are never mutated by layout, rendering or
// interaction.
//
// # Construction
//
//	root := tree.NewRoot(tree.DefaultRootName, children)
//	h, err := tree.NewHierarchy(root)
//	if err != nil {
//	    // cyclic or malformed input
//	}
//	for _, n := range h.Nodes() {
//	    fmt.Println(n.Index, n.Depth, n.Node.Name)
//	}
//
// # Validation
//
// [NewHierarchy] rejects inputs that are not finite trees: a *Node reachable
// twice (a cycle or a shared subtree) yields a CYCLIC_HIERARCHY error and a
// nil child yields INVALID_HIERARCHY.
package tree
