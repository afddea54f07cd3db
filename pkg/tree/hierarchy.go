package tree

import (
	"github.com/matzehuels/atomtree/pkg/errors"
)

// HierarchyNode is the per-render wrapper around a [Node].
//
// X is the breadth coordinate and Y the depth coordinate assigned by the
// layout engine. Renderers draw the node at (Y, X) so the tree grows from
// left to right.
type HierarchyNode struct {
	Node     *Node
	Parent   *HierarchyNode
	Children []*HierarchyNode
	Depth    int
	Index    int // position in breadth-first order
	Sibling  int // position among the parent's children
	X, Y     float64
}

// IsLeaf reports whether the wrapped node has no children.
func (h *HierarchyNode) IsLeaf() bool { return len(h.Children) == 0 }

// IsRoot reports whether h has no parent.
func (h *HierarchyNode) IsRoot() bool { return h.Parent == nil }

// Link is a parent-child edge of the hierarchy.
type Link struct {
	Source *HierarchyNode
	Target *HierarchyNode
}

// Hierarchy is a rooted tree of [HierarchyNode] values.
type Hierarchy struct {
	root  *HierarchyNode
	nodes []*HierarchyNode
}

// NewHierarchy wraps root and validates that it forms a finite tree.
func NewHierarchy(root *Node) (*Hierarchy, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidHierarchy, "hierarchy root is nil")
	}

	seen := map[*Node]bool{root: true}
	hroot := &HierarchyNode{Node: root}
	nodes := []*HierarchyNode{hroot}

	for i := 0; i < len(nodes); i++ {
		parent := nodes[i]
		parent.Index = i
		kids := parent.Node.Children
		if len(kids) == 0 {
			continue
		}
		parent.Children = make([]*HierarchyNode, len(kids))
		for j, child := range kids {
			if child == nil {
				return nil, errors.New(errors.ErrCodeInvalidHierarchy,
					"node %q has a nil child at position %d", parent.Node.Name, j)
			}
			if seen[child] {
				return nil, errors.New(errors.ErrCodeCyclicHierarchy,
					"node %q is reachable more than once (under %q)", child.Name, parent.Node.Name)
			}
			seen[child] = true
			hn := &HierarchyNode{
				Node:    child,
				Parent:  parent,
				Depth:   parent.Depth + 1,
				Sibling: j,
			}
			parent.Children[j] = hn
			nodes = append(nodes, hn)
		}
	}

	return &Hierarchy{root: hroot, nodes: nodes}, nil
}

// Root returns the root node.
func (h *Hierarchy) Root() *HierarchyNode { return h.root }

// Nodes returns all nodes in breadth-first order. Nodes()[i].Index == i.
func (h *Hierarchy) Nodes() []*HierarchyNode { return h.nodes }

// Len returns the number of nodes.
func (h *Hierarchy) Len() int { return len(h.nodes) }

// Height returns the greatest depth in the hierarchy.
func (h *Hierarchy) Height() int {
	return h.nodes[len(h.nodes)-1].Depth
}

// Leaves returns the leaf nodes in breadth-first order.
func (h *Hierarchy) Leaves() []*HierarchyNode {
	var out []*HierarchyNode
	for _, n := range h.nodes {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

// Links returns one link per non-root node, ordered by target index.
func (h *Hierarchy) Links() []Link {
	if len(h.nodes) < 2 {
		return nil
	}
	links := make([]Link, 0, len(h.nodes)-1)
	for _, n := range h.nodes[1:] {
		links = append(links, Link{Source: n.Parent, Target: n})
	}
	return links
}

// EachBefore calls fn for every node in pre-order.
func (h *Hierarchy) EachBefore(fn func(*HierarchyNode)) {
	var walk func(*HierarchyNode)
	walk = func(n *HierarchyNode) {
		fn(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(h.root)
}

// EachAfter calls fn for every node in post-order.
func (h *Hierarchy) EachAfter(fn func(*HierarchyNode)) {
	var walk func(*HierarchyNode)
	walk = func(n *HierarchyNode) {
		for _, c := range n.Children {
			walk(c)
		}
		fn(n)
	}
	walk(h.root)
}

// Find returns the first node in breadth-first order whose name matches.
func (h *Hierarchy) Find(name string) *HierarchyNode {
	for _, n := range h.nodes {
		if n.Node.Name == name {
			return n
		}
	}
	return nil
}
