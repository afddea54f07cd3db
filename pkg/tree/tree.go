package tree

import (
	"slices"

	"github.com/goccy/go-json"
)

// DefaultRootName names the synthetic root that wraps converter output.
const DefaultRootName = "Recoil Root"

// Node is one entry of the rendered tree.
//
// Name should be unique among siblings. Data is an opaque payload shown by
// the hover inspector. A node without children is a leaf.
type Node struct {
	Name     string         `json:"name" yaml:"name"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Children []*Node        `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewRoot wraps children in a synthetic root node called name.
func NewRoot(name string, children []*Node) *Node {
	if name == "" {
		name = DefaultRootName
	}
	return &Node{Name: name, Children: children}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Count returns the number of nodes in the subtree rooted at n.
// It must only be called on validated trees.
func (n *Node) Count() int {
	c := 1
	for _, ch := range n.Children {
		c += ch.Count()
	}
	return c
}

// Child returns the direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	i := slices.IndexFunc(n.Children, func(c *Node) bool { return c.Name == name })
	if i < 0 {
		return nil
	}
	return n.Children[i]
}

// Clone returns a deep copy of the subtree. Data maps are copied one level
// deep; nested values are shared.
func (n *Node) Clone() *Node {
	c := &Node{Name: n.Name}
	if n.Data != nil {
		c.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			c.Data[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Payload is the inspectable part of a node: its name and data without the
// children.
type Payload struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// Payload returns the node's name and data.
func (n *Node) Payload() Payload {
	return Payload{Name: n.Name, Data: n.Data}
}

// MarshalPayload serializes the node payload as two-space indented JSON.
// Map keys are sorted, so the output is stable.
func (n *Node) MarshalPayload() ([]byte, error) {
	return json.MarshalIndent(n.Payload(), "", "  ")
}
