package snapshot

import (
	"maps"
	"slices"

	"github.com/matzehuels/atomtree/pkg/cache"
	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/tree"
)

// ValueKey is the data key under which a leaf stores its value.
const ValueKey = "value"

// Snapshot is a decoded state snapshot.
type Snapshot map[string]any

// Hash returns a content hash of the snapshot. Equal snapshots hash equally
// regardless of key order.
func (s Snapshot) Hash() (string, error) {
	h, err := cache.HashJSON(s)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "hash snapshot")
	}
	return h, nil
}

// Len returns the number of top-level entries.
func (s Snapshot) Len() int { return len(s) }

// ToNodes converts a snapshot value into the children of the root node.
// It accepts a Snapshot or a map[string]any.
func ToNodes(v any) ([]*tree.Node, error) {
	var m map[string]any
	switch x := v.(type) {
	case Snapshot:
		m = x
	case map[string]any:
		m = x
	case nil:
		return nil, nil
	default:
		return nil, errors.New(errors.ErrCodeConvertFailed, "unsupported snapshot type %T", v)
	}
	return convertEntries(m)
}

func convertEntries(m map[string]any) ([]*tree.Node, error) {
	nodes := make([]*tree.Node, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		n, err := convert(k, m[k])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func convert(name string, v any) (*tree.Node, error) {
	if err := errors.ValidateNodeName(name); err != nil {
		return nil, err
	}
	if obj, ok := v.(map[string]any); ok && len(obj) > 0 {
		children, err := convertEntries(obj)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConvertFailed, err, "entry %q", name)
		}
		return &tree.Node{Name: name, Children: children}, nil
	}
	return &tree.Node{Name: name, Data: map[string]any{ValueKey: v}}, nil
}
