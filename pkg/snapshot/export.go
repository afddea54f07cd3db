package snapshot

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/matzehuels/atomtree/pkg/tree"
)

// WriteTree encodes root as indented JSON.
func WriteTree(root *tree.Node, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadTree decodes a tree written by WriteTree.
func ReadTree(r io.Reader) (*tree.Node, error) {
	var root tree.Node
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &root, nil
}
