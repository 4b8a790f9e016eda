package pipeline

import (
	"bytes"

	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
)

// Parse decodes and validates a tree document.
func Parse(data []byte, format graph.Format) (family.Tree, error) {
	t, err := graph.ReadTree(bytes.NewReader(data), format)
	if err != nil {
		return family.Tree{}, err
	}
	if err := t.Validate(); err != nil {
		return family.Tree{}, err
	}
	return t, nil
}

// ParseFile reads and validates a tree file; the format comes from the
// file extension.
func ParseFile(path string) (family.Tree, error) {
	t, err := graph.ReadTreeFile(path)
	if err != nil {
		return family.Tree{}, err
	}
	if err := t.Validate(); err != nil {
		return family.Tree{}, err
	}
	return t, nil
}
