package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout lays out a tree and converts the result to its
// serialization format. An explicit opts.RootID must name a person in the
// tree; otherwise the tree's own root (or the engine's fallback) is used.
func GenerateLayout(t family.Tree, opts Options) (graph.Layout, layout.Stats, error) {
	if opts.RootID != "" {
		if _, ok := t.Person(opts.RootID); !ok {
			return graph.Layout{}, layout.Stats{}, errors.New(errors.ErrCodePersonNotFound, "root person %q not in tree", opts.RootID)
		}
		t.RootPersonID = opts.RootID
	}
	res := layout.Build(t, opts.LayoutOptions()...)
	return graph.FromResult(res, t), res.Stats, nil
}

// TreeHash is the content hash of everything in t that affects a layout.
// The id, name and timestamp are excluded so that copies of a tree share
// cached layouts.
func TreeHash(t family.Tree) string {
	data, _ := json.Marshal(struct {
		Root          string                `json:"root"`
		Persons       []family.Person       `json:"persons"`
		Relationships []family.Relationship `json:"relationships"`
	}{t.RootPersonID, t.Persons, t.Relationships})
	return cache.Hash(data)
}
