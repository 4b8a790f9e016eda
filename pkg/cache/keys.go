package cache

import "strings"

// Key prefixes, also used as the keyType reported to cache hooks.
const (
	KindTree     = "tree"
	KindLayout   = "layout"
	KindArtifact = "artifact"
)

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// TreeKey keys a stored tree by id.
	TreeKey(treeID string) string

	// LayoutKey keys a layout computed from a tree with the given hash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact of a layout with the given hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists every option that changes a layout.
type LayoutKeyOpts struct {
	RootID     string  `json:"root_id"`
	NodeWidth  float64 `json:"node_width"`
	NodeHeight float64 `json:"node_height"`
	SlotWidth  float64 `json:"slot_width"`
	RowHeight  float64 `json:"row_height"`
	Margin     float64 `json:"margin"`
	Padding    float64 `json:"padding"`
	ReferenceX float64 `json:"reference_x"`
	MaxPasses  int     `json:"max_passes"`
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	VizType  string  `json:"viz_type"`
	Format   string  `json:"format"`
	Style    string  `json:"style"`
	Scale    float64 `json:"scale"`
	Detailed bool    `json:"detailed"`
}

// DefaultKeyer hashes key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) TreeKey(treeID string) string {
	return KindTree + ":" + treeID
}

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey(KindLayout, treeHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(KindArtifact, layoutHash, opts)
}

// KindOf returns the stage prefix of a key produced by a Keyer, ignoring
// any scope prefix.
func KindOf(key string) string {
	for _, kind := range []string{KindTree, KindLayout, KindArtifact} {
		if strings.HasPrefix(key, kind+":") || strings.Contains(key, ":"+kind+":") {
			return kind
		}
	}
	return "other"
}
