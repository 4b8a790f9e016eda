package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
	"github.com/matzehuels/lineage/pkg/observability"
)

func sampleTree() family.Tree {
	return family.Tree{
		ID:           "smith",
		RootPersonID: "ann",
		Persons: []family.Person{
			{ID: "bob", Name: "Bob", Gender: family.GenderMale, Birth: family.Year(1950)},
			{ID: "eve", Name: "Eve", Gender: family.GenderFemale, Birth: family.Year(1952)},
			{ID: "ann", Name: "Ann", Gender: family.GenderFemale, Birth: family.Year(1980)},
			{ID: "joe", Name: "Joe", Gender: family.GenderMale, Birth: family.Year(1983)},
		},
		Relationships: []family.Relationship{
			family.Couple("bob", "eve", family.StatusDivorced),
			family.ParentChild("bob", "ann"),
			family.ParentChild("eve", "ann"),
			family.ParentChild("bob", "joe"),
			family.ParentChild("eve", "joe"),
		},
	}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestValidateVizType(t *testing.T) {
	tests := []struct {
		vizType string
		wantErr bool
	}{
		{"chart", false},
		{"nodelink", false},
		{"tower", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateVizType(tt.vizType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVizType(%q) error = %v, wantErr %v", tt.vizType, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidVizType) {
			t.Errorf("ValidateVizType(%q) code = %v", tt.vizType, errors.GetCode(err))
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		vizType string
		format  string
		wantErr bool
	}{
		{"chart", "svg", false},
		{"chart", "json", false},
		{"chart", "png", true},
		{"chart", "dot", true},
		{"nodelink", "svg", false},
		{"nodelink", "png", false},
		{"nodelink", "dot", false},
		{"nodelink", "json", false},
		{"nodelink", "pdf", true},
		{"chart", "SVG", true}, // case-sensitive
		{"chart", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.vizType+"/"+tt.format, func(t *testing.T) {
			err := ValidateFormat(tt.vizType, tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q, %q) error = %v, wantErr %v", tt.vizType, tt.format, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("code = %v, want INVALID_FORMAT", errors.GetCode(err))
			}
		})
	}

	// Empty slice is valid
	if err := ValidateFormats("chart", nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		style   string
		wantErr bool
	}{
		{"simple", false},
		{"classic", false},
		{"handdrawn", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should validate: %v", err)
	}
	if o.VizType != DefaultVizType || o.Style != DefaultStyle || len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("render defaults = %q %q %v", o.VizType, o.Style, o.Formats)
	}
	if o.ReferenceX != layout.DefaultReferenceX || o.MaxPasses != layout.DefaultMaxResolvePasses || o.Logger == nil {
		t.Errorf("layout defaults = %v %d %v", o.ReferenceX, o.MaxPasses, o.Logger)
	}

	bad := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad root id", Options{RootID: "../x"}, errors.ErrCodeInvalidID},
		{"negative passes", Options{MaxPasses: -1}, errors.ErrCodeInvalidInput},
		{"flat rows", Options{Metrics: &layout.Metrics{NodeWidth: 2, NodeHeight: 1, RowHeight: 1}}, errors.ErrCodeInvalidInput},
		{"png chart", Options{VizType: "chart", Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
		{"bad style", Options{Style: "handdrawn"}, errors.ErrCodeInvalidStyle},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tree, err := Parse([]byte("root: a\npersons:\n  - id: a\n    birth: 1990\n"), graph.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.RootPersonID != "a" || tree.Persons[0].Birth != family.Year(1990) {
		t.Errorf("Parse = %+v", tree)
	}

	_, err = Parse([]byte(`{"persons":[{"id":"a"},{"id":"a"}]}`), graph.FormatJSON)
	if !errors.Is(err, errors.ErrCodeInvalidTree) {
		t.Errorf("duplicate ids: %v, want INVALID_TREE", err)
	}
}

func TestGenerateLayoutRootOverride(t *testing.T) {
	tree := sampleTree()

	l, _, err := GenerateLayout(tree, Options{RootID: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if l.Root != "bob" {
		t.Errorf("Root = %q, want bob", l.Root)
	}

	_, _, err = GenerateLayout(tree, Options{RootID: "zed"})
	if !errors.Is(err, errors.ErrCodePersonNotFound) {
		t.Errorf("unknown root: %v, want PERSON_NOT_FOUND", err)
	}
}

func TestTreeHash(t *testing.T) {
	a := sampleTree()
	b := sampleTree()
	b.ID, b.Name = "copy", "Copy"
	if TreeHash(a) != TreeHash(b) {
		t.Error("id and name should not change the hash")
	}
	b.RootPersonID = "joe"
	if TreeHash(a) == TreeHash(b) {
		t.Error("root should change the hash")
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	defer r.Close()

	opts := Options{Formats: []string{FormatSVG, FormatJSON}}
	first, err := r.Execute(ctx, sampleTree(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit the cache: %+v", first.CacheInfo)
	}
	if first.Stats.Persons != 4 || first.Stats.Nodes != 4 {
		t.Errorf("stats = %+v", first.Stats)
	}
	if !bytes.HasPrefix(first.Artifacts[FormatSVG], []byte("<svg")) {
		t.Error("svg artifact missing")
	}
	decoded, err := graph.UnmarshalLayout(first.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if diff := cmp.Diff(first.Layout, decoded); diff != "" {
		t.Errorf("json artifact differs from layout (-want +got):\n%s", diff)
	}

	second, err := r.Execute(ctx, sampleTree(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed the cache: %+v", second.CacheInfo)
	}
	if diff := cmp.Diff(first.Layout, second.Layout); diff != "" {
		t.Errorf("cached layout differs (-want +got):\n%s", diff)
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, sampleTree(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh run hit the cache: %+v", third.CacheInfo)
	}
}

func TestRunnerRootChangesLayoutKey(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	if _, _, err := r.ComputeLayoutWithCacheInfo(ctx, sampleTree(), Options{}); err != nil {
		t.Fatal(err)
	}
	l, hit, err := r.ComputeLayoutWithCacheInfo(ctx, sampleTree(), Options{RootID: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if hit || l.Root != "bob" {
		t.Errorf("re-rooted layout: hit=%v root=%q", hit, l.Root)
	}
}

func TestRunnerNodelink(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	res, err := r.Execute(ctx, sampleTree(), Options{VizType: graph.VizTypeNodelink, Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	dot := string(res.Artifacts[FormatDOT])
	if !strings.HasPrefix(dot, "digraph G {") || !strings.Contains(dot, `"u:bob+eve" -> "ann";`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}

	// Nodelink output of a bare layout has nothing to draw edges from.
	_, err = RenderFromLayout(ctx, res.Layout, family.Tree{}, Options{VizType: graph.VizTypeNodelink, Formats: []string{FormatDOT}})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nodelink without tree: %v, want INVALID_INPUT", err)
	}
}

func TestRunnerHooks(t *testing.T) {
	counters := observability.NewCounters()
	observability.SetPipelineHooks(counters)
	observability.SetCacheHooks(counters)
	defer observability.Reset()

	ctx := context.Background()
	r := newTestRunner(t)
	for range 2 {
		if _, err := r.Execute(ctx, sampleTree(), Options{}); err != nil {
			t.Fatal(err)
		}
	}

	s := counters.Snapshot()
	if s.Layouts != 2 || s.Renders != 2 {
		t.Errorf("layouts=%d renders=%d, want 2 each", s.Layouts, s.Renders)
	}
	if s.CacheHits[cache.KindLayout] != 1 || s.CacheMisses[cache.KindLayout] != 1 {
		t.Errorf("layout cache hits=%v misses=%v", s.CacheHits, s.CacheMisses)
	}
	if s.CacheHits[cache.KindArtifact] != 1 || s.CacheMisses[cache.KindArtifact] != 1 {
		t.Errorf("artifact cache hits=%v misses=%v", s.CacheHits, s.CacheMisses)
	}
}

func TestExampleTrees(t *testing.T) {
	paths, err := filepath.Glob("../../examples/trees/*")
	if err != nil || len(paths) == 0 {
		t.Fatalf("no example trees: %v", err)
	}

	r := NewRunner(nil, nil, nil)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tree, err := ParseFile(path)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			res, err := r.Execute(context.Background(), tree, Options{Formats: []string{FormatSVG, FormatJSON}})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Layout.Root != tree.RootPersonID {
				t.Errorf("root = %q, want %q", res.Layout.Root, tree.RootPersonID)
			}
			if len(res.Layout.Nodes) != len(tree.Persons) {
				t.Errorf("placed %d of %d persons", len(res.Layout.Nodes), len(tree.Persons))
			}
			if !bytes.HasPrefix(res.Artifacts[FormatSVG], []byte("<svg")) {
				t.Error("svg artifact missing")
			}
		})
	}
}
