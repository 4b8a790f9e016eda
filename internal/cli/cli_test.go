package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/lineage/internal/config"
	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
)

func sampleTree() family.Tree {
	return family.Tree{
		Name:         "Smith",
		RootPersonID: "ann",
		Persons: []family.Person{
			{ID: "bob", Name: "Bob", Gender: family.GenderMale, Birth: family.Year(1950), Death: family.Year(2001)},
			{ID: "eve", Name: "Eve", Gender: family.GenderFemale, Birth: family.Year(1952)},
			{ID: "ann", Name: "Ann", Gender: family.GenderFemale, Birth: family.Year(1980)},
			{ID: "joe", Name: "Joe", Gender: family.GenderMale, Birth: family.Year(1983)},
		},
		Relationships: []family.Relationship{
			family.Couple("bob", "eve", family.StatusWidowed),
			family.ParentChild("bob", "ann"),
			family.ParentChild("eve", "ann"),
			family.ParentChild("bob", "joe"),
			family.ParentChild("eve", "joe"),
		},
	}
}

// testEnv isolates config, cache and store directories and captures output.
type testEnv struct {
	dir    string
	output *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(config.EnvStorePath, filepath.Join(dir, "trees"))
	t.Setenv(config.EnvMongoURI, "")
	t.Setenv(config.EnvRedisAddr, "")

	buf := &bytes.Buffer{}
	prev := out
	out = buf
	t.Cleanup(func() { out = prev })
	return &testEnv{dir: dir, output: buf}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *testEnv) writeTree(t *testing.T, name string) string {
	t.Helper()
	p := e.path(name)
	if err := graph.WriteTreeFile(sampleTree(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *testEnv) run(args ...string) error {
	e.output.Reset()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func readLayout(t *testing.T, path string) graph.Layout {
	t.Helper()
	l, err := graph.ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("read layout %s: %v", path, err)
	}
	return l
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,json", []string{"svg", "json"}},
		{" svg , dot ,", []string{"svg", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !cmp.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		vizType string
		formats []string
		want    map[string]string
	}{
		{"single with output", "tree.yaml", "chart.svg", "chart", []string{"svg"}, map[string]string{"svg": "chart.svg"}},
		{"single derived", "dir/tree.yaml", "", "chart", []string{"svg"}, map[string]string{"svg": "dir/tree.svg"}},
		{"json never clobbers tree", "tree.json", "", "chart", []string{"svg", "json"},
			map[string]string{"svg": "tree.svg", "json": "tree.layout.json"}},
		{"from layout file", "tree.layout.json", "", "chart", []string{"svg"}, map[string]string{"svg": "tree.svg"}},
		{"output as base", "tree.yaml", "out/fam.svg", "chart", []string{"svg", "json"},
			map[string]string{"svg": "out/fam.svg", "json": "out/fam.layout.json"}},
		{"nodelink suffix", "tree.yaml", "", "nodelink", []string{"dot", "png"},
			map[string]string{"dot": "tree.nodelink.dot", "png": "tree.nodelink.png"}},
		{"stored id", "smith", "", "chart", []string{"svg"}, map[string]string{"svg": "smith.svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.input, tt.output, tt.vizType, tt.formats)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("outputPaths mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLayoutCommand(t *testing.T) {
	env := newTestEnv(t)
	tree := env.writeTree(t, "smith.yaml")

	if err := env.run("layout", tree); err != nil {
		t.Fatalf("layout: %v", err)
	}
	l := readLayout(t, env.path("smith.layout.json"))
	if l.Root != "ann" || len(l.Nodes) != 4 {
		t.Errorf("layout root=%q nodes=%d", l.Root, len(l.Nodes))
	}
	if !strings.Contains(env.output.String(), "fresh") {
		t.Errorf("first run should be computed: %q", env.output.String())
	}

	if err := env.run("layout", tree); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.output.String(), "cached") {
		t.Errorf("second run should hit the cache: %q", env.output.String())
	}

	custom := env.path("joe.json")
	if err := env.run("layout", tree, "--root", "joe", "-o", custom, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if l := readLayout(t, custom); l.Root != "joe" {
		t.Errorf("--root joe gave root %q", l.Root)
	}

	if err := env.run("layout", tree, "--root", "zed"); err == nil {
		t.Error("unknown --root should fail")
	}
	if err := env.run("layout", env.path("missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	tree := env.writeTree(t, "smith.yaml")

	if err := env.run("render", tree, "-f", "svg,json", "--style", "classic"); err != nil {
		t.Fatalf("render: %v", err)
	}
	svg, err := os.ReadFile(env.path("smith.svg"))
	if err != nil || !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Fatalf("smith.svg: %v %.20q", err, svg)
	}
	layoutPath := env.path("smith.layout.json")
	readLayout(t, layoutPath)

	chart := env.path("chart.svg")
	if err := env.run("render", layoutPath, "-o", chart, "--style", "classic"); err != nil {
		t.Fatalf("render layout: %v", err)
	}
	fromLayout, err := os.ReadFile(chart)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(svg, fromLayout) {
		t.Error("rendering the layout file should match rendering the tree")
	}

	if err := env.run("render", tree, "-t", "nodelink", "-f", "dot"); err != nil {
		t.Fatalf("render nodelink: %v", err)
	}
	dot, err := os.ReadFile(env.path("smith.nodelink.dot"))
	if err != nil || !bytes.Contains(dot, []byte("digraph")) {
		t.Errorf("smith.nodelink.dot: %v", err)
	}

	failures := [][]string{
		{"render", layoutPath, "-t", "nodelink", "-f", "dot"},
		{"render", layoutPath, "--root", "bob"},
		{"render", tree, "-f", "png"},
		{"render", tree, "--style", "neon"},
		{"render", tree, "-t", "tower"},
	}
	for _, args := range failures {
		if err := env.run(args...); err == nil {
			t.Errorf("%v should fail", args[2:])
		}
	}
}

func TestStoreCommands(t *testing.T) {
	env := newTestEnv(t)
	tree := env.writeTree(t, "smith.yaml")

	if err := env.run("store", "list"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.output.String(), "No stored trees") {
		t.Errorf("empty list output: %q", env.output.String())
	}

	if err := env.run("store", "import", tree, "--id", "smith"); err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := env.run("store", "list"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"smith", "Smith", "ann", "4"} {
		if !strings.Contains(env.output.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, env.output.String())
		}
	}

	if err := env.run("store", "export", "smith"); err != nil {
		t.Fatal(err)
	}
	exported, err := graph.UnmarshalTree(env.output.Bytes(), graph.FormatYAML)
	if err != nil {
		t.Fatalf("export is not a YAML tree: %v", err)
	}
	if exported.RootPersonID != "ann" || len(exported.Persons) != 4 {
		t.Errorf("exported tree = %+v", exported)
	}

	stored := env.path("stored.layout.json")
	if err := env.run("layout", "smith", "-o", stored); err != nil {
		t.Fatalf("layout of stored tree: %v", err)
	}
	if l := readLayout(t, stored); l.Root != "ann" {
		t.Errorf("stored layout root = %q", l.Root)
	}

	if err := env.run("store", "delete", "smith"); err != nil {
		t.Fatal(err)
	}
	if err := env.run("store", "export", "smith"); err == nil {
		t.Error("export after delete should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	tree := env.writeTree(t, "smith.yaml")

	if err := env.run("cache", "path"); err != nil {
		t.Fatal(err)
	}
	if got, want := strings.TrimSpace(env.output.String()), env.path(filepath.Join("cache", "lineage")); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	if err := env.run("layout", tree); err != nil {
		t.Fatal(err)
	}
	if err := env.run("cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.output.String(), "Cleared 1 cached entries") {
		t.Errorf("cache clear output: %q", env.output.String())
	}
}

func TestConfigFlag(t *testing.T) {
	env := newTestEnv(t)

	bad := env.path("bad.toml")
	if err := os.WriteFile(bad, []byte("[store]\nbackend = \"postgres\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := env.run("--config", bad, "store", "list"); err == nil {
		t.Error("invalid config should fail")
	}

	sqlite := env.path("sqlite.toml")
	content := "[store]\nbackend = \"sqlite\"\npath = \"" + filepath.ToSlash(env.path("trees.db")) + "\"\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(sqlite, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvStorePath, "")
	tree := env.writeTree(t, "smith.yaml")
	if err := env.run("--config", sqlite, "store", "import", tree, "--id", "smith"); err != nil {
		t.Fatalf("sqlite import: %v", err)
	}
	if _, err := os.Stat(env.path("trees.db")); err != nil {
		t.Errorf("sqlite database not created: %v", err)
	}
}
