package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Root:     "ann",
		Canvas:   graph.Canvas{Width: 7, Height: 5},
		NodeSize: graph.Size{Width: 2, Height: 1},
		Nodes: []graph.Node{
			{ID: "bob", Label: "Bob", Gender: "male", Years: "1950-2001", Deceased: true, Left: 1, Top: 1},
			{ID: "eve", Label: "Eve & Co", Gender: "female", Left: 4, Top: 1, HasSubTree: true},
			{ID: "ann", Label: "Ann", Gender: "female", Left: 2.5, Top: 3, Generation: 1},
		},
		Connectors: [][4]float64{{3, 1.5, 4, 1.5}, {3.5, 1.5, 3.5, 3}},
		Dashed:     []int{0},
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(sampleLayout()))

	checks := []struct {
		name string
		want string
	}{
		{"viewBox", `viewBox="0 0 336.0 240.0"`},
		{"card position", `id="card-ann" class="card" x="120.0" y="144.0" width="96.0" height="48.0"`},
		{"dashed bar", `x1="144.0" y1="72.0" x2="192.0" y2="72.0" stroke="#555555" stroke-width="2" stroke-dasharray="6 4"`},
		{"solid drop", `x1="168.0" y1="72.0" x2="168.0" y2="144.0" stroke="#555555" stroke-width="2"/>`},
		{"escaped label", `Eve &amp; Co`},
		{"years", `1950-2001`},
		{"subtree badge", `class="subtree"`},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(svg, tt.want) {
				t.Errorf("SVG missing %s", tt.want)
			}
		})
	}
	if n := strings.Count(svg, `class="connector"`); n != 2 {
		t.Errorf("got %d connectors, want 2", n)
	}
	if n := strings.Count(svg, `stroke-dasharray`); n != 1 {
		t.Errorf("got %d dashed connectors, want 1", n)
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("SVG not terminated")
	}
}

func TestWithScale(t *testing.T) {
	svg := string(RenderSVG(sampleLayout(), WithScale(10)))
	if !strings.Contains(svg, `viewBox="0 0 70.0 50.0"`) {
		t.Error("WithScale(10) should size the canvas at 10px per unit")
	}
	svg = string(RenderSVG(sampleLayout(), WithScale(-1)))
	if !strings.Contains(svg, `viewBox="0 0 336.0 240.0"`) {
		t.Error("non-positive scale should be ignored")
	}
}

func TestRenderSVGDeterministic(t *testing.T) {
	l := sampleLayout()
	a := RenderSVG(l)
	l.Nodes[0], l.Nodes[2] = l.Nodes[2], l.Nodes[0]
	b := RenderSVG(l)
	if string(a) != string(b) {
		t.Error("node order should not change output")
	}
}

func TestClassicStyle(t *testing.T) {
	svg := string(RenderSVG(sampleLayout(), WithStyle(Classic{})))
	for _, want := range []string{`url(#parchment)`, `† 1950-2001`, `serif`, `stroke-dasharray="6 4"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("classic SVG missing %s", want)
		}
	}
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		name    string
		want    Style
		wantErr bool
	}{
		{"", Simple{}, false},
		{graph.StyleSimple, Simple{}, false},
		{graph.StyleClassic, Classic{}, false},
		{"handdrawn", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StyleFor(tt.name)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidStyle) {
					t.Errorf("StyleFor(%q) error = %v, want INVALID_STYLE", tt.name, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("StyleFor(%q) = %v, %v", tt.name, got, err)
			}
		})
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := truncateLabel("Bob", 100, 10); got != "Bob" {
		t.Errorf("short label changed: %q", got)
	}
	got := truncateLabel("Bartholomew Aloysius Featherstonehaugh", 40, 10)
	if !strings.HasSuffix(got, "..") || len([]rune(got)) > 6 {
		t.Errorf("long label not truncated: %q", got)
	}
}

func TestLabelSizeCountsRunes(t *testing.T) {
	card := Card{W: 120, H: 60, CX: 60, CY: 30}
	render := func(label string) string {
		var buf bytes.Buffer
		c := card
		c.Label = label
		renderLabels(&buf, c, "serif", "#000")
		return buf.String()
	}
	fontAttr := func(svg string) string {
		i := strings.Index(svg, `font-size="`)
		if i < 0 {
			t.Fatalf("no font-size in %q", svg)
		}
		rest := svg[i:]
		return rest[:strings.Index(rest[len(`font-size="`):], `"`)+len(`font-size="`)]
	}

	tests := []struct {
		name, latin, other string
	}{
		{"cyrillic", "Ivan Petrov", "Иван Петров"},
		{"uzbek", "Oybek", "Ойбек"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := fontAttr(render(tt.other)), fontAttr(render(tt.latin)); got != want {
				t.Errorf("%q rendered with %s, want %s like %q", tt.other, got, want, tt.latin)
			}
		})
	}
}
