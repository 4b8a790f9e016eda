package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes life years and generation in node labels.
	// When false, only the display name is shown.
	Detailed bool

	// Generations groups persons into ranks. Persons missing from the map
	// are ranked freely by Graphviz.
	Generations map[string]int
}

// GenerationsOf extracts the generation of every node in a layout.
func GenerationsOf(l graph.Layout) map[string]int {
	out := make(map[string]int, len(l.Nodes))
	for _, n := range l.Nodes {
		out[n.ID] = n.Generation
	}
	return out
}

type union struct {
	id       string
	parents  []string
	children []string
	ended    bool
}

// ToDOT converts a tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Relationships that reference unknown persons are skipped.
func ToDOT(t family.Tree, opts Options) string {
	persons := make(map[string]family.Person, len(t.Persons))
	for _, p := range t.Persons {
		persons[p.ID] = p
	}

	unions := collectUnions(t, persons)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, p := range t.Persons {
		attrs := fmtAttrs(p, fmtLabel(p, opts), p.ID == t.RootPersonID)
		fmt.Fprintf(&buf, "  %q [%s];\n", p.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, u := range unions {
		fmt.Fprintf(&buf, "  %q [shape=point, width=0.08, label=\"\"];\n", u.id)
		style := ""
		if u.ended {
			style = " [style=dashed]"
		}
		for _, p := range u.parents {
			fmt.Fprintf(&buf, "  %q -> %q%s;\n", p, u.id, style)
		}
		for _, c := range u.children {
			fmt.Fprintf(&buf, "  %q -> %q;\n", u.id, c)
		}
	}

	if len(opts.Generations) > 0 {
		buf.WriteString("\n")
		writeRanks(&buf, t, opts.Generations)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// collectUnions groups children by their full parent set and adds one union
// per childless couple. Unions are returned in a stable order.
func collectUnions(t family.Tree, persons map[string]family.Person) []*union {
	parentsOf := map[string][]string{}
	for _, r := range t.Relationships {
		if r.Category != family.CategoryParentChild {
			continue
		}
		if _, ok := persons[r.Person1ID]; !ok {
			continue
		}
		if _, ok := persons[r.Person2ID]; !ok {
			continue
		}
		if !slices.Contains(parentsOf[r.Person2ID], r.Person1ID) {
			parentsOf[r.Person2ID] = append(parentsOf[r.Person2ID], r.Person1ID)
		}
	}

	ended := map[string]bool{}
	byKey := map[string]*union{}
	get := func(parents []string) *union {
		slices.Sort(parents)
		key := "u:" + strings.Join(parents, "+")
		u, ok := byKey[key]
		if !ok {
			u = &union{id: key, parents: parents}
			byKey[key] = u
		}
		return u
	}

	for _, r := range t.Relationships {
		if r.Category != family.CategoryCouple {
			continue
		}
		if _, ok := persons[r.Person1ID]; !ok {
			continue
		}
		if _, ok := persons[r.Person2ID]; !ok {
			continue
		}
		u := get([]string{r.Person1ID, r.Person2ID})
		// Any active record keeps the union active.
		if _, seen := ended[u.id]; !seen {
			ended[u.id] = true
		}
		if !r.CoupleStatus.Historical() {
			ended[u.id] = false
		}
	}
	for id, e := range ended {
		byKey[id].ended = e
	}

	for _, p := range t.Persons {
		parents, ok := parentsOf[p.ID]
		if !ok {
			continue
		}
		u := get(slices.Clone(parents))
		u.children = append(u.children, p.ID)
	}

	keys := slices.Sorted(maps.Keys(byKey))
	out := make([]*union, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out
}

func writeRanks(buf *bytes.Buffer, t family.Tree, gens map[string]int) {
	ranks := map[int][]string{}
	for _, p := range t.Persons {
		if g, ok := gens[p.ID]; ok {
			ranks[g] = append(ranks[g], p.ID)
		}
	}
	for _, g := range slices.Sorted(maps.Keys(ranks)) {
		ids := make([]string, len(ranks[g]))
		for i, id := range ranks[g] {
			ids[i] = strconv.Quote(id)
		}
		fmt.Fprintf(buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
	}
}

func fmtLabel(p family.Person, opts Options) string {
	if !opts.Detailed {
		return p.Label()
	}
	parts := []string{p.Label()}
	if p.Birth.Known() || p.Death.Known() {
		parts = append(parts, p.Birth.String()+"-"+p.Death.String())
	}
	if g, ok := opts.Generations[p.ID]; ok {
		parts = append(parts, fmt.Sprintf("gen: %d", g))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(p family.Person, label string, root bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch p.Gender {
	case family.GenderMale:
		attrs = append(attrs, "fillcolor=\"#dbe8f6\"")
	case family.GenderFemale:
		attrs = append(attrs, "fillcolor=\"#f9e0e6\"")
	}
	if !p.IsAlive() {
		attrs = append(attrs, "color=grey40")
	}
	if root {
		attrs = append(attrs, "penwidth=3")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
