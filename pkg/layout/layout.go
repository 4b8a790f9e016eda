package layout

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/lineage/pkg/family"
)

// Node is a placed person. Left and Top are the top-left corner in grid units.
type Node struct {
	ID         string
	Left       float64
	Top        float64
	Generation int // row relative to the root, ancestors negative

	// HasSubTree marks a person whose parents or siblings were laid out in a
	// different block, so the branch continues elsewhere on the canvas.
	HasSubTree bool
}

// Connector is one straight line segment.
type Connector struct {
	X1, Y1, X2, Y2 float64
	Dashed         bool // bar of a divorced or widowed couple
}

// Horizontal reports whether the segment is a horizontal bar.
func (c Connector) Horizontal() bool { return c.Y1 == c.Y2 }

// Canvas is the size of the drawing area in grid units.
type Canvas struct {
	Width  float64
	Height float64
}

// Stats describes a layout run.
type Stats struct {
	Persons           int
	LineagePlaced     int
	DescendantsPlaced int
	CoveragePlaced    int
	Clusters          int
	AnchoredClusters  int
	DetachedClusters  int
	ResolvePasses     int
	Converged         bool
	RowDrift          int // reachable persons whose row differs from their BFS generation
	Duration          time.Duration
}

// Result is the output of [Build].
type Result struct {
	Root       string
	Metrics    Metrics // grid the result was computed on
	Canvas     Canvas
	Nodes      []Node
	Connectors []Connector
	Stats      Stats
}

// Node returns the node with the given id.
func (r Result) Node(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Build lays out a family tree. It never fails: unknown references are
// dropped, a missing root falls back to the first person by id and persons
// unreachable from the root are still placed.
func Build(t family.Tree, opts ...Option) Result {
	start := time.Now()
	cfg := newConfig(opts)
	adj := buildAdjacency(t.Persons, t.Relationships)
	if len(adj.ids) == 0 {
		m := cfg.metrics
		return Result{Metrics: m, Canvas: Canvas{Width: 2 * m.Margin, Height: 2 * m.Margin}, Stats: Stats{Converged: true}}
	}

	root := t.RootPersonID
	if !adj.has(root) {
		if root != "" {
			cfg.logger.Warn("root person not in tree, using first person", "root", root, "fallback", adj.ids[0])
		}
		root = adj.ids[0]
	}
	gen, reached := assignGenerations(adj, root)

	p := newPlacer(adj, cfg)
	stats := Stats{Persons: len(adj.ids)}

	p.placeLineage(root, cfg.referenceX)
	stats.LineagePlaced = len(p.pos)
	p.placeDescendants()
	stats.DescendantsPlaced = len(p.pos) - stats.LineagePlaced
	passes, ok := p.resolveCollisions()

	p.completeCoverage()
	stats.CoveragePlaced = len(p.pos) - stats.LineagePlaced - stats.DescendantsPlaced
	more, ok2 := p.resolveCollisions()

	stats.ResolvePasses = passes + more
	stats.Converged = ok && ok2
	stats.Clusters = p.clusters
	stats.AnchoredClusters = p.anchored
	stats.DetachedClusters = p.detached
	stats.RowDrift = p.rowDrift(gen, reached)
	if !stats.Converged {
		cfg.logger.Warn("collision resolution did not converge", "passes", stats.ResolvePasses, "budget", cfg.maxPasses)
	}

	nodes, canvas := p.normalize()
	res := Result{
		Root:       root,
		Metrics:    cfg.metrics,
		Canvas:     canvas,
		Nodes:      nodes,
		Connectors: connect(adj, nodes, cfg.metrics),
	}
	stats.Duration = time.Since(start)
	res.Stats = stats

	cfg.logger.Debug("layout complete",
		"persons", stats.Persons,
		"unreached", len(adj.ids)-len(reached),
		"lineage", stats.LineagePlaced,
		"descendants", stats.DescendantsPlaced,
		"coverage", stats.CoveragePlaced,
		"clusters", stats.Clusters,
		"passes", stats.ResolvePasses,
		"row_drift", stats.RowDrift,
		"connectors", len(res.Connectors),
		"duration", stats.Duration)
	return res
}

// normalize converts centers and rows to top-left grid coordinates with the
// top-left node at the margin, and sizes the canvas around them.
func (p *placer) normalize() ([]Node, Canvas) {
	m := p.cfg.metrics
	minX, minRow := 0.0, 0
	first := true
	for _, pt := range p.pos {
		if first || pt.X < minX {
			minX = pt.X
		}
		if first || pt.Row < minRow {
			minRow = pt.Row
		}
		first = false
	}

	nodes := make([]Node, 0, len(p.pos))
	var canvas Canvas
	for id, pt := range p.pos {
		n := Node{
			ID:         id,
			Left:       pt.X - minX + m.Margin,
			Top:        float64(pt.Row-minRow)*m.RowHeight + m.Margin,
			Generation: pt.Row,
			HasSubTree: p.hasSubTree(id),
		}
		canvas.Width = max(canvas.Width, n.Left+m.NodeWidth+m.Padding)
		canvas.Height = max(canvas.Height, n.Top+m.NodeHeight+m.Padding)
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, compareNodes)
	return nodes, canvas
}

// rowDrift counts reached persons placed on a row other than their BFS
// generation. Rows come from placement; on a consistent tree the two agree.
func (p *placer) rowDrift(gen map[string]int, reached map[string]bool) int {
	n := 0
	for id := range reached {
		if pt, ok := p.pos[id]; ok && pt.Row != gen[id] {
			n++
		}
	}
	return n
}

// hasSubTree reports whether a parent or sibling of id was laid out in a
// different block than id.
func (p *placer) hasSubTree(id string) bool {
	o := p.origin[id]
	for _, r := range p.adj.parents[id] {
		if p.origin[r] != o {
			return true
		}
	}
	for _, s := range p.adj.siblings(id) {
		if p.origin[s] != o {
			return true
		}
	}
	return false
}

func compareNodes(a, b Node) int {
	switch {
	case a.Top != b.Top:
		return cmp.Compare(a.Top, b.Top)
	case a.Left != b.Left:
		return cmp.Compare(a.Left, b.Left)
	}
	return strings.Compare(a.ID, b.ID)
}
