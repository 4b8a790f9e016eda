package layout

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

type point struct {
	X   float64 // node center
	Row int     // generation row, 0 is the root's row
}

// placer is the mutable state of one layout run. Stages receive it
// explicitly and nothing outlives the call to Build.
type placer struct {
	adj  *adjacency
	cfg  *config
	pos  map[string]point
	rows map[int][]string

	// origin identifies the block a node was laid out in: 0 for the primary
	// lineage and descendants, n for the n-th coverage cluster.
	origin map[string]int

	famDone  map[string]bool
	pairDone map[string]bool
	clusters int
	anchored int
	detached int
}

func newPlacer(adj *adjacency, cfg *config) *placer {
	return &placer{
		adj:      adj,
		cfg:      cfg,
		pos:      make(map[string]point, len(adj.ids)),
		rows:     make(map[int][]string),
		origin:   make(map[string]int, len(adj.ids)),
		famDone:  make(map[string]bool),
		pairDone: make(map[string]bool),
	}
}

func (p *placer) slot() float64 { return p.cfg.metrics.SlotWidth }

func (p *placer) placed(id string) bool {
	_, ok := p.pos[id]
	return ok
}

// set places an unplaced id. Placed ids are never moved by set.
func (p *placer) set(id string, x float64, row int) {
	if p.placed(id) {
		return
	}
	p.pos[id] = point{X: snap(x), Row: row}
	p.rows[row] = append(p.rows[row], id)
}

// cell is a tentative position.
type cell struct {
	id  string
	x   float64
	row int
}

// fits reports whether all cells, shifted by dx, keep a full slot of
// distance to every placed node on their rows.
func (p *placer) fits(cells []cell, dx float64) bool {
	gap := p.slot() - eps
	for _, c := range cells {
		x := snap(c.x + dx)
		for _, id := range p.rows[c.row] {
			if id == c.id {
				continue
			}
			if math.Abs(p.pos[id].X-x) < gap {
				return false
			}
		}
	}
	return true
}

// extent returns the horizontal range of placed nodes on the given rows.
func (p *placer) extent(rows []int) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		for _, id := range p.rows[r] {
			x := p.pos[id].X
			lo, hi = math.Min(lo, x), math.Max(hi, x)
			ok = true
		}
	}
	return lo, hi, ok
}

// searchBound returns the number of half-slot steps after which a shifted
// block is guaranteed to clear every placed node on its rows.
func (p *placer) searchBound(cells []cell) int {
	if len(cells) == 0 {
		return 0
	}
	rows := make([]int, 0, len(cells))
	bmin, bmax := math.Inf(1), math.Inf(-1)
	for _, c := range cells {
		rows = append(rows, c.row)
		bmin, bmax = math.Min(bmin, c.x), math.Max(bmax, c.x)
	}
	emin, emax, ok := p.extent(rows)
	if !ok {
		return 0
	}
	step := p.slot() / 2
	span := math.Max(math.Max(bmax-(emin-p.slot()), (emax+p.slot())-bmin), 0)
	return int(math.Ceil(span/step)) + 1
}

// searchShift finds the nearest horizontal shift, in half-slot steps, at
// which cells fit. dir < 0 only searches leftwards, dir > 0 rightwards and
// dir == 0 alternates with ties going left.
func (p *placer) searchShift(cells []cell, dir int) float64 {
	step := p.slot() / 2
	kmax := p.searchBound(cells)
	for k := 0; k <= kmax; k++ {
		var cands []float64
		switch {
		case k == 0:
			cands = []float64{0}
		case dir < 0:
			cands = []float64{-float64(k)}
		case dir > 0:
			cands = []float64{float64(k)}
		default:
			cands = []float64{-float64(k), float64(k)}
		}
		for _, c := range cands {
			if p.fits(cells, c*step) {
				return c * step
			}
		}
	}
	if dir < 0 {
		return -float64(kmax) * step
	}
	return float64(kmax) * step
}

// rowCells lays ids out left to right, one slot apart, with the index-th id at x.
func (p *placer) rowCells(ids []string, index int, x float64, row int) []cell {
	cells := make([]cell, len(ids))
	for i, id := range ids {
		cells[i] = cell{id: id, x: x + float64(i-index)*p.slot(), row: row}
	}
	return cells
}

// commit places every unplaced cell shifted by dx.
func (p *placer) commit(cells []cell, dx float64) {
	for _, c := range cells {
		p.set(c.id, c.x+dx, c.row)
	}
}

// unit expands id with its unplaced partners: former partners to the left,
// current ones to the right. Partners listed in claimed are skipped and
// newly used partners are added to it.
func (p *placer) unit(id string, claimed map[string]bool) []string {
	var exes, actives []string
	for _, s := range p.adj.spouses[id] {
		if p.placed(s.id) || claimed[s.id] {
			continue
		}
		claimed[s.id] = true
		if s.divorced {
			exes = append(exes, s.id)
		} else {
			actives = append(actives, s.id)
		}
	}
	out := append(exes, id)
	return append(out, actives...)
}

// expand applies unit to every id in order.
func (p *placer) expand(ids []string, claimed map[string]bool) []string {
	for _, id := range ids {
		claimed[id] = true
	}
	var out []string
	for _, id := range ids {
		out = append(out, p.unit(id, claimed)...)
	}
	return out
}

// placedIDs returns the placed ids ordered by row, position and id.
func (p *placer) placedIDs() []string {
	ids := make([]string, 0, len(p.pos))
	for id := range p.pos {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		pa, pb := p.pos[a], p.pos[b]
		if pa.Row != pb.Row {
			return pa.Row - pb.Row
		}
		if c := cmp.Compare(pa.X, pb.X); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return ids
}

func (p *placer) unplaced() []string {
	var out []string
	for _, id := range p.adj.ids {
		if !p.placed(id) {
			out = append(out, id)
		}
	}
	return out
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// sortByX orders ids by position, then id.
func (p *placer) sortByX(ids []string) {
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(p.pos[a].X, p.pos[b].X); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}
