package layout

import (
	"math"
	"slices"
)

type anchorKind int

const (
	anchorParent anchorKind = iota
	anchorSibling
	anchorSpouse
	anchorChild
)

func (k anchorKind) String() string {
	switch k {
	case anchorParent:
		return "parent"
	case anchorSibling:
		return "sibling"
	case anchorSpouse:
		return "spouse"
	default:
		return "child"
	}
}

// completeCoverage places every person the primary stages left out. The
// unplaced persons are split into connected clusters; each cluster is laid
// out on its own and docked next to a placed relative, or appended at the
// right edge when it has none. Each cluster is handled exactly once.
func (p *placer) completeCoverage() {
	unplaced := p.unplaced()
	if len(unplaced) == 0 {
		return
	}
	for _, cluster := range p.clustersOf(unplaced) {
		p.clusters++
		origin := p.clusters
		if m, a, kind, ok := p.findAnchor(cluster); ok {
			p.anchored++
			p.cfg.logger.Debug("anchored cluster", "size", len(cluster), "member", m, "anchor", a, "via", kind)
			p.placeAnchored(cluster, m, a, kind, origin)
			continue
		}
		p.detached++
		p.cfg.logger.Debug("detached cluster", "size", len(cluster), "first", cluster[0])
		p.placeDetached(cluster, origin)
	}
}

// clustersOf partitions ids into components connected by parent, child,
// sibling or partner links among ids. Clusters and their members are sorted.
func (p *placer) clustersOf(ids []string) [][]string {
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}
	seen := make(map[string]bool, len(ids))
	var out [][]string
	for _, start := range ids {
		if seen[start] {
			continue
		}
		seen[start] = true
		cluster := []string{start}
		for queue := []string{start}; len(queue) > 0; {
			id := queue[0]
			queue = queue[1:]
			for _, n := range p.neighbors(id) {
				if in[n] && !seen[n] {
					seen[n] = true
					cluster = append(cluster, n)
					queue = append(queue, n)
				}
			}
		}
		slices.Sort(cluster)
		out = append(out, cluster)
	}
	return out
}

func (p *placer) neighbors(id string) []string {
	var out []string
	out = append(out, p.adj.parents[id]...)
	out = append(out, p.adj.children[id]...)
	out = append(out, p.adj.siblings(id)...)
	for _, s := range p.adj.spouses[id] {
		out = append(out, s.id)
	}
	return out
}

func (p *placer) relatives(id string, kind anchorKind) []string {
	switch kind {
	case anchorParent:
		return p.adj.parents[id]
	case anchorSibling:
		return p.adj.siblings(id)
	case anchorSpouse:
		out := make([]string, len(p.adj.spouses[id]))
		for i, s := range p.adj.spouses[id] {
			out[i] = s.id
		}
		return out
	default:
		return p.adj.children[id]
	}
}

// findAnchor returns the first cluster member with a placed relative,
// preferring parents, then siblings, then partners, then children.
func (p *placer) findAnchor(cluster []string) (member, anchor string, kind anchorKind, ok bool) {
	for _, k := range []anchorKind{anchorParent, anchorSibling, anchorSpouse, anchorChild} {
		for _, m := range cluster {
			for _, a := range p.relatives(m, k) {
				if p.placed(a) {
					return m, a, k, true
				}
			}
		}
	}
	return "", "", 0, false
}

// subLayout lays out the cluster on its own, with root on row 0.
func (p *placer) subLayout(cluster []string, root string) *placer {
	sub := newPlacer(p.adj.restrict(cluster), p.cfg)
	sub.placeLineage(root, 0)
	sub.placeDescendants()
	sub.resolveCollisions()
	sub.completeCoverage()
	sub.resolveCollisions()
	return sub
}

// cellsFrom converts a sub-layout to cells with rows offset by drow.
func cellsFrom(sub *placer, drow int) []cell {
	ids := sub.placedIDs()
	cells := make([]cell, len(ids))
	for i, id := range ids {
		pt := sub.pos[id]
		cells[i] = cell{id: id, x: pt.X, row: pt.Row + drow}
	}
	return cells
}

func (p *placer) placeAnchored(cluster []string, m, a string, kind anchorKind, origin int) {
	sub := p.subLayout(cluster, m)
	ap := p.pos[a]
	rm := ap.Row
	switch kind {
	case anchorParent:
		rm++
	case anchorChild:
		rm--
	}
	cells := cellsFrom(sub, rm)
	step := p.slot() / 2
	kmax := p.mergeBound(cells)

	var dx float64
	found := false
	switch kind {
	case anchorParent, anchorChild:
		// Directly below or above the anchor, then outwards.
		base := ap.X - sub.pos[m].X
		dx, found = p.firstFit(cells, kmax, func(k int) []float64 {
			if k == 0 {
				return []float64{base}
			}
			d := float64(k) * step
			return []float64{base - d, base + d}
		})
	default:
		// Beside the anchor's group on its row, left side first.
		gmin, gmax := p.groupExtent(a)
		smin, smax := math.Inf(1), math.Inf(-1)
		for _, c := range cells {
			if c.row == rm {
				smin, smax = math.Min(smin, c.x), math.Max(smax, c.x)
			}
		}
		left := gmin - p.slot() - smax
		right := gmax + p.slot() - smin
		dx, found = p.firstFit(cells, kmax, func(k int) []float64 {
			d := float64(k) * step
			return []float64{left - d, right + d}
		})
	}
	if !found {
		p.placeAtEdge(cells, origin)
		return
	}
	p.commitCluster(cells, dx, origin)
}

// placeDetached lays out a cluster with no placed relative, seeded at its
// oldest member on the root's row.
func (p *placer) placeDetached(cluster []string, origin int) {
	seeds := slices.Clone(cluster)
	p.adj.sortByAge(seeds)
	sub := p.subLayout(cluster, seeds[0])
	p.placeAtEdge(cellsFrom(sub, 0), origin)
}

// placeAtEdge appends cells two slots right of everything placed so far.
func (p *placer) placeAtEdge(cells []cell, origin int) {
	bmin := math.Inf(1)
	for _, c := range cells {
		bmin = math.Min(bmin, c.x)
	}
	_, emax, ok := p.extent(p.rowKeys())
	if !ok {
		p.commitCluster(cells, p.cfg.referenceX-bmin, origin)
		return
	}
	p.commitCluster(cells, emax+2*p.slot()-bmin, origin)
}

func (p *placer) commitCluster(cells []cell, dx float64, origin int) {
	p.commit(cells, dx)
	for _, c := range cells {
		p.origin[c.id] = origin
	}
}

// firstFit tries the candidate shifts of k = 0..kmax in order.
func (p *placer) firstFit(cells []cell, kmax int, cands func(k int) []float64) (float64, bool) {
	for k := 0; k <= kmax; k++ {
		for _, dx := range cands(k) {
			if p.fits(cells, dx) {
				return dx, true
			}
		}
	}
	return 0, false
}

// mergeBound returns a step count after which a cluster shifted from any
// docking position clears every placed node on its rows.
func (p *placer) mergeBound(cells []cell) int {
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
	// Docking positions lie within one block width of the placed extent.
	span := (emax - emin) + 2*(bmax-bmin) + 4*p.slot()
	return int(math.Ceil(span/(p.slot()/2))) + 1
}

// groupExtent returns the range of the run of nodes around id on its row in
// which neighbors are at most one slot apart.
func (p *placer) groupExtent(id string) (float64, float64) {
	row := p.pos[id].Row
	ids := slices.Clone(p.rows[row])
	p.sortByX(ids)
	i := slices.Index(ids, id)
	lo, hi := i, i
	for lo > 0 && p.pos[ids[lo]].X-p.pos[ids[lo-1]].X <= p.slot()+eps {
		lo--
	}
	for hi < len(ids)-1 && p.pos[ids[hi+1]].X-p.pos[ids[hi]].X <= p.slot()+eps {
		hi++
	}
	return p.pos[ids[lo]].X, p.pos[ids[hi]].X
}

func (p *placer) rowKeys() []int {
	rows := make([]int, 0, len(p.rows))
	for r := range p.rows {
		rows = append(rows, r)
	}
	return rows
}
