package layout

import "slices"

// resolveCollisions sweeps every row left to right and pushes a node, and
// everything right of it, when it sits closer than one slot to its left
// neighbor. Sweeps repeat until nothing moves or the pass budget runs out.
// It returns the number of passes run and whether the rows converged.
func (p *placer) resolveCollisions() (int, bool) {
	rows := make([]int, 0, len(p.rows))
	for r := range p.rows {
		rows = append(rows, r)
	}
	slices.Sort(rows)

	for pass := 1; pass <= p.cfg.maxPasses; pass++ {
		moved := false
		for _, r := range rows {
			if p.sweepRow(r) {
				moved = true
			}
		}
		if !moved {
			return pass, true
		}
	}
	return p.cfg.maxPasses, false
}

func (p *placer) sweepRow(r int) bool {
	ids := slices.Clone(p.rows[r])
	p.sortByX(ids)

	moved := false
	for i := 1; i < len(ids); i++ {
		gap := p.pos[ids[i]].X - p.pos[ids[i-1]].X
		if gap >= p.slot()-eps {
			continue
		}
		deficit := p.slot() - gap
		for _, id := range ids[i:] {
			pt := p.pos[id]
			pt.X = snap(pt.X + deficit)
			p.pos[id] = pt
		}
		moved = true
	}
	return moved
}
