package layout

import (
	"slices"

	"github.com/matzehuels/lineage/pkg/family"
)

// placeLineage places the sibling group of root on row 0, centered at x,
// then the chain of ancestors above it.
func (p *placer) placeLineage(root string, x float64) {
	if p.placed(root) {
		return
	}
	parents := p.adj.primaryParents(root)
	sibs := p.siblingGroup(root, parents)
	ids := p.expand(sibs, make(map[string]bool))
	cells := p.rowCells(ids, 0, 0, 0)
	p.commit(cells, x-float64(len(cells)-1)*p.slot()/2)

	lo, hi := p.pos[ids[0]].X, p.pos[ids[len(ids)-1]].X
	p.placeParentsAbove(root, 0, (lo+hi)/2, 0)
}

// siblingGroup returns the unplaced children shared by parents, always
// including root, in the order [older..., root, younger..., unknown...].
// Siblings born in the same year as root count as older.
func (p *placer) siblingGroup(root string, parents []string) []string {
	var older, younger, unknown []string
	rb := p.adj.persons[root].Birth
	for _, s := range p.adj.sharedChildren(parents) {
		if s == root || p.placed(s) {
			continue
		}
		b := p.adj.persons[s].Birth
		switch {
		case !b.Known():
			unknown = append(unknown, s)
		case rb.Known() && b.Year > rb.Year:
			younger = append(younger, s)
		default:
			older = append(older, s)
		}
	}
	p.adj.sortByAge(older)
	p.adj.sortByAge(younger)
	p.adj.sortByAge(unknown)

	out := append(older, root)
	out = append(out, younger...)
	return append(out, unknown...)
}

// placeParentsAbove places the unplaced primary parents of child on the row
// above, centered at center, each flanked by its own partners and siblings.
// The paternal side extends left and the maternal side right. dir restricts
// the collision search direction; 0 searches both ways.
func (p *placer) placeParentsAbove(child string, row int, center float64, dir int) {
	var parents []string
	for _, id := range p.adj.primaryParents(child) {
		if !p.placed(id) {
			parents = append(parents, id)
		}
	}
	if len(parents) == 0 {
		return
	}

	r := row - 1
	claimed := make(map[string]bool)
	for _, id := range parents {
		claimed[id] = true
	}

	if len(parents) == 2 {
		l, rt := parents[0], parents[1]
		left := p.flank(l, rt, claimed, -1)
		right := p.flank(rt, l, claimed, 1)
		ids := append(slices.Clone(left), right...)
		cells := p.rowCells(ids, len(left)-1, center-p.slot()/2, r)
		dx := p.searchShift(cells, dir)
		p.commit(cells, dx)

		p.placeParentsAbove(l, r, midpoint(cells[:len(left)])+dx, directionOr(dir, -1))
		p.placeParentsAbove(rt, r, midpoint(cells[len(left):])+dx, directionOr(dir, 1))
		return
	}

	parent := parents[0]
	side := -1
	if p.adj.persons[parent].Gender == family.GenderFemale {
		side = 1
	}
	ids := p.flank(parent, "", claimed, side)
	index := 0
	if side < 0 {
		index = len(ids) - 1
	}
	cells := p.rowCells(ids, index, center, r)
	dx := p.searchShift(cells, dir)
	p.commit(cells, dx)
	p.placeParentsAbove(parent, r, midpoint(cells)+dx, directionOr(dir, side))
}

// flank returns id together with its other partners and its siblings laid
// out towards side. Siblings are ordered oldest nearest to id and each is
// expanded with its own partners. For side < 0 the result ends with id,
// otherwise it starts with it.
func (p *placer) flank(id, partner string, claimed map[string]bool, side int) []string {
	var others []string
	for _, s := range p.adj.spouses[id] {
		if s.id == partner || p.placed(s.id) || claimed[s.id] {
			continue
		}
		claimed[s.id] = true
		others = append(others, s.id)
	}

	var sibs []string
	for _, s := range p.adj.sharedChildren(p.adj.primaryParents(id)) {
		if s != id && !p.placed(s) && !claimed[s] {
			sibs = append(sibs, s)
		}
	}
	p.adj.sortByAge(sibs)
	for _, s := range sibs {
		claimed[s] = true
	}
	units := make([][]string, len(sibs))
	for i, s := range sibs {
		units[i] = p.unit(s, claimed)
	}

	if side < 0 {
		var out []string
		for i := len(units) - 1; i >= 0; i-- {
			out = append(out, units[i]...)
		}
		out = append(out, others...)
		return append(out, id)
	}
	out := append([]string{id}, others...)
	for _, u := range units {
		out = append(out, u...)
	}
	return out
}

func midpoint(cells []cell) float64 {
	return (cells[0].x + cells[len(cells)-1].x) / 2
}

func directionOr(dir, fallback int) int {
	if dir != 0 {
		return dir
	}
	return fallback
}
