package layout

// placeDescendants places the children of every placed person, walking the
// placed set in (row, x, id) order and recursing into each new family.
func (p *placer) placeDescendants() {
	for _, id := range p.placedIDs() {
		p.placeFamiliesOf(id)
	}
}

// placeFamiliesOf places the children id has with each co-parent on the same
// row, then the children id has with nobody placed beside it.
func (p *placer) placeFamiliesOf(id string) {
	if p.famDone[id] || !p.placed(id) {
		return
	}
	p.famDone[id] = true
	row := p.pos[id].Row

	for _, other := range p.adj.coParents(id) {
		if !p.placed(other) || p.pos[other].Row != row {
			continue
		}
		k := pairKey(id, other)
		if p.pairDone[k] {
			continue
		}
		p.pairDone[k] = true
		p.placeChildrenBelow([]string{id, other})
	}

	for _, c := range p.adj.children[id] {
		if !p.placed(c) {
			p.placeChildrenBelow([]string{id})
			break
		}
	}
}

// placeChildrenBelow centers the children of parents on the next row.
// For a couple, children already placed on that row anchor the block: it is
// shifted so the first anchor keeps its position. Without anchors the block
// takes the nearest free position, preferring left on ties.
func (p *placer) placeChildrenBelow(parents []string) {
	row := p.pos[parents[0]].Row + 1

	var kids []string
	anchored := false
	for _, c := range p.adj.sharedChildren(parents) {
		switch {
		case !p.placed(c):
			kids = append(kids, c)
		case len(parents) > 1 && p.pos[c].Row == row:
			kids = append(kids, c)
			anchored = true
		}
	}
	if len(kids) == 0 || (anchored && !p.hasUnplaced(kids)) {
		return
	}

	p.adj.sortByAge(kids)
	ids := p.expand(kids, make(map[string]bool))

	var center float64
	for _, id := range parents {
		center += p.pos[id].X
	}
	center /= float64(len(parents))
	cells := p.rowCells(ids, 0, center-float64(len(ids)-1)*p.slot()/2, row)

	var dx float64
	anchor := -1
	for i, c := range cells {
		if p.placed(c.id) {
			anchor = i
			break
		}
	}
	if anchor >= 0 {
		dx = p.pos[cells[anchor].id].X - cells[anchor].x
	} else {
		dx = p.searchShift(cells, 0)
	}
	p.commit(cells, dx)

	for _, id := range ids {
		p.placeFamiliesOf(id)
	}
}

func (p *placer) hasUnplaced(ids []string) bool {
	for _, id := range ids {
		if !p.placed(id) {
			return true
		}
	}
	return false
}
