package layout

import (
	"slices"
	"strings"

	"github.com/matzehuels/lineage/pkg/family"
)

type spouse struct {
	id       string
	divorced bool
}

// adjacency holds the relationship lookups of one layout run. All value
// slices are sorted by id and every edge is recorded in both directions.
type adjacency struct {
	ids      []string
	persons  map[string]family.Person
	parents  map[string][]string
	children map[string][]string
	spouses  map[string][]spouse
}

func buildAdjacency(persons []family.Person, rels []family.Relationship) *adjacency {
	a := &adjacency{
		persons:  make(map[string]family.Person, len(persons)),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		spouses:  make(map[string][]spouse),
	}
	for _, p := range persons {
		if p.ID == "" {
			continue
		}
		if _, dup := a.persons[p.ID]; dup {
			continue
		}
		a.persons[p.ID] = p
		a.ids = append(a.ids, p.ID)
	}
	slices.Sort(a.ids)

	type pair struct{ a, b string }
	couples := make(map[pair]bool) // pair -> divorced
	parentEdges := make(map[pair]bool)
	for _, r := range rels {
		_, ok1 := a.persons[r.Person1ID]
		_, ok2 := a.persons[r.Person2ID]
		if !ok1 || !ok2 || r.Person1ID == r.Person2ID {
			continue
		}
		switch r.Category {
		case family.CategoryParentChild:
			parentEdges[pair{r.Person1ID, r.Person2ID}] = true
		case family.CategoryCouple:
			k := pair{min(r.Person1ID, r.Person2ID), max(r.Person1ID, r.Person2ID)}
			historical := r.CoupleStatus.Historical()
			if prev, seen := couples[k]; seen {
				// Any active record makes the couple active.
				historical = historical && prev
			}
			couples[k] = historical
		}
	}

	for e := range parentEdges {
		// A pair recorded both ways is contradictory; keep the direction
		// with the lexically smaller parent.
		if parentEdges[pair{e.b, e.a}] && e.b < e.a {
			continue
		}
		a.parents[e.b] = append(a.parents[e.b], e.a)
		a.children[e.a] = append(a.children[e.a], e.b)
	}
	for k, divorced := range couples {
		a.spouses[k.a] = append(a.spouses[k.a], spouse{k.b, divorced})
		a.spouses[k.b] = append(a.spouses[k.b], spouse{k.a, divorced})
	}
	for _, m := range []map[string][]string{a.parents, a.children} {
		for _, v := range m {
			slices.Sort(v)
		}
	}
	for _, v := range a.spouses {
		slices.SortFunc(v, func(x, y spouse) int { return strings.Compare(x.id, y.id) })
	}
	return a
}

// restrict returns the adjacency induced by the given ids.
func (a *adjacency) restrict(ids []string) *adjacency {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	r := &adjacency{
		persons:  make(map[string]family.Person, len(ids)),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		spouses:  make(map[string][]spouse),
	}
	for _, id := range a.ids {
		if !keep[id] {
			continue
		}
		r.ids = append(r.ids, id)
		r.persons[id] = a.persons[id]
		r.parents[id] = filterIDs(a.parents[id], keep)
		r.children[id] = filterIDs(a.children[id], keep)
		for _, s := range a.spouses[id] {
			if keep[s.id] {
				r.spouses[id] = append(r.spouses[id], s)
			}
		}
	}
	return r
}

func (a *adjacency) has(id string) bool {
	_, ok := a.persons[id]
	return ok
}

// divorced reports whether x and y form a historical couple.
func (a *adjacency) divorced(x, y string) bool {
	for _, s := range a.spouses[x] {
		if s.id == y {
			return s.divorced
		}
	}
	return false
}

func (a *adjacency) isCouple(x, y string) bool {
	for _, s := range a.spouses[x] {
		if s.id == y {
			return true
		}
	}
	return false
}

// sharedChildren returns the children common to all given parents.
func (a *adjacency) sharedChildren(parents []string) []string {
	if len(parents) == 0 {
		return nil
	}
	out := slices.Clone(a.children[parents[0]])
	for _, p := range parents[1:] {
		out = slices.DeleteFunc(out, func(c string) bool {
			return !slices.Contains(a.children[p], c)
		})
	}
	return out
}

// coParents returns everyone who is a spouse of id or shares a child with id.
func (a *adjacency) coParents(id string) []string {
	var out []string
	for _, s := range a.spouses[id] {
		out = append(out, s.id)
	}
	for _, c := range a.children[id] {
		for _, p := range a.parents[c] {
			if p != id {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// siblings returns persons sharing at least one parent with id, excluding id.
func (a *adjacency) siblings(id string) []string {
	var out []string
	for _, p := range a.parents[id] {
		for _, c := range a.children[p] {
			if c != id {
				out = append(out, c)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// primaryParents picks the (at most two) parents a child is drawn under.
// A pair that is an active couple wins over a historical couple, which wins
// over an unrelated pair. The result is ordered left to right.
func (a *adjacency) primaryParents(child string) []string {
	ps := a.parents[child]
	if len(ps) <= 1 {
		return slices.Clone(ps)
	}
	var pick []string
	if len(ps) == 2 {
		pick = slices.Clone(ps)
	} else {
		best := -1
		for i := 0; i < len(ps) && best < 2; i++ {
			for j := i + 1; j < len(ps); j++ {
				score := 0
				if a.isCouple(ps[i], ps[j]) {
					score = 1
					if !a.divorced(ps[i], ps[j]) {
						score = 2
					}
				}
				if score > best {
					best, pick = score, []string{ps[i], ps[j]}
				}
			}
		}
		if best == 0 {
			pick = slices.Clone(ps)
			a.sortByGender(pick)
			pick = pick[:2]
		}
	}
	a.sortByGender(pick)
	return pick
}

func genderRank(g family.Gender) int {
	switch g {
	case family.GenderMale:
		return 0
	case family.GenderFemale:
		return 2
	default:
		return 1
	}
}

func (a *adjacency) sortByGender(ids []string) {
	slices.SortFunc(ids, func(x, y string) int {
		if d := genderRank(a.persons[x].Gender) - genderRank(a.persons[y].Gender); d != 0 {
			return d
		}
		return strings.Compare(x, y)
	})
}

// sortByAge orders ids by birth date, unknown dates last, then by id.
func (a *adjacency) sortByAge(ids []string) {
	slices.SortFunc(ids, func(x, y string) int {
		if c := a.persons[x].Birth.Compare(a.persons[y].Birth); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})
}

func filterIDs(ids []string, keep map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}
