package layout

import (
	"math"
	"slices"
	"strings"
)

// connect emits the line segments for every family unit and every couple.
// A family unit is the set of children sharing exactly the same placed
// parents, so co-parents never recorded as a couple still get a bar.
func connect(adj *adjacency, nodes []Node, m Metrics) []Connector {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	c := &connector{adj: adj, m: m, barred: make(map[string]bool)}

	units := make(map[string][]Node)
	unitParents := make(map[string][]Node)
	for _, n := range nodes {
		var ps []Node
		for _, id := range adj.parents[n.ID] {
			if pn, ok := byID[id]; ok {
				ps = append(ps, pn)
			}
		}
		if len(ps) == 0 {
			continue
		}
		ids := make([]string, len(ps))
		for i, pn := range ps {
			ids[i] = pn.ID
		}
		key := strings.Join(ids, "\x00")
		units[key] = append(units[key], n)
		unitParents[key] = ps
	}

	keys := make([]string, 0, len(units))
	for k := range units {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		ps, kids := unitParents[k], units[k]
		if len(ps) == 2 && ps[0].Top == ps[1].Top {
			c.couple(ps[0], ps[1], kids)
			continue
		}
		for _, pn := range ps {
			c.single(pn, kids)
		}
	}

	for _, id := range adj.ids {
		for _, s := range adj.spouses[id] {
			if id > s.id {
				continue
			}
			a, okA := byID[id]
			b, okB := byID[s.id]
			if !okA || !okB || a.Top != b.Top || c.barred[pairKey(id, s.id)] {
				continue
			}
			c.bar(a, b, s.divorced)
		}
	}
	return c.out
}

type connector struct {
	adj    *adjacency
	m      Metrics
	barred map[string]bool
	out    []Connector
}

func (c *connector) add(x1, y1, x2, y2 float64, dashed bool) {
	c.out = append(c.out, Connector{X1: x1, Y1: y1, X2: x2, Y2: y2, Dashed: dashed})
}

func (c *connector) centerX(n Node) float64 { return n.Left + c.m.NodeWidth/2 }

// bar joins the facing edges of two nodes on the same row at mid height and
// returns that height.
func (c *connector) bar(a, b Node, dashed bool) float64 {
	if a.Left > b.Left {
		a, b = b, a
	}
	c.barred[pairKey(a.ID, b.ID)] = true
	y := a.Top + c.m.NodeHeight/2
	if x1, x2 := a.Left+c.m.NodeWidth, b.Left; x2 > x1 {
		c.add(x1, y, x2, y, dashed)
	}
	return y
}

func (c *connector) couple(a, b Node, kids []Node) {
	y := c.bar(a, b, c.adj.divorced(a.ID, b.ID))
	dropX := (c.centerX(a) + c.centerX(b)) / 2
	midY := c.midY(a.Top+c.m.NodeHeight, kids)
	c.add(dropX, y, dropX, midY, false)
	c.distribute(dropX, midY, kids)
}

func (c *connector) single(parent Node, kids []Node) {
	bottom := parent.Top + c.m.NodeHeight
	dropX := c.centerX(parent)
	midY := c.midY(bottom, kids)
	c.add(dropX, bottom, dropX, midY, false)
	c.distribute(dropX, midY, kids)
}

// midY is halfway between the parents' bottom edge and the highest child.
func (c *connector) midY(bottom float64, kids []Node) float64 {
	top := math.Inf(1)
	for _, k := range kids {
		top = math.Min(top, k.Top)
	}
	return bottom + (top-bottom)/2
}

// distribute connects the drop point to each child: a jog and a drop for a
// single child, a sibling bar and one drop per child otherwise.
func (c *connector) distribute(dropX, midY float64, kids []Node) {
	if len(kids) == 1 {
		cx := c.centerX(kids[0])
		if math.Abs(cx-dropX) > eps {
			c.add(dropX, midY, cx, midY, false)
		}
		c.add(cx, midY, cx, kids[0].Top, false)
		return
	}
	lo, hi := dropX, dropX
	for _, k := range kids {
		cx := c.centerX(k)
		lo, hi = math.Min(lo, cx), math.Max(hi, cx)
	}
	c.add(lo, midY, hi, midY, false)
	for _, k := range kids {
		cx := c.centerX(k)
		c.add(cx, midY, cx, k.Top, false)
	}
}
