package graph

import (
	"strconv"

	"github.com/matzehuels/lineage/pkg/family"
	"github.com/matzehuels/lineage/pkg/layout"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Visualization types.
const (
	VizTypeChart    = "chart"
	VizTypeNodelink = "nodelink"
)

// Visual styles for rendering.
const (
	StyleSimple  = "simple"
	StyleClassic = "classic"
)

// =============================================================================
// Layout - Chart Layout Serialization
// =============================================================================

// Layout is the serialization format of a computed chart layout.
// All coordinates are grid units; renderers choose the scale.
type Layout struct {
	Root       string       `json:"root" bson:"root"`
	Canvas     Canvas       `json:"canvas" bson:"canvas"`
	NodeSize   Size         `json:"node_size" bson:"node_size"`
	Nodes      []Node       `json:"nodes" bson:"nodes"`
	Connectors [][4]float64 `json:"connectors" bson:"connectors"`
	Dashed     []int        `json:"dashed,omitempty" bson:"dashed,omitempty"` // indexes into Connectors
}

// Canvas is the size of the drawing area.
type Canvas struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Size is the extent of every node box.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// =============================================================================
// Node - Positioned Person
// =============================================================================

// Node is a positioned person.
type Node struct {
	ID         string  `json:"id" bson:"id"`
	Label      string  `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
	Gender     string  `json:"gender,omitempty" bson:"gender,omitempty"`
	Years      string  `json:"years,omitempty" bson:"years,omitempty"` // "1950-2001", "1980-" or empty
	Deceased   bool    `json:"deceased,omitempty" bson:"deceased,omitempty"`
	Left       float64 `json:"left" bson:"left"`
	Top        float64 `json:"top" bson:"top"`
	Generation int     `json:"generation" bson:"generation"`
	HasSubTree bool    `json:"has_sub_tree" bson:"has_sub_tree"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// IsDashed reports whether connector i is drawn dashed.
func (l *Layout) IsDashed(i int) bool {
	for _, d := range l.Dashed {
		if d == i {
			return true
		}
	}
	return false
}

// =============================================================================
// Result ↔ Layout Conversion
// =============================================================================

// FromResult converts an engine result to its serialization format, taking
// labels and life data from the tree the result was computed for.
func FromResult(res layout.Result, t family.Tree) Layout {
	persons := make(map[string]family.Person, len(t.Persons))
	for _, p := range t.Persons {
		persons[p.ID] = p
	}

	out := Layout{
		Root:       res.Root,
		Canvas:     Canvas{Width: res.Canvas.Width, Height: res.Canvas.Height},
		NodeSize:   Size{Width: res.Metrics.NodeWidth, Height: res.Metrics.NodeHeight},
		Nodes:      make([]Node, len(res.Nodes)),
		Connectors: make([][4]float64, len(res.Connectors)),
	}
	for i, n := range res.Nodes {
		p := persons[n.ID]
		out.Nodes[i] = Node{
			ID:         n.ID,
			Label:      p.Name,
			Gender:     string(p.Gender),
			Years:      lifeYears(p),
			Deceased:   !p.IsAlive(),
			Left:       n.Left,
			Top:        n.Top,
			Generation: n.Generation,
			HasSubTree: n.HasSubTree,
		}
	}
	for i, c := range res.Connectors {
		out.Connectors[i] = [4]float64{c.X1, c.Y1, c.X2, c.Y2}
		if c.Dashed {
			out.Dashed = append(out.Dashed, i)
		}
	}
	return out
}

func lifeYears(p family.Person) string {
	year := func(d family.Date) string { return strconv.Itoa(d.Year) }
	switch {
	case p.Birth.Known() && p.Death.Known():
		return year(p.Birth) + "-" + year(p.Death)
	case p.Birth.Known() && p.IsAlive():
		return year(p.Birth) + "-"
	case p.Birth.Known():
		return year(p.Birth)
	case p.Death.Known():
		return "-" + year(p.Death)
	}
	return ""
}
