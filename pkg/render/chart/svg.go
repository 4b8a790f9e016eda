package chart

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/lineage/pkg/graph"
)

// DefaultScale is the number of pixels per grid unit.
const DefaultScale = 48.0

const cardInteractionCSS = `
    .card { transition: stroke-width 0.2s ease; }
    .card:hover { stroke-width: 3; }`

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style Style
	scale float64
}

func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithScale sets pixels per grid unit. Non-positive values are ignored.
func WithScale(px float64) SVGOption {
	return func(r *svgRenderer) {
		if px > 0 {
			r.scale = px
		}
	}
}

// RenderSVG draws the layout. Connectors are drawn first so cards cover
// their ends; cards are emitted in id order for stable output.
func RenderSVG(l graph.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{style: Simple{}, scale: DefaultScale}
	for _, opt := range opts {
		opt(&r)
	}
	s := r.scale
	width, height := l.Canvas.Width*s, l.Canvas.Height*s

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	r.style.RenderDefs(&buf, width, height)

	for i, c := range l.Connectors {
		r.style.RenderLine(&buf, Line{
			X1: c[0] * s, Y1: c[1] * s,
			X2: c[2] * s, Y2: c[3] * s,
			Dashed: l.IsDashed(i),
		})
	}

	cards := buildCards(l, s)
	for _, c := range cards {
		r.style.RenderCard(&buf, c)
	}
	for _, c := range cards {
		r.style.RenderText(&buf, c)
	}

	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cardInteractionCSS)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func buildCards(l graph.Layout, scale float64) []Card {
	w, h := l.NodeSize.Width*scale, l.NodeSize.Height*scale
	cards := make([]Card, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		x, y := n.Left*scale, n.Top*scale
		cards = append(cards, Card{
			ID:         n.ID,
			Label:      n.DisplayLabel(),
			Years:      n.Years,
			Gender:     n.Gender,
			Deceased:   n.Deceased,
			Root:       n.ID == l.Root,
			HasSubTree: n.HasSubTree,
			X:          x, Y: y, W: w, H: h,
			CX: x + w/2, CY: y + h/2,
		})
	}
	slices.SortFunc(cards, func(a, b Card) int { return cmp.Compare(a.ID, b.ID) })
	return cards
}
