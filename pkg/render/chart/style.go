package chart

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
)

// Style defines the visual appearance of a chart.
type Style interface {
	// RenderDefs writes SVG <defs> content and any background.
	RenderDefs(buf *bytes.Buffer, width, height float64)
	// RenderCard writes the shape of a single person card.
	RenderCard(buf *bytes.Buffer, c Card)
	// RenderLine writes a connector segment.
	RenderLine(buf *bytes.Buffer, l Line)
	// RenderText writes a card's labels.
	RenderText(buf *bytes.Buffer, c Card)
}

// Card contains all data needed to render one person.
type Card struct {
	ID         string
	Label      string
	Years      string
	Gender     string
	Deceased   bool
	Root       bool
	HasSubTree bool
	X, Y, W, H float64 // Position and dimensions in pixels
	CX, CY     float64 // Center coordinates
}

// Line is a connector segment in pixels.
type Line struct {
	X1, Y1, X2, Y2 float64
	Dashed         bool
}

// StyleFor returns the style registered under name.
func StyleFor(name string) (Style, error) {
	switch name {
	case graph.StyleSimple, "":
		return Simple{}, nil
	case graph.StyleClassic:
		return Classic{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown chart style %q", name)
}

const dashArray = "6 4"

func dash(l Line) string {
	if l.Dashed {
		return fmt.Sprintf(` stroke-dasharray="%s"`, dashArray)
	}
	return ""
}

// =============================================================================
// Simple
// =============================================================================

// Simple draws flat cards tinted by gender.
type Simple struct{}

func (Simple) RenderDefs(buf *bytes.Buffer, width, height float64) {
	fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="white"/>`+"\n", width, height)
}

func (Simple) RenderCard(buf *bytes.Buffer, c Card) {
	stroke, width := "#333333", 1.5
	if c.Root {
		width = 3
	}
	extra := ""
	if c.Deceased {
		stroke = "#888888"
	}
	if c.HasSubTree {
		extra = subTreeBadge(c, stroke)
	}
	fmt.Fprintf(buf, `  <rect id="card-%s" class="card" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="%s" stroke-width="%.1f"/>`+"\n",
		escapeXML(c.ID), c.X, c.Y, c.W, c.H, simpleFill(c.Gender), stroke, width)
	buf.WriteString(extra)
}

func (Simple) RenderLine(buf *bytes.Buffer, l Line) {
	fmt.Fprintf(buf, `  <line class="connector" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555555" stroke-width="2"%s/>`+"\n",
		l.X1, l.Y1, l.X2, l.Y2, dash(l))
}

func (Simple) RenderText(buf *bytes.Buffer, c Card) {
	renderLabels(buf, c, "Helvetica, Arial, sans-serif", "#222222")
}

func simpleFill(gender string) string {
	switch gender {
	case "male":
		return "#dbe8f6"
	case "female":
		return "#f9e0e6"
	}
	return "#eeeeee"
}

// =============================================================================
// Classic
// =============================================================================

// Classic draws rounded cards on a parchment background.
type Classic struct{}

func (Classic) RenderDefs(buf *bytes.Buffer, width, height float64) {
	buf.WriteString(`  <defs>
    <linearGradient id="parchment" x1="0" y1="0" x2="0" y2="1">
      <stop offset="0%" stop-color="#fbf5e6"/>
      <stop offset="100%" stop-color="#efe3c6"/>
    </linearGradient>
  </defs>
`)
	fmt.Fprintf(buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="url(#parchment)"/>`+"\n", width, height)
}

func (Classic) RenderCard(buf *bytes.Buffer, c Card) {
	width := 1.2
	if c.Root {
		width = 2.5
	}
	fmt.Fprintf(buf, `  <rect id="card-%s" class="card" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="#fffdf7" stroke="#6b4f2a" stroke-width="%.1f"/>`+"\n",
		escapeXML(c.ID), c.X, c.Y, c.W, c.H, c.H/5, width)
	if c.HasSubTree {
		buf.WriteString(subTreeBadge(c, "#6b4f2a"))
	}
}

func (Classic) RenderLine(buf *bytes.Buffer, l Line) {
	fmt.Fprintf(buf, `  <line class="connector" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#6b4f2a" stroke-width="1.5" stroke-linecap="round"%s/>`+"\n",
		l.X1, l.Y1, l.X2, l.Y2, dash(l))
}

func (Classic) RenderText(buf *bytes.Buffer, c Card) {
	if c.Deceased && c.Years != "" {
		c.Years = "† " + c.Years
	}
	renderLabels(buf, c, "Georgia, 'Times New Roman', serif", "#3b2a14")
}

// =============================================================================
// Shared helpers
// =============================================================================

func subTreeBadge(c Card, color string) string {
	r := c.H / 8
	return fmt.Sprintf(`  <circle class="subtree" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
		c.X+c.W-r*1.5, c.Y+r*1.5, r, color)
}

func renderLabels(buf *bytes.Buffer, c Card, family, color string) {
	size := fontSize(c.W, c.H, utf8.RuneCountInString(c.Label))
	label := truncateLabel(c.Label, c.W, size)
	if c.Years == "" {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%.1f" fill="%s">%s</text>`+"\n",
			c.CX, c.CY, family, size, color, escapeXML(label))
		return
	}
	small := max(fontSizeMin, size*0.75)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%.1f" fill="%s">%s</text>`+"\n",
		c.CX, c.CY-c.H/6, family, size, color, escapeXML(label))
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="%s" font-size="%.1f" fill="%s" opacity="0.75">%s</text>`+"\n",
		c.CX, c.CY+c.H/4, family, small, color, escapeXML(c.Years))
}
