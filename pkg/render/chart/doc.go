// Package chart renders a computed family chart layout as SVG.
//
// # Overview
//
// The chart is the native output of the layout engine: one card per person
// at its grid position, joined by the orthogonal connector segments the
// engine produced. Grid units are multiplied by a scale (pixels per unit).
//
//	svg := chart.RenderSVG(l, chart.WithStyle(chart.Classic{}), chart.WithScale(40))
//
// # Styles
//
// A [Style] controls how cards, connectors and labels are drawn:
//
//   - [Simple]: flat cards tinted by gender, sans-serif labels
//   - [Classic]: parchment background, rounded cards, serif labels
//
// Dashed connectors (ended unions) are always drawn dashed, whatever the
// style. Cards whose person has relatives laid out in another block are
// marked with a small badge.
package chart
