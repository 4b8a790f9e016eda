// Package render groups the output renderers for laid out family trees.
//
// Two visualizations are available:
//
//   - chart draws a pedigree chart from a computed layout: one card per
//     person on the generation grid, with couple bars and descent lines.
//     Output is SVG in a "simple" or "classic" style.
//   - nodelink draws the relationship graph itself with Graphviz: person
//     boxes, a point per union, and edges from parents through the union to
//     their children. Output is DOT, SVG or PNG.
//
// Chart output depends only on the layout and can be re-rendered from a
// saved layout.json. Nodelink output needs the tree, and uses the layout
// only to rank persons by generation.
//
// Both are normally driven through pkg/pipeline, which validates the
// requested type, format and style and caches the artifacts.
package render
