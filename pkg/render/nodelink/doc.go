// Package nodelink renders family trees as traditional node-link diagrams.
//
// # Overview
//
// This package produces Graphviz diagrams as an alternative to the chart
// layout. Persons appear as boxes; every union (a couple, or the parents of
// a child) is a small point node that partners connect into and children
// hang from. Ended unions are drawn with dashed edges.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(tree, nodelink.Options{Generations: gens})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include life years and generation
//   - Generations: persons with the same generation share a rank
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
