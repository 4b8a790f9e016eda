// Package layout computes generational chart layouts for family trees.
//
// # Overview
//
// [Build] turns a [family.Tree] into grid positions for every person and the
// line segments that connect couples and families. Rows are generations
// (ancestors above, descendants below) and columns are horizontal slots.
// Coordinates are grid units; renderers decide how many pixels a unit is.
//
// The engine is a pure function of its input: every call rebuilds all of its
// state, so concurrent calls are safe and results can be cached by tree hash.
//
// # Pipeline
//
// A layout run is a fixed sequence of stages, each consuming the state left by
// the previous one:
//
//  1. Adjacency: parent, child and spouse lookups, recorded in both
//     directions. Relationships naming unknown persons are dropped.
//  2. Generations: breadth-first distance from the root (parents -1,
//     children +1, spouses 0). Unreachable persons fall back to 0. Rows are
//     not read from this map: stages 3 to 6 derive them from placement, and
//     [Stats.RowDrift] counts reached persons where the two disagree.
//  3. Lineage: the root's sibling group, sorted by age around the root and
//     expanded with spouses (former partners left, current ones right),
//     then parents, grandparents and their siblings above it. Paternal
//     relatives extend left, maternal ones right.
//  4. Descendants: children of every placed couple or single parent are
//     centered below them, recursively. Children that are already placed act
//     as anchors and the block is shifted to keep them where they are.
//  5. Collision resolution: a per-row sweep pushes nodes apart until every
//     pair is at least one slot apart, within a bounded number of passes.
//  6. Coverage: persons still unplaced are grouped into connected clusters,
//     laid out as sub-trees and docked next to an already placed relative,
//     or appended at the right edge when no relative is placed.
//  7. Normalization: coordinates are shifted to a small positive margin and
//     the canvas is sized around them.
//  8. Connectors: couple bars, drops and sibling bars per family unit, where
//     a family unit is a set of children sharing exactly the same placed
//     parents.
//
// # Guarantees
//
// Every person in the input appears exactly once in [Result.Nodes], children
// sit below their parents, partners of an active couple share a row and the
// output is deterministic for identical input. Collision resolution is best
// effort: when its pass budget is exhausted the remaining overlap is logged
// and reported in [Stats], never returned as an error.
//
// # Usage
//
//	res := layout.Build(tree, layout.WithLogger(logger))
//	for _, n := range res.Nodes {
//	    fmt.Println(n.ID, n.Left, n.Top)
//	}
package layout
