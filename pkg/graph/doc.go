// Package graph provides serialization types for family trees and layouts.
//
// This package defines the canonical wire formats of lineage, used for tree
// files, API requests and responses, caching and stored documents.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Layout], [Node], [Canvas]: Serialization types (this package)
//   - pkg/family.Tree: Persons and relationships, read and written here
//   - pkg/layout.Result: Internal layout produced by the engine
//
// Use [FromResult] to convert an engine result into its wire form.
//
// # Constants
//
// This package is the single source of truth for visualization constants:
//
//	graph.VizTypeChart      // "chart"
//	graph.VizTypeNodelink   // "nodelink"
//	graph.StyleSimple       // "simple"
//	graph.StyleClassic      // "classic"
//
// # Tree Files
//
// Trees are stored as JSON or YAML; the format follows the file extension:
//
//	tree, _ := graph.ReadTreeFile("smith.yaml")   // File → family.Tree
//	graph.WriteTreeFile(tree, "smith.json")       // family.Tree → File
//	data, _ := graph.MarshalTree(tree, graph.FormatJSON)
//
// # Layout Serialization
//
// Layouts carry grid coordinates only. Connectors are encoded as
// [x1, y1, x2, y2] tuples and the indexes of dashed connectors are listed
// separately, so consumers that ignore styling can skip them:
//
//	{
//	  "root": "p1",
//	  "canvas": {"width": 20, "height": 8},
//	  "nodes": [{"id": "p1", "left": 1, "top": 3, "generation": 0}],
//	  "connectors": [[2, 1.5, 2, 2.5]],
//	  "dashed": [3]
//	}
package graph
