// Package pkg provides the core libraries for Lineage family tree layout.
//
// # Overview
//
// Lineage turns a list of persons and relationships into a positioned
// chart: every person gets a node on a generation row, couples sit side by
// side, and orthogonal connectors join parents to their children. The pkg
// directory is organized by stage:
//
//  1. [family] - Domain model (persons, relationships, partial dates)
//  2. [layout] - The layout engine (generations, placement, collisions)
//  3. [graph] - Serialization types for trees and layouts (JSON/YAML)
//  4. [render] - Output sinks (SVG chart, Graphviz node-link)
//  5. [pipeline] - Orchestration (parse → layout → render) with caching
//
// # Architecture
//
// The typical data flow:
//
//	tree.json / tree.yaml / store
//	         ↓
//	    [graph] package (decode into a family.Tree)
//	         ↓
//	    [layout] package (nodes, connectors, stats)
//	         ↓
//	    [render] packages (SVG, PNG, DOT, JSON)
//
// # Quick Start
//
//	t, _ := pipeline.ParseFile("windsor.yaml")
//	res := layout.Build(t)
//	svg := chart.RenderSVG(graph.FromResult(res, t))
//
// # Infrastructure
//
// [cache] - Content-addressed caching (file, Redis, null) for layouts and
// rendered artifacts.
//
// [store] - Tree persistence backends (JSON files, SQLite, MongoDB).
//
// [server] - HTTP API over the store and pipeline.
//
// [observability] - Hooks for cache, pipeline and request events.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/...
//
// [family]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/family
// [layout]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/errors
package pkg
