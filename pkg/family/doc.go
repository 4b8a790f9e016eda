// Package family defines the genealogical data model laid out by lineage.
//
// # Overview
//
// A [Tree] is a flat collection of [Person] records and typed [Relationship]
// records. Relationships come in two categories:
//
//   - [CategoryParentChild]: a directed edge from a parent (Person1ID) to a
//     child (Person2ID). The [ChildRelation] kind is informational only.
//   - [CategoryCouple]: an undirected edge between two partners. The
//     [CoupleStatus] distinguishes active unions from historical ones
//     (divorced or widowed), which renderers draw dashed.
//
// Storage is row based and directed, but relationships are logically
// bidirectional. Consumers such as the layout engine derive both directions
// themselves.
//
// # Dates
//
// Birth and death dates carry a [Precision] so that "unknown" is
// distinguishable from "year only" and from a full calendar date:
//
//	family.Year(1980)          // "1980"
//	family.FullDate(1980, 5, 12) // "1980-05-12"
//	family.Date{}              // unknown, serialized as ""
//
// [Date] implements JSON and YAML (un)marshaling using that textual form,
// and is stored as a struct in BSON.
//
// # Validation
//
// [Tree.Validate] reports structural problems as coded errors from
// [github.com/matzehuels/lineage/pkg/errors]. The layout engine never
// validates; it sanitizes its input instead, so a tree that fails Validate
// can still be laid out.
package family
