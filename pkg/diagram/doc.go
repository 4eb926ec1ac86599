// Package diagram provides the node/edge graph model shared by the dialect
// codecs, the editing session and the HTTP service.
//
// # Overview
//
// A [Graph] is an ordered list of [Node] values and an ordered list of [Edge]
// values. Order matters: the emitters write declarations in slice order, so
// two equal graphs always produce byte-identical text.
//
// Nodes carry a [Kind] (process, decision or terminal), a display label and a
// cosmetic [Point] used by visual editors. Edges reference nodes by ID and
// may carry a label.
//
// # Invariants
//
// A graph built through its methods always satisfies:
//
//   - Node IDs are non-empty and unique
//   - Every edge endpoint names an existing node
//   - Edge IDs are unique
//
// Graphs decoded from JSON are built through the same methods, so the
// invariants hold for them as well. [Graph.Validate] re-checks a graph that
// was assembled by hand.
//
// # Dialects
//
// [Dialect] names the two supported text languages: the flowchart dialect
// (Mermaid-style) and the DOT dialect (Graphviz). [DiagramType] names the
// diagram families offered to users; only some of them can be edited as a
// node graph (see [DiagramType.SupportsVisualEditing]).
//
// # Concurrency
//
// Graph is not safe for concurrent use. The editor package serializes access
// to the graphs it owns.
package diagram
