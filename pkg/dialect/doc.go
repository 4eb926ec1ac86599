// Package dialect converts between diagram source text and [diagram.Graph].
//
// Two dialects are supported: the Mermaid-style flowchart dialect
// ([diagram.Flowchart], see package flowchart) and Graphviz DOT
// ([diagram.DOT], see package dot). Each has its own lexer, parser and
// emitter; this package puts a common builder and error model on top.
//
// # Extraction
//
// [Extract] never fails. Statements that cannot be parsed, and edges whose
// endpoints cannot be resolved, are skipped and reported as diagnostics:
//
//	res := dialect.Extract(src, diagram.Flowchart, dialect.Options{})
//	for _, d := range res.Diagnostics {
//	    fmt.Println(d)
//	}
//
// Source identifiers are mapped to sequential numeric node IDs. Passing the
// previous [Result.IDs] as [Options.Previous] keeps the IDs of identifiers
// that survive an edit, which is what the editor does on every keystroke.
//
// # Edge resolution
//
// By default edges are resolved in a single pass: an edge is kept only if
// both endpoints were declared by an earlier statement. [TwoPass] collects
// every declaration first, so forward references resolve too.
//
// # Emission
//
// [Emit] writes a graph in either dialect. Output is deterministic and
// re-extracting it yields the same kinds, labels and edges.
package dialect
