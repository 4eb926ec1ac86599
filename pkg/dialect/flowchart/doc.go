// Package flowchart reads and writes the Mermaid-style flowchart dialect.
//
// # Grammar
//
// The parser accepts the subset of the language that maps onto a node graph:
//
//	file      := header? statement*
//	header    := ("graph" | "flowchart") [TD|TB|BT|LR|RL] terminator
//	statement := ignored | chain
//	chain     := nodeRef (link nodeRef)* terminator
//	link      := ARROW ["|" label "|"]
//	nodeRef   := IDENT [SHAPE] [":::" class]
//
// Statements end at a newline or ";". Lines starting with subgraph, end,
// classDef, class, style, linkStyle, click or direction are recognized and
// ignored; nodes declared inside subgraphs are flattened into the graph.
//
// # Shapes
//
// A shape is read by the lexer as a single token delimited by its matching
// bracket, so a label never leaks into the surrounding statement. Labels may
// be quoted (A["a]b"]) and may use the #quot; entity for a literal quote.
//
//	[..]  [[..]]  [(..)]  [/..]  >..]   process
//	{..}  {{..}}                       decision
//	(..)  ((..))  ([..])  (((..)))     terminal
//
// # Declarations
//
// A node reference with a shape declares the node. A statement consisting of
// a single bare identifier declares a process node labelled by its
// identifier. A bare identifier inside a link chain only references a node.
//
// Diagrams of other families (sequenceDiagram, classDiagram, ...) parse to an
// empty file with a diagnostic.
package flowchart
