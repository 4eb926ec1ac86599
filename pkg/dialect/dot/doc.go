// Package dot reads and writes the Graphviz DOT language.
//
// The parser covers the full statement grammar so that real-world files parse
// without diagnostics, but only node and edge statements carry meaning:
//
//	graph     := [strict] (graph | digraph) [ID] '{' stmt_list '}'
//	stmt      := node_stmt | edge_stmt | attr_stmt | ID '=' ID | subgraph
//	node_stmt := node_id [attr_list]
//	edge_stmt := (node_id | subgraph) (edgeop (node_id | subgraph))+ [attr_list]
//	attr_stmt := (graph | node | edge) attr_list
//	subgraph  := [subgraph [ID]] '{' stmt_list '}'
//
// IDs are identifiers, numerals, double-quoted strings (with \" escapes and
// '+' concatenation) or <...> HTML strings. Comments are //, /* */ and '#'
// to the end of the line.
//
// Attribute statements and graph assignments are parsed and ignored.
// Subgraph bodies are flattened into the enclosing graph.
//
// # Kinds
//
// A node statement's label attribute gives the node label (default: the ID)
// and its shape attribute gives the kind:
//
//	diamond                            decision
//	ellipse, oval, circle, doublecircle terminal
//	anything else                      process
//
// Only node statements declare nodes; an ID that appears solely in an edge
// statement is a reference.
package dot
