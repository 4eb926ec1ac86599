// Package pkg holds the libraries behind the flowchart tool.
//
// # Overview
//
// Flowchart converts diagram text into a node graph and back. Two text
// dialects are understood: Mermaid-style flowcharts and Graphviz DOT. The
// pkg directory is organized by concern:
//
//  1. [diagram] - The node graph, dialect and diagram type identifiers, JSON I/O
//  2. [dialect] - Extraction (text to graph) and emission (graph to text)
//  3. [editor] - The debounced reconciliation session behind live editing
//  4. [render] - SVG rendering through Graphviz and the Mermaid CLI, PNG/PDF export
//  5. [cache] - Render caches (memory, file, Redis)
//  6. [examples] - Starter documents for every diagram type
//  7. [observability] - Hooks for conversion, render, session and cache events
//
// # Data Flow
//
//	flowchart / DOT text
//	         ↓
//	dialect.Extract  →  diagram.Graph  →  dialect.Emit
//	         ↓                                ↓
//	render.Renderer                  flowchart / DOT text
//	         ↓
//	SVG → PNG / PDF
//
// The editor package runs the same two directions continuously: text edits
// are extracted once typing pauses, graph edits are emitted back to text,
// and each side keeps the identifiers of the other stable.
//
// Errors that cross package boundaries carry a code from [errors], which
// the HTTP server maps to status codes.
package pkg
