package dot

import (
	"strings"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

// File is a parsed DOT document.
type File struct {
	Header      Header
	Stmts       []Stmt
	Diagnostics []syntax.Diagnostic
}

// Header is "[strict] (graph|digraph) [ID]". Present is false when the
// document starts directly with statements.
type Header struct {
	At       syntax.Pos
	Strict   bool
	Directed bool
	ID       string
	Present  bool
}

// Stmt is a statement of a graph or subgraph body.
type Stmt interface {
	Position() syntax.Pos
	stmt()
}

// Attr is a key=value pair from an attribute list.
type Attr struct {
	At    syntax.Pos
	Key   string
	Value string
}

// Attrs is an attribute list. Later keys override earlier ones.
type Attrs []Attr

// Get returns the last value set for key.
func (a Attrs) Get(key string) (string, bool) {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i].Key == key {
			return a[i].Value, true
		}
	}
	return "", false
}

// NodeStmt declares a node.
type NodeStmt struct {
	At    syntax.Pos
	ID    string
	Port  string
	Attrs Attrs
}

// Endpoint is one side of an edge: a node ID or an inline subgraph.
type Endpoint struct {
	At   syntax.Pos
	ID   string
	Port string
	Sub  *Subgraph
}

// EdgeStmt is a chain of two or more endpoints.
type EdgeStmt struct {
	At        syntax.Pos
	Endpoints []Endpoint
	Attrs     Attrs
}

// AttrStmt sets default attributes: graph [..], node [..] or edge [..].
type AttrStmt struct {
	At     syntax.Pos
	Target string
	Attrs  Attrs
}

// AssignStmt is a graph attribute assignment: key = value.
type AssignStmt struct {
	At    syntax.Pos
	Key   string
	Value string
}

// Subgraph is "[subgraph [ID]] { ... }".
type Subgraph struct {
	At    syntax.Pos
	ID    string
	Stmts []Stmt
}

func (s *NodeStmt) Position() syntax.Pos   { return s.At }
func (s *EdgeStmt) Position() syntax.Pos   { return s.At }
func (s *AttrStmt) Position() syntax.Pos   { return s.At }
func (s *AssignStmt) Position() syntax.Pos { return s.At }
func (s *Subgraph) Position() syntax.Pos   { return s.At }

func (*NodeStmt) stmt()   {}
func (*EdgeStmt) stmt()   {}
func (*AttrStmt) stmt()   {}
func (*AssignStmt) stmt() {}
func (*Subgraph) stmt()   {}

// KindOf maps a shape attribute value to a node kind.
func KindOf(shape string) diagram.Kind {
	switch strings.ToLower(shape) {
	case "diamond":
		return diagram.KindDecision
	case "ellipse", "oval", "circle", "doublecircle":
		return diagram.KindTerminal
	}
	return diagram.KindProcess
}

// Decls lowers the document into node and edge declarations in source order.
// Subgraph bodies are flattened. Edges to an inline subgraph expand to one
// edge per node of the subgraph.
func (f *File) Decls() []syntax.Decl {
	var out []syntax.Decl
	lowerStmts(f.Stmts, &out)
	return out
}

func lowerStmts(stmts []Stmt, out *[]syntax.Decl) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *NodeStmt:
			d := syntax.NodeDecl{At: s.At, Ident: s.ID}
			if v, ok := s.Attrs.Get("label"); ok {
				d.Label, d.HasLabel = v, true
			}
			if v, ok := s.Attrs.Get("shape"); ok {
				d.Kind, d.HasKind = KindOf(v), true
			}
			*out = append(*out, d)
		case *Subgraph:
			lowerStmts(s.Stmts, out)
		case *EdgeStmt:
			for _, ep := range s.Endpoints {
				if ep.Sub != nil {
					lowerStmts(ep.Sub.Stmts, out)
				}
			}
			label, _ := s.Attrs.Get("label")
			for i := 0; i+1 < len(s.Endpoints); i++ {
				for _, from := range s.Endpoints[i].idents() {
					for _, to := range s.Endpoints[i+1].idents() {
						*out = append(*out, syntax.EdgeDecl{At: s.At, From: from, To: to, Label: label})
					}
				}
			}
		}
	}
}

func (ep Endpoint) idents() []string {
	if ep.Sub == nil {
		return []string{ep.ID}
	}
	var ids []string
	seen := map[string]bool{}
	var walk func([]Stmt)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	walk = func(stmts []Stmt) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *NodeStmt:
				add(s.ID)
			case *Subgraph:
				walk(s.Stmts)
			case *EdgeStmt:
				for _, e := range s.Endpoints {
					for _, id := range e.idents() {
						add(id)
					}
				}
			}
		}
	}
	walk(ep.Sub.Stmts)
	return ids
}
