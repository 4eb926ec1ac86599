package flowchart

import (
	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

// File is a parsed flowchart document.
type File struct {
	Header      Header
	Stmts       []Stmt
	Diagnostics []syntax.Diagnostic
}

// Header is the leading "graph TD" line. Present is false when the document
// has no header; Foreign is set for headers of other diagram families.
type Header struct {
	At        syntax.Pos
	Keyword   string
	Direction string
	Present   bool
	Foreign   bool
}

// Stmt is a statement of the document body.
type Stmt interface {
	Position() syntax.Pos
	stmt()
}

// Shape is a bracketed node label.
type Shape struct {
	Open  string
	Label string
	Kind  diagram.Kind
}

// NodeRef is an identifier with an optional shape.
type NodeRef struct {
	At    syntax.Pos
	ID    string
	Shape *Shape
	Class string
}

// Link joins two node references in a chain.
type Link struct {
	At    syntax.Pos
	Arrow string
	Label string
}

// ChainStmt is "a --> b --> c". A single node reference with no links is a
// node statement. len(Links) == len(Nodes)-1.
type ChainStmt struct {
	Nodes []NodeRef
	Links []Link
}

// IgnoredStmt is a recognized statement with no graph meaning (style, class, ...).
type IgnoredStmt struct {
	At      syntax.Pos
	Keyword string
}

func (s *ChainStmt) Position() syntax.Pos   { return s.Nodes[0].At }
func (s *IgnoredStmt) Position() syntax.Pos { return s.At }

func (*ChainStmt) stmt()   {}
func (*IgnoredStmt) stmt() {}

// Decls lowers the document into node and edge declarations in source order.
// Within a chain, shaped node references are declared before the chain's edges.
func (f *File) Decls() []syntax.Decl {
	var out []syntax.Decl
	for _, s := range f.Stmts {
		c, ok := s.(*ChainStmt)
		if !ok {
			continue
		}
		if len(c.Nodes) == 1 && c.Nodes[0].Shape == nil {
			n := c.Nodes[0]
			out = append(out, syntax.NodeDecl{At: n.At, Ident: n.ID})
			continue
		}
		for _, n := range c.Nodes {
			if n.Shape == nil {
				continue
			}
			out = append(out, syntax.NodeDecl{
				At:       n.At,
				Ident:    n.ID,
				Label:    n.Shape.Label,
				HasLabel: true,
				Kind:     n.Shape.Kind,
				HasKind:  true,
			})
		}
		for i, l := range c.Links {
			out = append(out, syntax.EdgeDecl{
				At:    l.At,
				From:  c.Nodes[i].ID,
				To:    c.Nodes[i+1].ID,
				Label: l.Label,
			})
		}
	}
	return out
}
