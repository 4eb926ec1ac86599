// Package syntax holds the source positions, diagnostics and lowered
// declarations shared by the dialect parsers.
//
// Each dialect parser produces its own AST. The AST is then lowered to a flat
// list of [Decl] values in source order, which the graph builder in the
// parent package consumes without knowing which dialect produced them.
package syntax

import (
	"fmt"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
)

// Pos is a 1-based line and column in source text. Columns count runes.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Diagnostic describes a statement that was skipped during extraction.
type Diagnostic struct {
	Pos
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// Errorf builds a diagnostic at p.
func Errorf(p Pos, format string, args ...any) Diagnostic {
	return Diagnostic{Pos: p, Message: fmt.Sprintf(format, args...)}
}

// Decl is a lowered node or edge declaration.
type Decl interface {
	Position() Pos
	decl()
}

// NodeDecl declares a node, or updates one declared earlier with the same Ident.
// HasLabel and HasKind report which properties the statement actually set,
// so a later bare redeclaration does not reset an earlier label.
type NodeDecl struct {
	At       Pos
	Ident    string
	Label    string
	HasLabel bool
	Kind     diagram.Kind
	HasKind  bool
}

// EdgeDecl connects two source identifiers.
type EdgeDecl struct {
	At    Pos
	From  string
	To    string
	Label string
}

func (d NodeDecl) Position() Pos { return d.At }
func (d EdgeDecl) Position() Pos { return d.At }

func (NodeDecl) decl() {}
func (EdgeDecl) decl() {}
