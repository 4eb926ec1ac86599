package flowchart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		src       string
		keyword   string
		direction string
		present   bool
	}{
		{"graph TD;", "graph", "TD", true},
		{"flowchart LR\nA", "flowchart", "LR", true},
		{"\n\ngraph\nA", "graph", "", true},
		{"A --> B", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f := Parse(tt.src)
			assert.Equal(t, tt.present, f.Header.Present)
			assert.Equal(t, tt.keyword, f.Header.Keyword)
			assert.Equal(t, tt.direction, f.Header.Direction)
		})
	}
}

func TestParseMissingHeaderIsLenient(t *testing.T) {
	f := Parse("A[One] --> B[Two]")
	require.Len(t, f.Diagnostics, 1)
	assert.Contains(t, f.Diagnostics[0].Message, "missing graph header")
	require.Len(t, f.Stmts, 1)
}

func TestParseForeignDiagram(t *testing.T) {
	f := Parse("sequenceDiagram\n  Alice->>Bob: Hello")
	assert.True(t, f.Header.Foreign)
	assert.Empty(t, f.Stmts)
	require.Len(t, f.Diagnostics, 1)
	assert.Contains(t, f.Diagnostics[0].Message, "sequenceDiagram")
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\n;;\n"} {
		f := Parse(src)
		assert.Empty(t, f.Stmts, "src %q", src)
		assert.Empty(t, f.Diagnostics, "src %q", src)
	}
}

func TestParseChain(t *testing.T) {
	f := Parse("graph TD\nA[Start] --> B{Check} -->|no| C((End))")
	require.Empty(t, f.Diagnostics)
	require.Len(t, f.Stmts, 1)

	c, ok := f.Stmts[0].(*ChainStmt)
	require.True(t, ok)
	require.Len(t, c.Nodes, 3)
	require.Len(t, c.Links, 2)
	assert.Equal(t, diagram.KindProcess, c.Nodes[0].Shape.Kind)
	assert.Equal(t, diagram.KindDecision, c.Nodes[1].Shape.Kind)
	assert.Equal(t, diagram.KindTerminal, c.Nodes[2].Shape.Kind)
	assert.Equal(t, "no", c.Links[1].Label)
}

func TestParseIgnoredStatements(t *testing.T) {
	src := `graph TD
  classDef hot fill:#f96,stroke:#333;
  subgraph one [Group]
    A[In group]
  end
  style A fill:#bbf
  linkStyle 0 stroke:#ff3
  click A "https://example.com" _blank
  direction LR
`
	f := Parse(src)
	assert.Empty(t, f.Diagnostics)

	var ignored []string
	var chains int
	for _, s := range f.Stmts {
		switch s := s.(type) {
		case *IgnoredStmt:
			ignored = append(ignored, s.Keyword)
		case *ChainStmt:
			chains++
		}
	}
	assert.Equal(t, []string{"classDef", "subgraph", "end", "style", "linkStyle", "click", "direction"}, ignored)
	assert.Equal(t, 1, chains)
}

func TestParseRecovery(t *testing.T) {
	src := "graph TD\nA[ok]\nB[broken\nC & D\nE --> \nF[fine]"
	f := Parse(src)

	var ids []string
	for _, s := range f.Stmts {
		if c, ok := s.(*ChainStmt); ok {
			ids = append(ids, c.Nodes[0].ID)
		}
	}
	assert.Equal(t, []string{"A", "F"}, ids)
	require.Len(t, f.Diagnostics, 3)
	assert.Equal(t, 3, f.Diagnostics[0].Line)
	assert.Contains(t, f.Diagnostics[1].Message, "'&'")
	assert.Equal(t, 5, f.Diagnostics[2].Line)
}

func TestDecls(t *testing.T) {
	f := Parse("graph TD\nA\nA[Alpha] --> B\nB{Beta}\nA --> B")
	decls := f.Decls()

	want := []syntax.Decl{
		syntax.NodeDecl{At: syntax.Pos{Line: 2, Col: 1}, Ident: "A"},
		syntax.NodeDecl{At: syntax.Pos{Line: 3, Col: 1}, Ident: "A", Label: "Alpha", HasLabel: true, Kind: diagram.KindProcess, HasKind: true},
		syntax.EdgeDecl{At: syntax.Pos{Line: 3, Col: 10}, From: "A", To: "B"},
		syntax.NodeDecl{At: syntax.Pos{Line: 4, Col: 1}, Ident: "B", Label: "Beta", HasLabel: true, Kind: diagram.KindDecision, HasKind: true},
		syntax.EdgeDecl{At: syntax.Pos{Line: 5, Col: 3}, From: "A", To: "B"},
	}
	assert.Equal(t, want, decls)
}
