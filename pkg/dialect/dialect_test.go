package dialect

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

func TestKindLabelRoundTrip(t *testing.T) {
	labels := []string{"Start", "Is it ok?", "a]b", `say "hi"`, "多字节", "x|y", "100%"}
	for _, d := range diagram.Dialects() {
		for _, k := range diagram.Kinds() {
			for _, label := range labels {
				g := diagram.New()
				require.NoError(t, g.AddNode(diagram.Node{ID: "1", Kind: k, Label: label}))

				text, err := Emit(g, d)
				require.NoError(t, err)

				res := Extract(text, d, Options{})
				require.Empty(t, res.Diagnostics, "%s:\n%s", d, text)
				require.Len(t, res.Graph.Nodes, 1)
				assert.Equal(t, k, res.Graph.Nodes[0].Kind, "%s %q", d, label)
				assert.Equal(t, label, res.Graph.Nodes[0].Label, "%s %s", d, k)
				assert.Empty(t, res.Graph.Edges)
			}
		}
	}
}

func TestEdgeRoundTrip(t *testing.T) {
	for _, d := range diagram.Dialects() {
		g := diagram.New()
		_ = g.AddNode(diagram.Node{ID: "a", Label: "first"})
		_ = g.AddNode(diagram.Node{ID: "b", Kind: diagram.KindDecision, Label: "second"})
		_, err := g.Connect("a", "b", "")
		require.NoError(t, err)
		_, err = g.Connect("b", "a", "no")
		require.NoError(t, err)

		text, err := Emit(g, d)
		require.NoError(t, err)
		res := Extract(text, d, Options{})
		require.Empty(t, res.Diagnostics)
		require.Len(t, res.Graph.Edges, 2)

		label := func(id string) string {
			n, ok := res.Graph.Node(id)
			require.True(t, ok)
			return n.Label
		}
		e0, e1 := res.Graph.Edges[0], res.Graph.Edges[1]
		assert.Equal(t, "first", label(e0.Source))
		assert.Equal(t, "second", label(e0.Target))
		assert.Equal(t, "second", label(e1.Source))
		assert.Equal(t, "no", e1.Label)
	}
}

func TestExtractEmpty(t *testing.T) {
	for _, d := range diagram.Dialects() {
		res := Extract("", d, Options{})
		require.NotNil(t, res.Graph)
		assert.Empty(t, res.Graph.Nodes)
		assert.Empty(t, res.Graph.Edges)
		assert.Empty(t, res.Diagnostics)
	}
}

func TestExtractDOTExample(t *testing.T) {
	src := `digraph G { "1" [label="Start", shape=ellipse]; "2" [label="Go", shape=box]; "1" -> "2"; }`
	res := Extract(src, diagram.DOT, Options{})
	require.Empty(t, res.Diagnostics)
	require.Len(t, res.Graph.Nodes, 2)

	assert.Equal(t, diagram.KindTerminal, res.Graph.Nodes[0].Kind)
	assert.Equal(t, "Start", res.Graph.Nodes[0].Label)
	assert.Equal(t, diagram.KindProcess, res.Graph.Nodes[1].Kind)
	assert.Equal(t, "Go", res.Graph.Nodes[1].Label)

	require.Len(t, res.Graph.Edges, 1)
	assert.Equal(t, diagram.Edge{ID: "e1-2", Source: "1", Target: "2"}, res.Graph.Edges[0])
}

func TestExtractFlowchart(t *testing.T) {
	src := `graph TD
  A((Start)) --> B{Ready?}
  B -->|yes| C[Ship it]
  B --> A
  D
  %% comment
`
	res := Extract(src, diagram.Flowchart, Options{})
	require.Len(t, res.Graph.Nodes, 4)
	assert.Equal(t, map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"}, res.IDs)

	d, _ := res.Graph.Node("4")
	assert.Equal(t, "D", d.Label)
	assert.Equal(t, diagram.KindProcess, d.Kind)

	require.Len(t, res.Graph.Edges, 3)
	assert.Equal(t, "yes", res.Graph.Edges[1].Label)
	assert.Equal(t, "e2-1", res.Graph.Edges[2].ID)
}

func TestUndeclaredEdgeDropped(t *testing.T) {
	tests := []struct {
		d   diagram.Dialect
		src string
	}{
		{diagram.Flowchart, "graph TD\n  A[a]\n  B[b]\n  A --> Z\n  A --> B\n"},
		{diagram.DOT, "digraph { A [label=a]; B [label=b]; A -> Z; A -> B }"},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			res := Extract(tt.src, tt.d, Options{})
			assert.Len(t, res.Graph.Nodes, 2)
			require.Len(t, res.Graph.Edges, 1)
			require.Len(t, res.Diagnostics, 1)
			assert.Contains(t, res.Diagnostics[0].Message, "Z is not declared")
		})
	}
}

func TestResolveModes(t *testing.T) {
	src := "graph TD\n  A --> B\n  A[a]\n  B[b]\n"

	single := Extract(src, diagram.Flowchart, Options{})
	assert.Len(t, single.Graph.Nodes, 2)
	assert.Empty(t, single.Graph.Edges)
	require.Len(t, single.Diagnostics, 1)
	assert.Equal(t, 2, single.Diagnostics[0].Line)
	assert.Contains(t, single.Diagnostics[0].Message, "forward reference")

	two := Extract(src, diagram.Flowchart, Options{Resolve: TwoPass})
	assert.Empty(t, two.Diagnostics)
	require.Len(t, two.Graph.Edges, 1)
	assert.Equal(t, "1", two.Graph.Edges[0].Source)
	assert.Equal(t, "2", two.Graph.Edges[0].Target)
}

func TestRedeclarationUpdatesNode(t *testing.T) {
	src := `digraph {
  a [label="first"]
  a [shape=diamond]
  a
}`
	res := Extract(src, diagram.DOT, Options{})
	require.Len(t, res.Graph.Nodes, 1)
	assert.Equal(t, "first", res.Graph.Nodes[0].Label)
	assert.Equal(t, diagram.KindDecision, res.Graph.Nodes[0].Kind)
}

func TestStableIDs(t *testing.T) {
	first := Extract("graph TD\n  A[a]\n  B[b]\n  A --> B\n", diagram.Flowchart, Options{})
	require.Equal(t, map[string]string{"A": "1", "B": "2"}, first.IDs)

	edited := Extract("graph TD\n  C[c]\n  B[b]\n  B --> C\n", diagram.Flowchart, Options{
		Previous: first.IDs,
	})
	assert.Equal(t, map[string]string{"B": "2", "C": "3"}, edited.IDs)
	require.Len(t, edited.Graph.Edges, 1)
	assert.Equal(t, "e2-3", edited.Graph.Edges[0].ID)
}

func TestPositions(t *testing.T) {
	pinned := diagram.Point{X: 7, Y: 9}
	res := Extract("graph TD\n  A[a]\n  B[b]\n", diagram.Flowchart, Options{
		Positions: map[string]diagram.Point{"2": pinned},
	})
	require.Len(t, res.Graph.Nodes, 2)
	assert.Equal(t, diagram.GridPosition(1), res.Graph.Nodes[0].Position)
	assert.Equal(t, pinned, res.Graph.Nodes[1].Position)
}

func TestDiagnosticsSorted(t *testing.T) {
	src := "graph TD\n  A --> B\n  C[oops\n  B[b]\n"
	res := Extract(src, diagram.Flowchart, Options{})
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, 2, res.Diagnostics[0].Line)
	assert.Equal(t, 3, res.Diagnostics[1].Line)
}

func TestEmitDeterministicFixedPoint(t *testing.T) {
	srcs := map[diagram.Dialect]string{
		diagram.Flowchart: "graph LR\n  x((Begin)) --> y{Check} -->|ok| z[Done]\n  y --> x\n",
		diagram.DOT:       "digraph { s [shape=oval, label=Begin]; s -> t; t [label=\"T\"]; t -> s [label=back] }",
	}
	for d, src := range srcs {
		g := Extract(src, d, Options{Resolve: TwoPass}).Graph
		t1, err := Emit(g, d)
		require.NoError(t, err)
		again, err := Emit(g, d)
		require.NoError(t, err)
		assert.Equal(t, t1, again)

		t2, err := Emit(Extract(t1, d, Options{}).Graph, d)
		require.NoError(t, err)
		assert.Equal(t, t1, t2, "%s not a fixed point", d)
	}
}

func TestEmitIDsReproduceGraph(t *testing.T) {
	g := diagram.New()
	_ = g.AddNode(diagram.Node{ID: "7", Label: "seven"})
	_ = g.AddNode(diagram.Node{ID: "node-x", Label: "x"})
	_, _ = g.Connect("7", "node-x", "")

	text, idents, err := EmitIDs(g, diagram.Flowchart)
	require.NoError(t, err)

	res := Extract(text, diagram.Flowchart, Options{Previous: idents})
	assert.Equal(t, []string{"7", "node-x"}, []string{res.Graph.Nodes[0].ID, res.Graph.Nodes[1].ID})
	assert.Equal(t, g.Edges, res.Graph.Edges)
}

func TestEmitErrors(t *testing.T) {
	_, err := Emit(diagram.New(), diagram.Dialect("plantuml"))
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidDialect))

	bad := &diagram.Graph{Edges: []diagram.Edge{{ID: "e", Source: "x", Target: "y"}}}
	_, err = Emit(bad, diagram.DOT)
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidGraph))
	assert.ErrorIs(t, err, diagram.ErrUnknownSourceNode)

	text, err := Emit(nil, diagram.Flowchart)
	require.NoError(t, err)
	assert.Equal(t, "graph TD;\n", text)
}

func TestExtractUnknownDialect(t *testing.T) {
	res := Extract("anything", diagram.Dialect("plantuml"), Options{})
	assert.True(t, res.Graph.Empty())
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "unknown dialect")
}

func TestExtractRecoversPanic(t *testing.T) {
	const boom = diagram.Dialect("boom")
	codecs[boom] = codec{
		parse: func(string) ([]syntax.Decl, []syntax.Diagnostic) { panic("kaboom") },
		emit:  func(*diagram.Graph) (string, map[string]string) { panic("kaboom") },
	}
	defer delete(codecs, boom)

	hooks := &countingHooks{}
	observability.SetConvertHooks(hooks)
	defer observability.Reset()

	res := Extract("x", boom, Options{})
	assert.True(t, res.Graph.Empty())
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "internal error: kaboom")

	_, err := Emit(diagram.New(), boom)
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInternal))

	assert.EqualValues(t, 2, hooks.panics.Load())
	assert.EqualValues(t, 1, hooks.extracts.Load())
}

func TestConvert(t *testing.T) {
	out, diags, err := Convert("graph TD\n  A[Start] --> B{Done?}\n", diagram.Flowchart, diagram.DOT)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.True(t, strings.HasPrefix(out, "digraph G {\n"))
	assert.Contains(t, out, `"1" [label="Start", shape=box];`)
	assert.Contains(t, out, `"2" [label="Done?", shape=diamond];`)
	assert.Contains(t, out, `"1" -> "2";`)

	// A DOT string spanning lines still yields a one-line flowchart label.
	out, diags, err = Convert("digraph G {\n a [label=\"two\nlines\"];\n b;\n a -> b [label=\"x\ny\"];\n}", diagram.DOT, diagram.Flowchart)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Contains(t, out, `1["two#10;lines"];`)
	assert.Contains(t, out, `1 -->|"x#10;y"| 2;`)
	res := Extract(out, diagram.Flowchart, Options{})
	require.Empty(t, res.Diagnostics, "text:\n%s", out)
	require.Len(t, res.Graph.Nodes, 2)
	require.Len(t, res.Graph.Edges, 1)
	assert.Equal(t, "two\nlines", res.Graph.Nodes[0].Label)
	assert.Equal(t, "x\ny", res.Graph.Edges[0].Label)

	_, _, err = Convert("x", diagram.Dialect("nope"), diagram.DOT)
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidDialect))

	_, _, err = Convert("digraph {}", diagram.DOT, diagram.Dialect("nope"))
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidDialect))
}

func TestParseResolve(t *testing.T) {
	tests := []struct {
		in   string
		want Resolve
		err  bool
	}{
		{"", SinglePass, false},
		{"single-pass", SinglePass, false},
		{"Two-Pass", TwoPass, false},
		{"twopass", TwoPass, false},
		{"lazy", SinglePass, true},
	}
	for _, tt := range tests {
		got, err := ParseResolve(tt.in)
		if tt.err {
			assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidInput), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) Resolve {
	t.Helper()
	r, err := ParseResolve(s)
	require.NoError(t, err)
	return r
}

type countingHooks struct {
	observability.NoopConvertHooks
	extracts atomic.Int32
	panics   atomic.Int32
}

func (h *countingHooks) OnExtract(context.Context, string, int, int, int, time.Duration) {
	h.extracts.Add(1)
}

func (h *countingHooks) OnPanic(context.Context, string, string, any) {
	h.panics.Add(1)
}
