package dot

import (
	"strings"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
)

// GraphName is the ID written in the emitted header.
const GraphName = "G"

var shapeNames = map[diagram.Kind]string{
	diagram.KindProcess:  "box",
	diagram.KindDecision: "diamond",
	diagram.KindTerminal: "ellipse",
}

// Emit writes g as a DOT digraph. Node IDs are written quoted and used
// verbatim, so the returned identifier map is the identity on node IDs.
//
// The graph must be valid; callers check with [diagram.Graph.Validate].
func Emit(g *diagram.Graph) (string, map[string]string) {
	idents := make(map[string]string, len(g.Nodes))

	var b strings.Builder
	b.WriteString("digraph " + GraphName + " {\n")
	for _, n := range g.Nodes {
		idents[n.ID] = n.ID
		shape, ok := shapeNames[n.Kind]
		if !ok {
			shape = shapeNames[diagram.KindProcess]
		}
		b.WriteString("  ")
		b.WriteString(Quote(n.ID))
		b.WriteString(" [label=")
		b.WriteString(Quote(n.Label))
		b.WriteString(", shape=")
		b.WriteString(shape)
		b.WriteString("];\n")
	}
	for _, e := range g.Edges {
		b.WriteString("  ")
		b.WriteString(Quote(e.Source))
		b.WriteString(" -> ")
		b.WriteString(Quote(e.Target))
		if e.Label != "" {
			b.WriteString(" [label=")
			b.WriteString(Quote(e.Label))
			b.WriteString("]")
		}
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String(), idents
}

// Quote returns s as a DOT double-quoted string.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
