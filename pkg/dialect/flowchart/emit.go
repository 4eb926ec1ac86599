package flowchart

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
)

// DefaultLabel replaces empty labels on emission.
const DefaultLabel = "Node"

var shapeBrackets = map[diagram.Kind][2]string{
	diagram.KindProcess:  {"[", "]"},
	diagram.KindDecision: {"{", "}"},
	diagram.KindTerminal: {"((", "))"},
}

// Emit writes g in the flowchart dialect. It returns the text and the
// identifier used for each node, keyed by identifier, so that a later
// extraction of the same text can map identifiers back to node IDs.
//
// The graph must be valid; callers check with [diagram.Graph.Validate].
func Emit(g *diagram.Graph) (string, map[string]string) {
	idents := make(map[string]string, len(g.Nodes))
	byNode := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		id := uniqueIdent(Sanitize(n.ID), idents)
		idents[id] = n.ID
		byNode[n.ID] = id
	}

	var b strings.Builder
	b.WriteString("graph TD;\n")
	for _, n := range g.Nodes {
		br := shapeBrackets[n.Kind]
		if br[0] == "" {
			br = shapeBrackets[diagram.KindProcess]
		}
		b.WriteString("  ")
		b.WriteString(byNode[n.ID])
		b.WriteString(br[0])
		b.WriteString(formatLabel(n.Label))
		b.WriteString(br[1])
		b.WriteString(";\n")
	}
	for _, e := range g.Edges {
		b.WriteString("  ")
		b.WriteString(byNode[e.Source])
		b.WriteString(" -->")
		if e.Label != "" {
			b.WriteString("|")
			b.WriteString(formatEdgeLabel(e.Label))
			b.WriteString("|")
		}
		b.WriteString(" ")
		b.WriteString(byNode[e.Target])
		b.WriteString(";\n")
	}
	return b.String(), idents
}

// Sanitize maps a node ID to a flowchart identifier. Runes outside
// [A-Za-z0-9_] become '_', and statement keywords get a trailing '_'.
func Sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		s = "n"
	}
	if ignoredKeywords[s] || foreignHeaders[s] || s == "graph" || s == "flowchart" {
		s += "_"
	}
	return s
}

func uniqueIdent(base string, taken map[string]string) string {
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		s := base + "_" + strconv.Itoa(n)
		if _, ok := taken[s]; !ok {
			return s
		}
	}
}

func formatLabel(label string) string {
	if label == "" {
		return DefaultLabel
	}
	label = escapeHash(label)
	if hasControl(label) || strings.ContainsAny(label, `[]{}()|"<>`) || strings.HasPrefix(label, "/") ||
		strings.HasPrefix(label, `\`) || label != strings.TrimSpace(label) {
		return `"` + escapeControls(strings.ReplaceAll(label, `"`, "#quot;")) + `"`
	}
	return label
}

// formatEdgeLabel writes the text between the pipes of a link. Labels the
// lexer would trim or unquote are quoted.
func formatEdgeLabel(label string) string {
	label = escapeHash(label)
	label = strings.ReplaceAll(label, "|", "#124;")
	if hasControl(label) || strings.HasPrefix(label, `"`) || label != strings.TrimSpace(label) {
		return `"` + escapeControls(strings.ReplaceAll(label, `"`, "#quot;")) + `"`
	}
	return label
}

// escapeHash encodes '#' when the label would otherwise decode differently.
func escapeHash(label string) string {
	if DecodeEntities(label) == label {
		return label
	}
	return strings.ReplaceAll(label, "#", "#35;")
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// escapeControls writes control runes as numeric entities, so a label never
// spans lines.
func escapeControls(s string) string {
	if !hasControl(s) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteString("#" + strconv.Itoa(int(r)) + ";")
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
