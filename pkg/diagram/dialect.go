package diagram

import (
	"path/filepath"
	"strings"

	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
)

// Dialect names a diagram text language.
type Dialect string

const (
	// Flowchart is the Mermaid-style flowchart language.
	Flowchart Dialect = "flowchart"
	// DOT is the Graphviz graph description language.
	DOT Dialect = "dot"
)

// Dialects returns all supported dialects.
func Dialects() []Dialect {
	return []Dialect{Flowchart, DOT}
}

// Valid reports whether d is a supported dialect.
func (d Dialect) Valid() bool {
	return d == Flowchart || d == DOT
}

// Extension returns the conventional file extension, including the dot.
func (d Dialect) Extension() string {
	if d == DOT {
		return ".dot"
	}
	return ".mmd"
}

// ParseDialect resolves a user-supplied dialect name. Tool names are accepted
// as aliases: "mermaid" for the flowchart dialect and "graphviz" or "gv" for DOT.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flowchart", "mermaid", "mmd":
		return Flowchart, nil
	case "dot", "graphviz", "gv":
		return DOT, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidDialect, "unknown dialect %q (want flowchart or dot)", s)
}

// DialectFromPath infers the dialect from a file extension.
func DialectFromPath(path string) (Dialect, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mmd", ".mermaid":
		return Flowchart, true
	case ".dot", ".gv":
		return DOT, true
	}
	return "", false
}

// DiagramType is a diagram family offered to users.
type DiagramType string

// Diagram types. All but TypeGraphviz are written in the flowchart dialect's
// host language.
const (
	TypeFlowchart DiagramType = "flowchart"
	TypeSequence  DiagramType = "sequence"
	TypeClass     DiagramType = "class"
	TypeState     DiagramType = "state"
	TypeER        DiagramType = "er"
	TypeGantt     DiagramType = "gantt"
	TypePie       DiagramType = "pie"
	TypeGraphviz  DiagramType = "graphviz"
)

// DiagramTypes returns all diagram types in menu order.
func DiagramTypes() []DiagramType {
	return []DiagramType{
		TypeFlowchart, TypeSequence, TypeClass, TypeState,
		TypeER, TypeGantt, TypePie, TypeGraphviz,
	}
}

// ParseDiagramType resolves a diagram type name.
func ParseDiagramType(s string) (DiagramType, error) {
	t := DiagramType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DiagramTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidType, "unknown diagram type %q", s)
}

// Dialect returns the text dialect the diagram type is written in.
func (t DiagramType) Dialect() Dialect {
	if t == TypeGraphviz {
		return DOT
	}
	return Flowchart
}

// SupportsVisualEditing reports whether documents of this type can be edited
// as a node graph.
func (t DiagramType) SupportsVisualEditing() bool {
	return t == TypeFlowchart || t == TypeGraphviz
}

// Title returns a human-readable name for menus.
func (t DiagramType) Title() string {
	switch t {
	case TypeFlowchart:
		return "Flowchart"
	case TypeSequence:
		return "Sequence Diagram"
	case TypeClass:
		return "Class Diagram"
	case TypeState:
		return "State Diagram"
	case TypeER:
		return "Entity Relationship"
	case TypeGantt:
		return "Gantt Chart"
	case TypePie:
		return "Pie Chart"
	case TypeGraphviz:
		return "Graphviz"
	}
	return string(t)
}
