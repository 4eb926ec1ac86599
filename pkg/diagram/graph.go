package diagram

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNode is returned by node mutations when the ID is not found.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownSourceNode is returned by [Graph.Connect] when the source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.Connect] when the target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownEdge is returned by [Graph.Disconnect] when the edge ID is not found.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrDuplicateEdgeID is returned by [Graph.AddEdge] when an edge with the
	// same ID already exists.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrInvalidKind is returned when a node kind is not one of the known kinds.
	ErrInvalidKind = errors.New("invalid node kind")
)

// Kind classifies a node by its visual shape.
type Kind string

const (
	// KindProcess is a rectangular step.
	KindProcess Kind = "process"
	// KindDecision is a diamond-shaped branch.
	KindDecision Kind = "decision"
	// KindTerminal is a rounded start or end marker.
	KindTerminal Kind = "terminal"
)

// Kinds returns all node kinds in display order.
func Kinds() []Kind {
	return []Kind{KindProcess, KindDecision, KindTerminal}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindProcess, KindDecision, KindTerminal:
		return true
	}
	return false
}

// DefaultLabel is the label given to nodes created without one.
func (k Kind) DefaultLabel() string {
	switch k {
	case KindDecision:
		return "Decision"
	case KindTerminal:
		return "Start/End"
	default:
		return "Process"
	}
}

// ParseKind parses a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// Point is a position on the editing canvas. It has no effect on emitted text.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the diagram graph.
type Node struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Label    string `json:"label"`
	Position Point  `json:"position"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// EdgeID returns the canonical ID of the first edge from src to dst.
func EdgeID(src, dst string) string {
	return "e" + src + "-" + dst
}

// Graph is an ordered collection of nodes and edges.
//
// The zero value is an empty graph ready to use.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// New returns an empty graph whose slices encode as [] rather than null.
func New() *Graph {
	return &Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Nodes) }

// Empty reports whether the graph has no nodes and no edges.
func (g *Graph) Empty() bool { return len(g.Nodes) == 0 && len(g.Edges) == 0 }

func (g *Graph) nodeIndex(id string) int {
	return slices.IndexFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

func (g *Graph) edgeIndex(id string) int {
	return slices.IndexFunc(g.Edges, func(e Edge) bool { return e.ID == id })
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (Edge, bool) {
	if i := g.edgeIndex(id); i >= 0 {
		return g.Edges[i], true
	}
	return Edge{}, false
}

// AddNode appends n to the graph. An empty kind defaults to [KindProcess].
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Kind == "" {
		n.Kind = KindProcess
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, n.Kind)
	}
	if g.nodeIndex(n.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// RemoveNode deletes a node together with every edge touching it.
func (g *Graph) RemoveNode(id string) error {
	i := g.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.Nodes = slices.Delete(g.Nodes, i, i+1)
	g.Edges = slices.DeleteFunc(g.Edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
	return nil
}

// MoveNode sets the canvas position of a node.
func (g *Graph) MoveNode(id string, p Point) error {
	i := g.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.Nodes[i].Position = p
	return nil
}

// SetLabel replaces the label of a node.
func (g *Graph) SetLabel(id, label string) error {
	i := g.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.Nodes[i].Label = label
	return nil
}

// SetKind replaces the kind of a node.
func (g *Graph) SetKind(id string, k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, k)
	}
	i := g.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.Nodes[i].Kind = k
	return nil
}

// AddEdge appends e to the graph. When e.ID is empty a unique ID is derived
// from the endpoints.
func (g *Graph) AddEdge(e Edge) (Edge, error) {
	if g.nodeIndex(e.Source) < 0 {
		return Edge{}, fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.Source)
	}
	if g.nodeIndex(e.Target) < 0 {
		return Edge{}, fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.Target)
	}
	if e.ID == "" {
		e.ID = g.uniqueEdgeID(e.Source, e.Target)
	} else if g.edgeIndex(e.ID) >= 0 {
		return Edge{}, fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
	}
	g.Edges = append(g.Edges, e)
	return e, nil
}

// Connect adds an edge from src to dst and returns it.
func (g *Graph) Connect(src, dst, label string) (Edge, error) {
	return g.AddEdge(Edge{Source: src, Target: dst, Label: label})
}

// Disconnect removes the edge with the given ID.
func (g *Graph) Disconnect(edgeID string) error {
	i := g.edgeIndex(edgeID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownEdge, edgeID)
	}
	g.Edges = slices.Delete(g.Edges, i, i+1)
	return nil
}

func (g *Graph) uniqueEdgeID(src, dst string) string {
	base := EdgeID(src, dst)
	if g.edgeIndex(base) < 0 {
		return base
	}
	for n := 2; ; n++ {
		id := base + "#" + strconv.Itoa(n)
		if g.edgeIndex(id) < 0 {
			return id
		}
	}
}

// NextID returns one more than the largest numeric node ID, starting at "1".
// Non-numeric IDs are ignored.
func (g *Graph) NextID() string {
	hi := 0
	for _, n := range g.Nodes {
		if v, err := strconv.Atoi(n.ID); err == nil && v > hi {
			hi = v
		}
	}
	return strconv.Itoa(hi + 1)
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	return &Graph{
		Nodes: append([]Node{}, g.Nodes...),
		Edges: append([]Edge{}, g.Edges...),
	}
}

// Validate checks the graph invariants and returns the first violation.
func (g *Graph) Validate() error {
	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return ErrInvalidNodeID
		}
		if nodes[n.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		if !n.Kind.Valid() {
			return fmt.Errorf("node %s: %w: %q", n.ID, ErrInvalidKind, n.Kind)
		}
		nodes[n.ID] = true
	}
	edges := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if !nodes[e.Source] {
			return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownSourceNode, e.Source)
		}
		if !nodes[e.Target] {
			return fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownTargetNode, e.Target)
		}
		if edges[e.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
		}
		edges[e.ID] = true
	}
	return nil
}

// Successors returns the IDs of nodes reachable by one outgoing edge, in edge order.
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}
