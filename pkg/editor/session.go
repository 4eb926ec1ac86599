// Package editor keeps diagram text and its node graph consistent while
// either side is being edited.
//
// A [Session] holds the graph as the source of truth together with the last
// text the user typed. Text edits are re-extracted, and graph edits are
// re-emitted, once the session has been quiet for [Options.Quiet]. Only one
// direction is ever pending: an edit on one side cancels a pending
// reconciliation of the other. Emission writes the text directly and never
// triggers a re-extraction, so the two sides cannot feed back into each other.
package editor

import (
	"context"
	"errors"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

// DefaultQuiet is the debounce interval used when [Options.Quiet] is zero.
const DefaultQuiet = 500 * time.Millisecond

// ErrClosed is returned by every mutation after [Session.Close].
var ErrClosed = errors.New("editor: session closed")

// State reports which reconciliation, if any, is pending.
type State int

const (
	Idle State = iota
	PendingTextToGraph
	PendingGraphToText
)

func (s State) String() string {
	switch s {
	case PendingTextToGraph:
		return "pending_text_to_graph"
	case PendingGraphToText:
		return "pending_graph_to_text"
	default:
		return "idle"
	}
}

// UpdateKind says which side of the session a reconciliation rewrote.
type UpdateKind string

const (
	// UpdateGraph follows a text→graph extraction.
	UpdateGraph UpdateKind = "graph"
	// UpdateText follows a graph→text emission.
	UpdateText UpdateKind = "text"
)

// Update is delivered to [Options.OnUpdate] after each reconciliation.
// Graph is a copy owned by the receiver.
type Update struct {
	Kind        UpdateKind
	Text        string
	Graph       *diagram.Graph
	Diagnostics []dialect.Diagnostic
	// Seq increases with every reconciliation of the session.
	Seq uint64
}

// Options configures a [Session].
type Options struct {
	Dialect diagram.Dialect
	Quiet   time.Duration
	Resolve dialect.Resolve
	Logger  *log.Logger

	// OnUpdate is called after each reconciliation, outside the session
	// lock and in reconciliation order. It must not call [Session.Flush].
	OnUpdate func(Update)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Text        string
	Graph       *diagram.Graph
	Diagnostics []dialect.Diagnostic
	State       State
}

// Session is a live text/graph editing session. It is safe for concurrent use.
type Session struct {
	opts Options
	log  *log.Logger

	mu     sync.Mutex
	text   string
	graph  *diagram.Graph
	ids    map[string]string
	diags  []dialect.Diagnostic
	state  State
	gen    uint64
	seq    uint64
	timer  *time.Timer
	closed bool

	// notifyMu orders listener calls without holding mu.
	notifyMu sync.Mutex
}

// New starts a session on text. The initial extraction runs synchronously
// and does not notify OnUpdate.
func New(text string, opts Options) (*Session, error) {
	if !opts.Dialect.Valid() {
		return nil, ferrors.New(ferrors.ErrCodeInvalidDialect, "unknown dialect: %q", opts.Dialect)
	}
	if err := ferrors.ValidateSource(text); err != nil {
		return nil, err
	}
	if opts.Quiet <= 0 {
		opts.Quiet = DefaultQuiet
	}
	l := opts.Logger
	if l == nil {
		l = log.New(io.Discard)
	}

	s := &Session{opts: opts, log: l, text: text}
	res := s.extract(text)
	s.graph, s.ids, s.diags = res.Graph, res.IDs, res.Diagnostics
	return s, nil
}

// Dialect returns the dialect of the session text.
func (s *Session) Dialect() diagram.Dialect { return s.opts.Dialect }

// =============================================================================
// Text edits
// =============================================================================

// SetText replaces the text and schedules re-extraction. A burst of calls
// results in a single extraction of the last text.
func (s *Session) SetText(text string) error {
	if err := ferrors.ValidateSource(text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.text = text
	s.schedule(PendingTextToGraph)
	return nil
}

// =============================================================================
// Graph edits
// =============================================================================

// AddNode appends a node with the next free ID and returns it. An empty label
// becomes the kind's default label.
func (s *Session) AddNode(kind diagram.Kind, label string) (diagram.Node, error) {
	if kind == "" {
		kind = diagram.KindProcess
	}
	if !kind.Valid() {
		return diagram.Node{}, ferrors.New(ferrors.ErrCodeInvalidInput, "invalid node kind: %q", kind)
	}
	if label == "" {
		label = kind.DefaultLabel()
	}
	if err := ferrors.ValidateLabel(label); err != nil {
		return diagram.Node{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return diagram.Node{}, ErrClosed
	}
	id := s.graph.NextID()
	n := diagram.Node{ID: id, Kind: kind, Label: label, Position: diagram.GridPosition(atoi(id))}
	if err := s.graph.AddNode(n); err != nil {
		return diagram.Node{}, mapGraphError(err)
	}
	s.schedule(PendingGraphToText)
	return n, nil
}

// RemoveNode deletes a node and its edges.
func (s *Session) RemoveNode(id string) error {
	return s.edit(func(g *diagram.Graph) error { return g.RemoveNode(id) })
}

// MoveNode sets a node's canvas position. The emitted text does not change,
// but the move still counts as a graph edit.
func (s *Session) MoveNode(id string, p diagram.Point) error {
	return s.edit(func(g *diagram.Graph) error { return g.MoveNode(id, p) })
}

// SetLabel relabels a node.
func (s *Session) SetLabel(id, label string) error {
	if err := ferrors.ValidateLabel(label); err != nil {
		return err
	}
	return s.edit(func(g *diagram.Graph) error { return g.SetLabel(id, label) })
}

// SetKind changes a node's kind.
func (s *Session) SetKind(id string, k diagram.Kind) error {
	return s.edit(func(g *diagram.Graph) error { return g.SetKind(id, k) })
}

// Connect adds an edge and returns it.
func (s *Session) Connect(src, dst, label string) (diagram.Edge, error) {
	if err := ferrors.ValidateLabel(label); err != nil {
		return diagram.Edge{}, err
	}
	var e diagram.Edge
	err := s.edit(func(g *diagram.Graph) error {
		var err error
		e, err = g.Connect(src, dst, label)
		return err
	})
	return e, err
}

// Disconnect removes an edge by ID.
func (s *Session) Disconnect(edgeID string) error {
	return s.edit(func(g *diagram.Graph) error { return g.Disconnect(edgeID) })
}

func (s *Session) edit(fn func(*diagram.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := fn(s.graph); err != nil {
		return mapGraphError(err)
	}
	s.schedule(PendingGraphToText)
	return nil
}

// =============================================================================
// Reconciliation
// =============================================================================

// schedule makes dir the pending direction and restarts the quiet timer.
// Any earlier timer is invalidated by the generation bump even if it has
// already fired. Callers hold mu.
func (s *Session) schedule(dir State) {
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = dir
	s.timer = time.AfterFunc(s.opts.Quiet, func() { s.fire(gen) })
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.state == Idle {
		s.mu.Unlock()
		return
	}
	u := s.reconcile()
	s.notifyMu.Lock()
	s.mu.Unlock()
	s.notify(u)
	s.notifyMu.Unlock()
}

// Flush runs any pending reconciliation now.
func (s *Session) Flush() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == Idle {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	u := s.reconcile()
	s.notifyMu.Lock()
	s.mu.Unlock()
	s.notify(u)
	s.notifyMu.Unlock()
	return nil
}

// reconcile applies the pending direction. Callers hold mu.
func (s *Session) reconcile() Update {
	start := time.Now()
	dir := s.state
	s.state = Idle
	s.timer = nil
	s.seq++

	var u Update
	switch dir {
	case PendingTextToGraph:
		res := s.extract(s.text)
		s.graph, s.ids, s.diags = res.Graph, res.IDs, res.Diagnostics
		u = Update{Kind: UpdateGraph}
		observability.Session().OnReconcile(context.Background(), "text_to_graph", time.Since(start))
	case PendingGraphToText:
		text, idents, err := dialect.EmitIDs(s.graph, s.opts.Dialect)
		if err != nil {
			// Graph edits go through validated mutations, so this only
			// happens on an internal error. Keep the previous text.
			s.log.Error("emit failed", "dialect", s.opts.Dialect, "err", err)
		} else {
			s.text, s.ids, s.diags = text, idents, nil
		}
		u = Update{Kind: UpdateText}
		observability.Session().OnReconcile(context.Background(), "graph_to_text", time.Since(start))
	}

	u.Text = s.text
	u.Graph = s.graph.Clone()
	u.Diagnostics = slices.Clone(s.diags)
	u.Seq = s.seq
	s.log.Debug("reconciled", "kind", u.Kind, "seq", u.Seq, "nodes", len(u.Graph.Nodes), "duration", time.Since(start))
	return u
}

func (s *Session) extract(text string) dialect.Result {
	positions := make(map[string]diagram.Point)
	if s.graph != nil {
		for _, n := range s.graph.Nodes {
			positions[n.ID] = n.Position
		}
	}
	return dialect.Extract(text, s.opts.Dialect, dialect.Options{
		Previous:  s.ids,
		Positions: positions,
		Resolve:   s.opts.Resolve,
		Logger:    s.log,
	})
}

func (s *Session) notify(u Update) {
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(u)
	}
}

// =============================================================================
// Inspection
// =============================================================================

// Snapshot returns copies of the text, graph and diagnostics.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Text:        s.text,
		Graph:       s.graph.Clone(),
		Diagnostics: slices.Clone(s.diags),
		State:       s.state,
	}
}

// State returns the pending reconciliation direction.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close cancels any pending reconciliation. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.gen++
	s.state = Idle
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return nil
}

func mapGraphError(err error) error {
	switch {
	case errors.Is(err, diagram.ErrUnknownNode),
		errors.Is(err, diagram.ErrUnknownSourceNode),
		errors.Is(err, diagram.ErrUnknownTargetNode):
		return ferrors.Wrap(ferrors.ErrCodeNodeNotFound, err, "node not found")
	case errors.Is(err, diagram.ErrUnknownEdge):
		return ferrors.Wrap(ferrors.ErrCodeEdgeNotFound, err, "edge not found")
	case errors.Is(err, diagram.ErrInvalidKind):
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid node kind")
	case errors.Is(err, diagram.ErrInvalidNodeID),
		errors.Is(err, diagram.ErrDuplicateNodeID),
		errors.Is(err, diagram.ErrDuplicateEdgeID):
		return ferrors.Wrap(ferrors.ErrCodeInvalidGraph, err, "invalid graph edit")
	}
	return err
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
