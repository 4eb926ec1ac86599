package dialect

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/dot"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/flowchart"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

// Diagnostic describes a skipped statement or a dropped edge.
type Diagnostic = syntax.Diagnostic

// Resolve selects how edge endpoints are matched to declarations.
type Resolve int

const (
	// SinglePass keeps an edge only if both endpoints were declared earlier
	// in the document.
	SinglePass Resolve = iota
	// TwoPass collects all declarations before resolving edges.
	TwoPass
)

func (r Resolve) String() string {
	if r == TwoPass {
		return "two-pass"
	}
	return "single-pass"
}

// ParseResolve parses "single-pass" or "two-pass". An empty string selects
// [SinglePass].
func ParseResolve(s string) (Resolve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single", "single-pass", "singlepass":
		return SinglePass, nil
	case "two", "two-pass", "twopass":
		return TwoPass, nil
	}
	return SinglePass, ferrors.New(ferrors.ErrCodeInvalidInput, "unknown resolve mode: %s (use single-pass or two-pass)", s)
}

// Options configures extraction.
type Options struct {
	// Previous maps source identifiers to node IDs from an earlier
	// extraction. Identifiers found here keep their ID.
	Previous map[string]string

	// Positions holds remembered canvas positions keyed by node ID.
	Positions map[string]diagram.Point

	Resolve Resolve

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Result is the outcome of an extraction.
type Result struct {
	Graph       *diagram.Graph
	Diagnostics []Diagnostic
	// IDs maps each declared source identifier to its node ID.
	IDs map[string]string
}

// codec binds a dialect's parser and emitter.
type codec struct {
	parse func(src string) ([]syntax.Decl, []syntax.Diagnostic)
	emit  func(g *diagram.Graph) (string, map[string]string)
}

var codecs = map[diagram.Dialect]codec{
	diagram.Flowchart: {
		parse: func(src string) ([]syntax.Decl, []syntax.Diagnostic) {
			f := flowchart.Parse(src)
			return f.Decls(), f.Diagnostics
		},
		emit: flowchart.Emit,
	},
	diagram.DOT: {
		parse: func(src string) ([]syntax.Decl, []syntax.Diagnostic) {
			f := dot.Parse(src)
			return f.Decls(), f.Diagnostics
		},
		emit: dot.Emit,
	},
}

var discard = log.New(io.Discard)

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return discard
	}
	return l
}

// Extract parses text in dialect d into a graph. See [ExtractContext].
func Extract(text string, d diagram.Dialect, opts Options) Result {
	return ExtractContext(context.Background(), text, d, opts)
}

// ExtractContext parses text in dialect d into a graph.
//
// It never returns an error: unparseable statements and unresolved edges are
// reported in [Result.Diagnostics]. A panic inside a codec is recovered and
// yields an empty graph with a single diagnostic.
func ExtractContext(ctx context.Context, text string, d diagram.Dialect, opts Options) (res Result) {
	l := logger(opts.Logger)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			l.Error("extraction panicked", "dialect", d, "panic", r)
			observability.Convert().OnPanic(ctx, string(d), "extract", r)
			res = Result{
				Graph:       diagram.New(),
				Diagnostics: []Diagnostic{syntax.Errorf(syntax.Pos{Line: 1, Col: 1}, "internal error: %v", r)},
				IDs:         map[string]string{},
			}
		}
		observability.Convert().OnExtract(ctx, string(d), len(res.Graph.Nodes), len(res.Graph.Edges), len(res.Diagnostics), time.Since(start))
	}()

	c, ok := codecs[d]
	if !ok {
		return Result{
			Graph:       diagram.New(),
			Diagnostics: []Diagnostic{syntax.Errorf(syntax.Pos{Line: 1, Col: 1}, "unknown dialect %q", d)},
			IDs:         map[string]string{},
		}
	}

	decls, diags := c.parse(text)
	b := newBuilder(opts)
	g := b.build(decls)

	diags = append(slices.Clone(diags), b.diags...)
	slices.SortStableFunc(diags, func(x, y Diagnostic) int {
		if n := cmp.Compare(x.Line, y.Line); n != 0 {
			return n
		}
		return cmp.Compare(x.Col, y.Col)
	})

	l.Debug("extracted graph",
		"dialect", d,
		"resolve", opts.Resolve,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"diagnostics", len(diags),
		"duration", time.Since(start))

	return Result{Graph: g, Diagnostics: diags, IDs: b.ids}
}

// Emit writes g in dialect d.
func Emit(g *diagram.Graph, d diagram.Dialect) (string, error) {
	text, _, err := EmitIDs(g, d)
	return text, err
}

// EmitIDs writes g in dialect d and returns the source identifier chosen for
// each node, keyed by identifier. Feeding the map to [Options.Previous]
// makes re-extraction of the text reproduce g's node IDs.
func EmitIDs(g *diagram.Graph, d diagram.Dialect) (text string, idents map[string]string, err error) {
	ctx := context.Background()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			observability.Convert().OnPanic(ctx, string(d), "emit", r)
			text, idents = "", nil
			err = ferrors.New(ferrors.ErrCodeInternal, "emit %s: %v", d, r)
		}
		nodes := 0
		if g != nil {
			nodes = len(g.Nodes)
		}
		observability.Convert().OnEmit(ctx, string(d), nodes, time.Since(start), err)
	}()

	c, ok := codecs[d]
	if !ok {
		return "", nil, ferrors.New(ferrors.ErrCodeInvalidDialect, "unknown dialect: %s", d)
	}
	if g == nil {
		g = diagram.New()
	}
	if err := g.Validate(); err != nil {
		return "", nil, ferrors.Wrap(ferrors.ErrCodeInvalidGraph, err, "cannot emit %s", d)
	}
	text, idents = c.emit(g)
	return text, idents, nil
}

// Convert extracts text in dialect from and emits the result in dialect to.
// Diagnostics from the extraction are returned alongside the text.
func Convert(text string, from, to diagram.Dialect) (string, []Diagnostic, error) {
	if _, ok := codecs[from]; !ok {
		return "", nil, ferrors.New(ferrors.ErrCodeInvalidDialect, "unknown dialect: %s", from)
	}
	res := Extract(text, from, Options{})
	out, err := Emit(res.Graph, to)
	if err != nil {
		return "", res.Diagnostics, fmt.Errorf("convert %s to %s: %w", from, to, err)
	}
	return out, res.Diagnostics, nil
}
