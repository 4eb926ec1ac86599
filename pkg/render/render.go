// Package render turns diagram source text into images.
//
// Graphviz DOT is laid out in-process by [GraphvizRenderer]. Flowchart
// dialect text (and every other Mermaid diagram type) is handed to the
// external Mermaid CLI by [MermaidRenderer]. Both produce SVG; [ToPNG] and
// [ToPDF] convert SVG with rsvg-convert.
//
//	d := render.NewDispatcher(render.NewGraphvizRenderer(logger), render.NewMermaidRenderer("", logger))
//	svg, err := d.Render(ctx, render.Request{Source: src, Dialect: diagram.DOT, Theme: "dark"})
//
// Failures carry the RENDER_FAILED or EXPORT_FAILED error codes with the
// tool's own message, and never affect anything beyond the failed call.
package render

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

// Request describes one render.
type Request struct {
	Source  string          `json:"source"`
	Dialect diagram.Dialect `json:"dialect"`
	// Theme is a Graphviz theme for DOT or a Mermaid theme otherwise.
	// Empty selects "default".
	Theme string `json:"theme,omitempty"`
	// Engine is the Graphviz layout engine. Ignored for Mermaid.
	Engine string `json:"engine,omitempty"`
}

// Renderer produces SVG from diagram source.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

// =============================================================================
// Themes and engines
// =============================================================================

// Engines lists the Graphviz layout engines.
var Engines = []string{"dot", "neato", "fdp", "circo", "twopi", "sfdp", "osage"}

// DefaultEngine is used when a request names no engine.
const DefaultEngine = "dot"

// DefaultTheme is used when a request names no theme.
const DefaultTheme = "default"

// MermaidThemes lists the built-in Mermaid themes.
var MermaidThemes = []string{"default", "forest", "dark", "neutral", "base"}

// Themes returns the theme names available for dialect d.
func Themes(d diagram.Dialect) []string {
	if d == diagram.DOT {
		return GraphvizThemeNames
	}
	return MermaidThemes
}

// Normalize fills in defaults and validates the theme and engine of req.
func Normalize(req Request) (Request, error) {
	if !req.Dialect.Valid() {
		return req, ferrors.New(ferrors.ErrCodeInvalidDialect, "unknown dialect: %q", req.Dialect)
	}
	if err := ferrors.ValidateSource(req.Source); err != nil {
		return req, err
	}

	req.Theme = strings.ToLower(strings.TrimSpace(req.Theme))
	if req.Theme == "" {
		req.Theme = DefaultTheme
	}
	if !slices.Contains(Themes(req.Dialect), req.Theme) {
		return req, ferrors.New(ferrors.ErrCodeInvalidTheme, "unknown %s theme %q (available: %s)",
			req.Dialect, req.Theme, strings.Join(Themes(req.Dialect), ", "))
	}

	if req.Dialect != diagram.DOT {
		req.Engine = ""
		return req, nil
	}
	req.Engine = strings.ToLower(strings.TrimSpace(req.Engine))
	if req.Engine == "" {
		req.Engine = DefaultEngine
	}
	if !slices.Contains(Engines, req.Engine) {
		return req, ferrors.New(ferrors.ErrCodeInvalidEngine, "unknown layout engine %q (available: %s)",
			req.Engine, strings.Join(Engines, ", "))
	}
	return req, nil
}

// =============================================================================
// Dispatcher
// =============================================================================

// Dispatcher routes a request to the renderer for its dialect.
type Dispatcher struct {
	graphviz Renderer
	mermaid  Renderer
}

// NewDispatcher returns a dispatcher. Either renderer may be nil, in which
// case requests for that dialect fail with UNSUPPORTED.
func NewDispatcher(graphviz, mermaid Renderer) *Dispatcher {
	return &Dispatcher{graphviz: graphviz, mermaid: mermaid}
}

// Render normalizes req and renders it with the matching renderer.
func (d *Dispatcher) Render(ctx context.Context, req Request) ([]byte, error) {
	req, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	name, r := "mermaid", d.mermaid
	if req.Dialect == diagram.DOT {
		name, r = "graphviz", d.graphviz
	}
	if r == nil {
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "%s rendering is not available", name)
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, name, string(FormatSVG))
	start := time.Now()
	svg, err := r.Render(ctx, req)
	hooks.OnRenderComplete(ctx, name, string(FormatSVG), len(svg), time.Since(start), err)
	return svg, err
}
