package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"

	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
)

// GraphvizRenderer lays out DOT source in-process with go-graphviz.
type GraphvizRenderer struct {
	logger *log.Logger
}

// NewGraphvizRenderer returns a Graphviz renderer. A nil logger discards output.
func NewGraphvizRenderer(logger *log.Logger) *GraphvizRenderer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &GraphvizRenderer{logger: logger}
}

// Render themes req.Source, lays it out with req.Engine and returns SVG.
func (r *GraphvizRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	engine := req.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	theme := req.Theme
	if theme == "" {
		theme = DefaultTheme
	}
	src := req.Source
	if src == "" {
		src = "digraph G {}"
	}
	src = InjectTheme(src, theme)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "graphviz: parse DOT")
	}
	if g == nil {
		return nil, ferrors.New(ferrors.ErrCodeRender, "graphviz: parse DOT: no graph in source")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "graphviz: render")
	}
	r.logger.Debug("rendered graphviz", "engine", engine, "theme", theme, "bytes", buf.Len())
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the image scales from a
// zero-origin viewBox instead of Graphviz's point-based width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	loc := svgTagRe.FindIndex(svg)
	out := make([]byte, 0, len(svg))
	out = append(out, svg[:loc[0]]...)
	out = append(out, root...)
	return append(out, svg[loc[1]:]...)
}
