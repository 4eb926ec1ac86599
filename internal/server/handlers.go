package server

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hanhandi-git/flowchartRenderer/pkg/buildinfo"
	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
	ferrors "github.com/hanhandi-git/flowchartRenderer/pkg/errors"
	"github.com/hanhandi-git/flowchartRenderer/pkg/examples"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

type healthResponse struct {
	Status   string         `json:"status"`
	Build    buildinfo.Info `json:"build"`
	Sessions int            `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get(), Sessions: s.Sessions()})
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, examples.All())
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	ex, err := examples.Lookup(chi.URLParam(r, "type"))
	if err != nil {
		if ferrors.Is(err, ferrors.ErrCodeInvalidType) {
			err = ferrors.Wrap(ferrors.ErrCodeNotFound, err, "no such example")
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ex)
}

// =============================================================================
// Extract / Emit / Convert
// =============================================================================

type extractRequest struct {
	Source  string `json:"source"`
	Dialect string `json:"dialect"`
	Resolve string `json:"resolve,omitempty"`
}

type extractResponse struct {
	Graph       *diagram.Graph       `json:"graph"`
	Diagnostics []dialect.Diagnostic `json:"diagnostics"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := diagram.ParseDialect(req.Dialect)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := ferrors.ValidateSource(req.Source); err != nil {
		s.writeError(w, err)
		return
	}
	mode := s.opts.Resolve
	if req.Resolve != "" {
		if mode, err = dialect.ParseResolve(req.Resolve); err != nil {
			s.writeError(w, err)
			return
		}
	}

	res := dialect.ExtractContext(r.Context(), req.Source, d, dialect.Options{Resolve: mode, Logger: s.logger})
	s.writeJSON(w, http.StatusOK, extractResponse{Graph: res.Graph, Diagnostics: nonNil(res.Diagnostics)})
}

type emitRequest struct {
	Graph   json.RawMessage `json:"graph"`
	Dialect string          `json:"dialect"`
}

type sourceResponse struct {
	Source      string               `json:"source"`
	Diagnostics []dialect.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) handleEmit(w http.ResponseWriter, r *http.Request) {
	var req emitRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := diagram.ParseDialect(req.Dialect)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g := diagram.New()
	if len(req.Graph) > 0 && string(req.Graph) != "null" {
		if g, err = diagram.ReadJSON(bytes.NewReader(req.Graph)); err != nil {
			s.writeError(w, ferrors.Wrap(ferrors.ErrCodeInvalidGraph, err, "invalid graph"))
			return
		}
	}
	text, err := dialect.Emit(g, d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sourceResponse{Source: text})
}

type convertRequest struct {
	Source string `json:"source"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	from, err := diagram.ParseDialect(req.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := diagram.ParseDialect(req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := ferrors.ValidateSource(req.Source); err != nil {
		s.writeError(w, err)
		return
	}
	text, diags, err := dialect.Convert(req.Source, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sourceResponse{Source: text, Diagnostics: diags})
}

// =============================================================================
// Render
// =============================================================================

type renderRequest struct {
	Source  string  `json:"source"`
	Dialect string  `json:"dialect"`
	Theme   string  `json:"theme,omitempty"`
	Engine  string  `json:"engine,omitempty"`
	Format  string  `json:"format,omitempty"`
	Scale   float64 `json:"scale,omitempty"`

	// Filename, when set, makes the response a download named
	// <filename>.<format>.
	Filename string `json:"filename,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if s.opts.Renderer == nil {
		s.writeError(w, ferrors.New(ferrors.ErrCodeUnsupported, "rendering is not configured"))
		return
	}
	d, err := diagram.ParseDialect(req.Dialect)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Filename != "" {
		if err := ferrors.ValidateOutputName(req.Filename); err != nil {
			s.writeError(w, err)
			return
		}
	}

	svg, err := s.opts.Renderer.Render(r.Context(), render.Request{
		Source:  req.Source,
		Dialect: d,
		Theme:   req.Theme,
		Engine:  req.Engine,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.opts.Renderer.Export(r.Context(), svg, format, req.Scale)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if req.Filename != "" {
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": req.Filename + "." + string(format)}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
