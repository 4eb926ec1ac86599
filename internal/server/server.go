// Package server exposes extraction, emission, conversion, rendering and
// live editing sessions over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /api/v1/examples
//	GET  /api/v1/examples/{type}
//	POST /api/v1/extract
//	POST /api/v1/emit
//	POST /api/v1/convert
//	POST /api/v1/render
//	GET  /api/v1/session   (websocket)
//
// Errors are returned as {"code", "message"} with a status derived from the
// error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect"
	"github.com/hanhandi-git/flowchartRenderer/pkg/editor"
	"github.com/hanhandi-git/flowchartRenderer/pkg/render"
)

const (
	// DefaultMaxBody bounds request bodies.
	DefaultMaxBody = 2 << 20

	shutdownTimeout = 10 * time.Second
)

// Renderer renders source to SVG and converts SVG to other formats.
// [*render.Cached] implements it.
type Renderer interface {
	Render(ctx context.Context, req render.Request) ([]byte, error)
	Export(ctx context.Context, svg []byte, format render.Format, scale float64) ([]byte, error)
}

// Options configures a [Server].
type Options struct {
	Renderer Renderer
	Logger   *log.Logger
	// Quiet is the debounce interval of websocket editing sessions.
	Quiet time.Duration
	// Resolve is the default edge resolution mode.
	Resolve dialect.Resolve
	// MaxBody bounds request bodies; zero uses DefaultMaxBody.
	MaxBody int64
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	logger *log.Logger
	router chi.Router

	mu       sync.Mutex
	sessions map[string]*wsSession
}

// New builds a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Quiet <= 0 {
		opts.Quiet = editor.DefaultQuiet
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*wsSession),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/examples", s.handleExamples)
		r.Get("/examples/{type}", s.handleExample)
		r.Get("/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/extract", s.handleExtract)
			r.Post("/emit", s.handleEmit)
			r.Post("/convert", s.handleConvert)
			r.Post("/render", s.handleRender)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes any open editing sessions.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	err := srv.Shutdown(shutdownCtx)
	s.closeSessions()
	return err
}

// Sessions returns the number of open editing sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) track(ws *wsSession) {
	s.mu.Lock()
	s.sessions[ws.id] = ws
	s.mu.Unlock()
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	open := make([]*wsSession, 0, len(s.sessions))
	for _, ws := range s.sessions {
		open = append(open, ws)
	}
	s.mu.Unlock()
	for _, ws := range open {
		ws.cancel()
	}
}
