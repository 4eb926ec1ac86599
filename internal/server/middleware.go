package server

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

// logRequests logs one line per request and reports it to the HTTP hooks.
// Websocket upgrades are logged when the connection ends.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		m := httpsnoop.CaptureMetrics(next, w, r)

		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, m.Code, m.Written, m.Duration)
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		}
		if id := middleware.GetReqID(r.Context()); id != "" {
			fields = append(fields, "request_id", id)
		}
		switch {
		case m.Code >= 500:
			s.logger.Error("request", fields...)
		case m.Code >= 400:
			s.logger.Warn("request", fields...)
		default:
			s.logger.Debug("request", fields...)
		}
	})
}
