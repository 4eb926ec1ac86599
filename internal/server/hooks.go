package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

// LogHooks writes render, cache, session and conversion events to a logger.
type LogHooks struct {
	Logger *log.Logger
}

// RegisterLogHooks installs [LogHooks] for every event category except
// HTTP, which the request middleware already logs.
func RegisterLogHooks(logger *log.Logger) *LogHooks {
	h := &LogHooks{Logger: logger}
	observability.SetConvertHooks(h)
	observability.SetRenderHooks(h)
	observability.SetSessionHooks(h)
	observability.SetCacheHooks(h)
	return h
}

func (h *LogHooks) OnExtract(_ context.Context, dialect string, nodes, edges, diagnostics int, d time.Duration) {
	h.Logger.Debug("extracted", "dialect", dialect, "nodes", nodes, "edges", edges, "diagnostics", diagnostics, "duration", d)
}

func (h *LogHooks) OnEmit(_ context.Context, dialect string, nodes int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("emit failed", "dialect", dialect, "nodes", nodes, "err", err)
		return
	}
	h.Logger.Debug("emitted", "dialect", dialect, "nodes", nodes, "duration", d)
}

func (h *LogHooks) OnPanic(_ context.Context, dialect, op string, recovered any) {
	h.Logger.Error("converter panic", "dialect", dialect, "op", op, "panic", recovered)
}

func (h *LogHooks) OnRenderStart(_ context.Context, renderer, format string) {
	h.Logger.Debug("render started", "renderer", renderer, "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, renderer, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("render failed", "renderer", renderer, "duration", d, "err", err)
		return
	}
	h.Logger.Info("rendered", "renderer", renderer, "format", format, "bytes", size, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnReconcile(_ context.Context, direction string, d time.Duration) {
	h.Logger.Debug("reconciled", "direction", direction, "duration", d)
}

func (h *LogHooks) OnSessionOpen(_ context.Context, id string) {
	h.Logger.Debug("session hook: open", "session", id)
}

func (h *LogHooks) OnSessionClose(_ context.Context, id string, d time.Duration) {
	h.Logger.Debug("session hook: close", "session", id, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}
