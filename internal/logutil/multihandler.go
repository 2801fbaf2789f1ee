// Package logutil provides slog plumbing shared by the CLI: a fan-out
// handler so one logger can feed the console and a JSON log file at once.
package logutil

import (
	"context"
	"log/slog"
)

// MultiHandler duplicates every record to all wrapped handlers. Each
// handler keeps its own level filtering.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler wraps handlers in a fan-out handler.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports true when any wrapped handler accepts the level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every handler that accepts its level. The
// first error wins but does not stop the remaining handlers.
func (m *MultiHandler) Handle(ctx context.Context, rec slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs returns a MultiHandler whose wrapped handlers all carry attrs.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

// WithGroup returns a MultiHandler whose wrapped handlers all open group.
func (m *MultiHandler) WithGroup(group string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(group)
	}
	return &MultiHandler{handlers: next}
}
