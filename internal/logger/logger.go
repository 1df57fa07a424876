// Package logger provides structured logging setup for WinDevExpert.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/windevexpert/windevexpert/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record and the
// request id of the record's context, when present.
func New(cfg config.Logging) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter is New with an explicit output, used by tests and the CLI.
func NewWithWriter(w io.Writer, cfg config.Logging) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(&contextHandler{Handler: handler}).With("service", cfg.Service)
}

// NewAsync is New behind an AsyncHandler when cfg.Async is set. The returned
// Closer flushes pending records and must be called before exit.
func NewAsync(cfg config.Logging) (*slog.Logger, Closer) {
	return newAsyncWithWriter(os.Stdout, cfg)
}

func newAsyncWithWriter(w io.Writer, cfg config.Logging) (*slog.Logger, Closer) {
	if !cfg.Async {
		return NewWithWriter(w, cfg), nopCloser{}
	}
	async := NewAsyncHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}), cfg.AsyncBuffer, 1)
	return slog.New(&contextHandler{Handler: async}).With("service", cfg.Service), async
}

// contextHandler copies request-scoped values from the context onto records.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if id := RequestID(ctx); id != "" {
		rec.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
