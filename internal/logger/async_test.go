package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/windevexpert/windevexpert/internal/config"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	block   chan struct{}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestAsyncHandlerConcurrentWrites(t *testing.T) {
	const goroutines, perGoroutine = 50, 40

	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, goroutines*perGoroutine, 4)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "commande", 0))
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := inner.count(); got != goroutines*perGoroutine {
		t.Fatalf("records = %d, want %d", got, goroutines*perGoroutine)
	}
	if ah.DroppedCount() != 0 {
		t.Errorf("dropped = %d, want 0", ah.DroppedCount())
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	inner := &recordingHandler{block: make(chan struct{})}
	ah := NewAsyncHandler(inner, 1, 1)

	// The worker holds at most one record while blocked and the buffer holds
	// one more, so at least one of these is dropped.
	for range 4 {
		_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	}
	close(inner.block)
	ah.Close()

	if ah.DroppedCount() == 0 {
		t.Fatal("expected dropped records")
	}
	if got := inner.count() + int(ah.DroppedCount()); got != 4 {
		t.Errorf("handled + dropped = %d, want 4", got)
	}
}

func TestNewAsyncKeepsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newAsyncWithWriter(&buf, config.Logging{Level: "info", Service: "wde", Async: true, AsyncBuffer: 16})

	l.InfoContext(WithRequestID(context.Background(), "req-42"), "devis envoyé")
	closer.Close()

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) || !strings.Contains(out, `"service":"wde"`) {
		t.Errorf("output = %s", out)
	}
}
