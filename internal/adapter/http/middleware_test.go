package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/windevexpert/windevexpert/internal/domain"
)

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS("https://www.exemple.fr")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/install", http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if called {
		t.Error("preflight reached the handler")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://www.exemple.fr" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(name) == "" {
			t.Errorf("missing %s", name)
		}
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var rw *responseWriter
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		rw = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rw == nil || rw.status != http.StatusTeapot {
		t.Fatalf("status not captured: %+v", rw)
	}
	if _, ok := rw.Unwrap().(*httptest.ResponseRecorder); !ok {
		t.Error("Unwrap does not return the inner writer")
	}
}

func TestErrorWriterDomain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("course 42: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("slug: %w", domain.ErrConflict), http.StatusConflict},
		{"validation", domain.Validationf("le titre est requis"), http.StatusBadRequest},
		{"other", http.ErrHandlerTimeout, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			errorWriter{}.domain(w, tt.err, "introuvable")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
