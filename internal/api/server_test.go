package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koopa0/concierge/internal/log"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger: log.NewNop(),
		Engine: &stubRunner{result: testResult()},
	})
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	return srv
}

func TestNewServer(t *testing.T) {
	srv := testServer(t)
	if srv.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
}

func TestNewServerMissingEngine(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	if err == nil {
		t.Fatal("NewServer(nil engine) expected error, got nil")
	}
}

func TestHealthRoute(t *testing.T) {
	srv := testServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("GET /health body = %s, want status ok", w.Body.String())
	}
}

func TestReadyRouteWithoutPool(t *testing.T) {
	srv := testServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /ready status = %d, want %d without a pool", w.Code, http.StatusServiceUnavailable)
	}
}

func TestTurnRouteThroughStack(t *testing.T) {
	srv := testServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/turn",
		strings.NewReader(`{"sessionId":"s1","message":"hi","site":"us"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/turn status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set by middleware")
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /api/nope status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
