package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ShipCreekGroup/email-parser/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfgMgr, err := config.NewManager("")
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	srv, err := New(Config{
		ConfigManager: cfgMgr,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

func TestNewDefaults(t *testing.T) {
	srv := newTestServer(t)

	if srv.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", srv.Addr())
	}
	if srv.IsRunning() {
		t.Error("server should not be running before Start")
	}
}

func TestNewRequiresConfigManager(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New() without config manager should fail")
	}
}

func TestHandlerServesHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
}

func TestHandlerInjectsServices(t *testing.T) {
	srv := newTestServer(t)

	// /status needs the provider registry from request context, so a 200
	// with the configured default provider proves the middleware ran.
	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var status struct {
		Server    string   `json:"server"`
		Providers []string `json:"providers"`
		Default   string   `json:"default_provider"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("status body: %v", err)
	}
	if status.Default != "openai" {
		t.Errorf("default provider = %q, want openai", status.Default)
	}
	if len(status.Providers) == 0 {
		t.Error("no providers registered from default config")
	}
}
