package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mapa_rutas/core-go/internal/config"
)

func TestNewServer_UsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.HTTPAddr = ":0"
	cfg.DefaultKm = 25

	srv, p := newServer(cfg, zerolog.Nop())
	if srv.Addr != ":0" {
		t.Fatalf("expected configured addr, got %q", srv.Addr)
	}
	if p.Budget() != 25 {
		t.Fatalf("expected planner budget 25, got %v", p.Budget())
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "mapa_distance_budget_km 25") {
		t.Fatalf("expected budget gauge in metrics, got %d %q", rr.Code, rr.Body.String())
	}
}
