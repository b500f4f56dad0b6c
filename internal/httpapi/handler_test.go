package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mapa_rutas/core-go/internal/metrics"
	"mapa_rutas/core-go/internal/planner"
)

func newTestHandler(t *testing.T) (*Handler, *planner.Planner) {
	t.Helper()
	p := planner.New(nil, planner.Options{})
	return NewHandler(NewLogger("disabled"), p, Options{Metrics: metrics.New()}), p
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode body as json: %v\nbody=%s", err, rr.Body.String())
	}
	return v
}

func post(t *testing.T, h *Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	h.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthz_OK(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	h.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("expected json content-type, got %q", got)
	}

	// Request ID should be set in responses by middleware.
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestReadyz_WithoutPlanner(t *testing.T) {
	h := NewHandler(NewLogger("disabled"), nil, Options{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	h.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	errObj, ok := body["error"].(map[string]any)
	if !ok || errObj["code"] != "planner_unavailable" {
		t.Fatalf("expected planner_unavailable envelope, got %v", body)
	}
}

func TestCalcularRutas_TabBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := post(t, h, "/api/calcular-rutas", `{"tipoMapa":"caminos","kilometraje":10}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["status"] != "success" {
		t.Fatalf("expected success status, got %v", body["status"])
	}
	rutas, ok := body["rutas"].([]any)
	if !ok || len(rutas) != 1 {
		t.Fatalf("expected one route, got %T %v", body["rutas"], body["rutas"])
	}
	first := rutas[0].(map[string]any)
	if first["origen"] != "D" || first["destino"] != "C" || first["distancia"] != 8.94 {
		t.Fatalf("unexpected route: %v", first)
	}
}

func TestCalcularRutas_NodeListBody(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"nodosRespuesta":[{"id":"A","x":20,"y":30,"tipo":"respuesta"}],` +
		`"nodosRiesgo":[{"id":"C","x":80,"y":50,"tipo":"riesgo"}],"kilometraje":20}`
	rr := post(t, h, "/api/calcular-rutas", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rutas := decodeBody(t, rr)["rutas"].([]any)
	if len(rutas) != 1 || rutas[0].(map[string]any)["origen"] != "A" {
		t.Fatalf("expected A->C, got %v", rutas)
	}
}

func TestCalcularRutas_EmptyResultIsSuccess(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := post(t, h, "/api/calcular-rutas", `{"mapType":"caminos","distanceBudget":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	rutas, ok := decodeBody(t, rr)["rutas"].([]any)
	if !ok || len(rutas) != 0 {
		t.Fatalf("expected empty rutas array, got %v", rutas)
	}
}

func TestCalcularRutas_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := map[string]string{
		"bad map type":  `{"tipoMapa":"banana"}`,
		"negative km":   `{"kilometraje":-5}`,
		"unknown node":  `{"nodosRiesgo":[{"id":"Z","x":1,"y":1,"tipo":"riesgo"}]}`,
		"unknown field": `{"foo":1}`,
	}
	for name, body := range cases {
		rr := post(t, h, "/api/calcular-rutas", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rr.Code, rr.Body.String())
		}
		got := decodeBody(t, rr)
		if got["status"] != "error" {
			t.Fatalf("%s: expected status error, got %v", name, got["status"])
		}
		if got["error"].(map[string]any)["code"] != "validation_failed" {
			t.Fatalf("%s: expected validation_failed, got %v", name, got["error"])
		}
	}
}

func TestCambiarKilometraje_UpdatesPlanner(t *testing.T) {
	h, p := newTestHandler(t)

	rr := post(t, h, "/api/cambiar-kilometraje", `{"kilometraje":42.5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != "success" || body["kilometraje"] != 42.5 {
		t.Fatalf("unexpected body: %v", body)
	}
	if p.Budget() != 42.5 {
		t.Fatalf("expected planner budget 42.5, got %v", p.Budget())
	}
}

func TestCambiarKilometraje_RejectsNonPositive(t *testing.T) {
	h, p := newTestHandler(t)

	for _, body := range []string{`{"kilometraje":0}`, `{"kilometraje":-1}`, `{}`, `not json`} {
		rr := post(t, h, "/api/cambiar-kilometraje", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rr.Code)
		}
		if decodeBody(t, rr)["status"] != "error" {
			t.Fatalf("%s: expected status error", body)
		}
	}
	if p.Budget() != planner.DefaultBudgetKm {
		t.Fatalf("expected budget unchanged, got %v", p.Budget())
	}
}

func TestLimpiarRuta_ClearsRoutes(t *testing.T) {
	h, p := newTestHandler(t)

	if rr := post(t, h, "/api/calcular-rutas", `{}`); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(p.Routes()) == 0 {
		t.Fatalf("expected routes to be stored before clearing")
	}

	rr := post(t, h, "/api/limpiar-ruta", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if decodeBody(t, rr)["status"] != "success" {
		t.Fatalf("expected success")
	}
	if len(p.Routes()) != 0 {
		t.Fatalf("expected routes to be cleared, got %v", p.Routes())
	}
}

func TestMetricsEndpoint_CountsRequests(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.Router()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/limpiar-ruta", nil))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `mapa_http_requests_total{method="POST",path="/api/limpiar-ruta",status="200"} 1`) {
		t.Fatalf("expected request counter for limpiar-ruta; body=%s", rr.Body.String())
	}
}

func TestCORS_Preflight(t *testing.T) {
	p := planner.New(nil, planner.Options{})
	h := NewHandler(NewLogger("disabled"), p, Options{CORSOrigins: []string{"http://dash.local"}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/calcular-rutas", nil)
	req.Header.Set("Origin", "http://dash.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	h.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://dash.local" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}
