package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb/geojson"

	"mapa_rutas/core-go/internal/planner"
)

func getMapa(t *testing.T, h *Handler, tipo string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mapa/"+tipo, nil)
	h.Router().ServeHTTP(rr, req)
	return rr
}

func TestMapa_RiskLayerHasNoResponseNodes(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := getMapa(t, h, "riesgo")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "application/geo+json" {
		t.Fatalf("expected geo+json content type, got %q", got)
	}

	fc, err := geojson.UnmarshalFeatureCollection(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("decode feature collection: %v", err)
	}
	// 1 risk node + 3 normal nodes.
	if len(fc.Features) != 4 {
		t.Fatalf("expected 4 features, got %d", len(fc.Features))
	}
	for _, f := range fc.Features {
		if f.Properties["tipo"] == "respuesta" {
			t.Fatalf("risk layer should not include response node %v", f.Properties["id"])
		}
		if f.Geometry.GeoJSONType() != "Point" {
			t.Fatalf("expected point geometry, got %s", f.Geometry.GeoJSONType())
		}
	}
}

func TestMapa_PathsLayerIncludesRoutes(t *testing.T) {
	h, p := newTestHandler(t)
	if _, err := p.Compute(context.Background(), planner.Request{}); err != nil {
		t.Fatalf("compute: %v", err)
	}

	rr := getMapa(t, h, "CAMINOS")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	fc, err := geojson.UnmarshalFeatureCollection(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("decode feature collection: %v", err)
	}

	var lines int
	for _, f := range fc.Features {
		if f.Geometry.GeoJSONType() == "LineString" {
			lines++
			if f.Properties["origen"] != "D" || f.Properties["destino"] != "C" {
				t.Fatalf("unexpected route feature: %v", f.Properties)
			}
		}
	}
	if lines != 1 {
		t.Fatalf("expected 1 route line, got %d", lines)
	}
	if len(fc.Features) != 7 {
		t.Fatalf("expected 6 nodes + 1 route, got %d", len(fc.Features))
	}
}

func TestMapa_InvalidType_Returns400(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := getMapa(t, h, "banana")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	errObj := body["error"].(map[string]any)
	if errObj["code"] != "validation_failed" {
		t.Fatalf("expected validation_failed, got %v", errObj["code"])
	}
}
