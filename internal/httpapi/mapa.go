package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"mapa_rutas/core-go/internal/graph"
)

const (
	mapLayerRisk     = "riesgo"
	mapLayerResponse = "respuesta"
	mapLayerPaths    = "caminos"
)

func isValidMapLayer(layer string) bool {
	switch layer {
	case mapLayerRisk, mapLayerResponse, mapLayerPaths:
		return true
	default:
		return false
	}
}

// layerKinds lists the node kinds drawn on each map layer.
func layerKinds(layer string) []string {
	switch layer {
	case mapLayerRisk:
		return []string{graph.KindRisk, graph.KindNormal}
	case mapLayerResponse:
		return []string{graph.KindResponse, graph.KindNormal}
	default:
		return graph.AllKinds()
	}
}

func (h *Handler) handleGetMapa(w http.ResponseWriter, r *http.Request) {
	layer := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "tipo")))
	if !isValidMapLayer(layer) {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid map type", map[string]any{"tipo": layer})
		return
	}
	if !h.ensurePlanner(w) {
		return
	}

	fc := buildLayer(h.planner.Graph(), layer, h.planner.Routes())

	b, err := json.Marshal(fc)
	if err != nil {
		h.log.Error().Err(err).Str("layer", layer).Msg("encode map layer failed")
		h.writeError(w, http.StatusInternalServerError, "encode_failed", "failed to encode map", nil)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// buildLayer renders the layer's nodes as points. The paths layer also
// carries the current routes as two-point line strings.
func buildLayer(g *graph.Graph, layer string, routes []graph.Route) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, kind := range layerKinds(layer) {
		for _, n := range g.ByKind(kind) {
			f := geojson.NewFeature(n.Point())
			f.ID = n.ID
			f.Properties["id"] = n.ID
			f.Properties["tipo"] = n.Kind
			f.Properties["layer"] = layer
			fc.Append(f)
		}
	}

	if layer != mapLayerPaths {
		return fc
	}
	for _, rt := range routes {
		from, ok := g.Node(rt.Origin)
		if !ok {
			continue
		}
		to, ok := g.Node(rt.Destination)
		if !ok {
			continue
		}
		f := geojson.NewFeature(orb.LineString{from.Point(), to.Point()})
		f.Properties["origen"] = rt.Origin
		f.Properties["destino"] = rt.Destination
		f.Properties["distancia"] = rt.Distance
		f.Properties["layer"] = layer
		fc.Append(f)
	}
	return fc
}
