package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mapa_rutas/core-go/internal/graph"
	"mapa_rutas/core-go/internal/planner"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// computeRequest accepts both the tab-aware body ({tipoMapa, kilometraje})
// and the node-list body ({nodosRespuesta, nodosRiesgo, kilometraje}), plus
// the English aliases.
type computeRequest struct {
	TipoMapa       string       `json:"tipoMapa"`
	MapType        string       `json:"mapType"`
	Kilometraje    *float64     `json:"kilometraje"`
	DistanceBudget *float64     `json:"distanceBudget"`
	NodosRespuesta []graph.Node `json:"nodosRespuesta"`
	ResponseNodes  []graph.Node `json:"responseNodes"`
	NodosRiesgo    []graph.Node `json:"nodosRiesgo"`
	RiskNodes      []graph.Node `json:"riskNodes"`
}

type computeResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Rutas   []graph.Route `json:"rutas"`
}

type budgetRequest struct {
	Kilometraje *float64 `json:"kilometraje"`
}

type budgetResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Kilometraje float64 `json:"kilometraje"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstBudget(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func nodeIDs(groups ...[]graph.Node) []string {
	var out []string
	for _, g := range groups {
		for _, n := range g {
			out = append(out, n.ID)
		}
	}
	return out
}

func (h *Handler) handleCalcularRutas(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if !h.ensurePlanner(w) {
		return
	}

	mapType := strings.ToLower(firstNonEmpty(req.TipoMapa, req.MapType))
	if mapType != "" && !isValidMapLayer(mapType) {
		h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "invalid tipoMapa", map[string]any{"tipoMapa": mapType})
		return
	}

	var budget float64
	if b := firstBudget(req.Kilometraje, req.DistanceBudget); b != nil {
		if !planner.ValidBudget(*b) {
			h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "kilometraje must be greater than zero", map[string]any{"kilometraje": *b})
			return
		}
		budget = *b
	}

	start := time.Now()
	routes, err := h.planner.Compute(r.Context(), planner.Request{
		MapType:       mapType,
		BudgetKm:      budget,
		ResponseNodes: nodeIDs(req.NodosRespuesta, req.ResponseNodes),
		RiskNodes:     nodeIDs(req.NodosRiesgo, req.RiskNodes),
	})
	elapsed := time.Since(start)
	if err != nil {
		h.metrics.ObserveRouteComputation(metricMapType(mapType), statusError, 0, elapsed)
		if errors.Is(err, planner.ErrUnknownNode) {
			h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "unknown node", map[string]any{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("map_type", mapType).Msg("route computation failed")
		h.writeStatusError(w, http.StatusInternalServerError, "compute_failed", "failed to compute routes", nil)
		return
	}
	h.metrics.ObserveRouteComputation(metricMapType(mapType), statusSuccess, len(routes), elapsed)

	h.log.Debug().
		Str("map_type", mapType).
		Float64("budget_km", budget).
		Int("routes", len(routes)).
		Msg("routes computed")

	h.writeJSON(w, http.StatusOK, computeResponse{
		Status:  statusSuccess,
		Message: fmt.Sprintf("%d routes computed", len(routes)),
		Rutas:   routes,
	})
}

func metricMapType(mapType string) string {
	if mapType == "" {
		return "unspecified"
	}
	return mapType
}

func (h *Handler) handleCambiarKilometraje(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if req.Kilometraje == nil {
		h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "kilometraje is required", nil)
		return
	}
	if !h.ensurePlanner(w) {
		return
	}

	km := *req.Kilometraje
	if err := h.planner.SetBudget(km); err != nil {
		h.writeStatusError(w, http.StatusBadRequest, "validation_failed", "kilometraje must be greater than zero", map[string]any{"kilometraje": km})
		return
	}
	h.metrics.SetDistanceBudget(km)

	h.writeJSON(w, http.StatusOK, budgetResponse{
		Status:      statusSuccess,
		Message:     fmt.Sprintf("distance budget set to %g km", km),
		Kilometraje: km,
	})
}

func (h *Handler) handleLimpiarRuta(w http.ResponseWriter, r *http.Request) {
	if !h.ensurePlanner(w) {
		return
	}
	h.planner.Clear()
	h.metrics.SetRoutesCurrent(0)

	h.writeJSON(w, http.StatusOK, statusResponse{
		Status:  statusSuccess,
		Message: "route cleared",
	})
}
