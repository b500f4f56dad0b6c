package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"mapa_rutas/core-go/internal/metrics"
	"mapa_rutas/core-go/internal/planner"
)

type Options struct {
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

type Handler struct {
	log         zerolog.Logger
	planner     *planner.Planner
	metrics     *metrics.Metrics
	corsOrigins []string
}

func NewHandler(log zerolog.Logger, p *planner.Planner, opts Options) *Handler {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if p != nil {
		opts.Metrics.SetDistanceBudget(p.Budget())
	}
	return &Handler{log: log, planner: p, metrics: opts.Metrics, corsOrigins: origins}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: h.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler)
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// Map resources rendered by the dashboard's remote view.
	r.Get("/mapa/{tipo}", h.handleGetMapa)

	// API
	r.Route("/api", func(r chi.Router) {
		r.Post("/calcular-rutas", h.handleCalcularRutas)
		r.Post("/cambiar-kilometraje", h.handleCambiarKilometraje)
		r.Post("/limpiar-ruta", h.handleLimpiarRuta)
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		reqID := middleware.GetReqID(r.Context())
		ww.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		duration := time.Since(start)
		h.metrics.ObserveHTTPRequest(r.Method, path, ww.Status(), duration)

		h.log.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	h.writeJSON(w, status, errorEnvelope(code, msg, details))
}

// writeStatusError is writeError plus the "status"/"message" pair the
// dashboard checks on every domain endpoint.
func (h *Handler) writeStatusError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := errorEnvelope(code, msg, details)
	resp["status"] = statusError
	resp["message"] = msg
	h.writeJSON(w, status, resp)
}

func errorEnvelope(code, msg string, details map[string]any) map[string]any {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	return resp
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

// decodeOptionalJSON accepts an empty body as the zero value of dst.
func decodeOptionalJSON(r *http.Request, dst any) error {
	err := decodeJSONStrict(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	if h.planner == nil {
		h.writeError(w, http.StatusServiceUnavailable, "planner_unavailable", "route planner not configured", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

func (h *Handler) ensurePlanner(w http.ResponseWriter) bool {
	if h.planner == nil {
		h.writeStatusError(w, http.StatusServiceUnavailable, "planner_unavailable", "route planner not configured", nil)
		return false
	}
	return true
}
