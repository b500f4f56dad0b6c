package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	routeComputations   *prometheus.CounterVec
	routeComputeSeconds prometheus.Histogram
	routesReturned      prometheus.Gauge
	distanceBudgetKm    prometheus.Gauge
}

// New creates a fresh Metrics registry with HTTP and route metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapa",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by mapa-server",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapa",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by mapa-server",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	routeComputations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapa",
		Name:      "route_computations_total",
		Help:      "Route computations by map type and outcome",
	}, []string{"map_type", "outcome"})

	routeComputeSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapa",
		Name:      "route_compute_duration_seconds",
		Help:      "Duration of route computations",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	routesReturned := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapa",
		Name:      "routes_current",
		Help:      "Number of routes in the last computed route set",
	})

	distanceBudgetKm := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapa",
		Name:      "distance_budget_km",
		Help:      "Current session distance budget in kilometers",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		routeComputations,
		routeComputeSeconds,
		routesReturned,
		distanceBudgetKm,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		routeComputations:   routeComputations,
		routeComputeSeconds: routeComputeSeconds,
		routesReturned:      routesReturned,
		distanceBudgetKm:    distanceBudgetKm,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveRouteComputation records one planner run. outcome is "success" or "error".
func (m *Metrics) ObserveRouteComputation(mapType, outcome string, routes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.routeComputations.With(prometheus.Labels{"map_type": mapType, "outcome": outcome}).Inc()
	m.routeComputeSeconds.Observe(duration.Seconds())
	if outcome == "success" {
		m.routesReturned.Set(float64(routes))
	}
}

// SetRoutesCurrent overwrites the current route count, e.g. after a clear.
func (m *Metrics) SetRoutesCurrent(n int) {
	if m == nil {
		return
	}
	m.routesReturned.Set(float64(n))
}

func (m *Metrics) SetDistanceBudget(km float64) {
	if m == nil {
		return
	}
	m.distanceBudgetKm.Set(km)
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
