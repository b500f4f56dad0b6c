package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"mapa_rutas/core-go/internal/config"
	"mapa_rutas/core-go/internal/graph"
	"mapa_rutas/core-go/internal/httpapi"
	"mapa_rutas/core-go/internal/metrics"
	"mapa_rutas/core-go/internal/planner"
)

func main() {
	cfg, err := config.Load(os.Getenv("MAPA_CONFIG"))
	if err != nil {
		l := httpapi.NewLogger("info")
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := httpapi.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, p := newServer(cfg, logger)

	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Float64("default_km", p.Budget()).
			Int("nodes", p.Graph().Len()).
			Msg("mapa-server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func newServer(cfg config.Config, logger zerolog.Logger) (*http.Server, *planner.Planner) {
	p := planner.New(graph.Sample(), planner.Options{
		DefaultBudgetKm: cfg.DefaultKm,
		KmPerUnit:       cfg.KmPerUnit,
	})
	h := httpapi.NewHandler(logger, p, httpapi.Options{
		Metrics:     metrics.New(),
		CORSOrigins: cfg.CORSOrigins,
	})
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}, p
}
