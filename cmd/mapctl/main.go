package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mapa_rutas/core-go/internal/config"
	"mapa_rutas/core-go/internal/httpapi"
	"mapa_rutas/core-go/internal/mapview"
	"mapa_rutas/core-go/internal/routeclient"
)

// Global flags
var (
	configPath     string
	backendURL     string
	logLevel       string
	remoteView     bool
	simulationMode bool
)

var rootCmd = &cobra.Command{
	Use:   "mapctl",
	Short: "Terminal dashboard for the route map service",
	Long: `mapctl drives the route map service from a terminal.

Settings come from the YAML file named by --config (or MAPA_CONFIG),
then environment variables, then flags.

Examples:
  mapctl console                      # interactive dashboard
  mapctl console --remote-view        # follow the server-rendered maps
  mapctl routes --map caminos         # compute routes once
  mapctl budget 12.5                  # change the distance budget
  mapctl map riesgo                   # list the features of a map layer`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("MAPA_CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "route service base URL (overrides BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&remoteView, "remote-view", false, "show server-rendered maps instead of the local graph")
	rootCmd.PersistentFlags().BoolVar(&simulationMode, "simulate", false, "fabricate route statistics")

	rootCmd.AddCommand(consoleCmd, routesCmd, budgetCmd, clearCmd, mapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves file, environment and flag settings.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.BackendURL = backendURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("remote-view") {
		cfg.RemoteView = remoteView
	}
	if flags.Changed("simulate") {
		cfg.SimulationMode = simulationMode
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	return httpapi.NewLoggerTo(os.Stderr, "mapctl", cfg.LogLevel)
}

func newClient(cfg config.Config) *routeclient.Client {
	return routeclient.New(cfg.BackendURL, nil)
}

func requestTimeout(cfg config.Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return mapview.DefaultRequestTimeout
	}
	return cfg.RequestTimeout
}

func fail(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
