// Package config loads settings for mapa-server and mapctl from an optional
// YAML file followed by environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string   `yaml:"http_addr"`
	LogLevel    string   `yaml:"log_level"`
	BackendURL  string   `yaml:"backend_url"`
	DefaultKm   float64  `yaml:"default_km"`
	KmPerUnit   float64  `yaml:"km_per_unit"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Controller settings used by mapctl.
	RemoteView       bool          `yaml:"remote_view"`
	SimulationMode   bool          `yaml:"simulation_mode"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	InfoRefreshDelay time.Duration `yaml:"info_refresh_delay"`
	NotificationTTL  time.Duration `yaml:"notification_ttl"`
}

func Default() Config {
	return Config{
		HTTPAddr:         ":5000",
		LogLevel:         "info",
		BackendURL:       "http://localhost:5000",
		DefaultKm:        10,
		KmPerUnit:        0.2,
		CORSOrigins:      []string{"*"},
		RequestTimeout:   15 * time.Second,
		InfoRefreshDelay: 500 * time.Millisecond,
		NotificationTTL:  3 * time.Second,
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides. A missing file is an error; an empty path is not.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.BackendURL = envOr("BACKEND_URL", c.BackendURL)

	var errs []error
	if v := os.Getenv("DEFAULT_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEFAULT_KM: %w", err))
		} else {
			c.DefaultKm = f
		}
	}
	if v := os.Getenv("KM_PER_UNIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("KM_PER_UNIT: %w", err))
		} else {
			c.KmPerUnit = f
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("SIMULATION_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SIMULATION_MODE: %w", err))
		} else {
			c.SimulationMode = b
		}
	}
	if v := os.Getenv("REMOTE_VIEW"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REMOTE_VIEW: %w", err))
		} else {
			c.RemoteView = b
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		} else {
			c.RequestTimeout = d
		}
	}
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	if !positiveFinite(c.DefaultKm) {
		return fmt.Errorf("default_km must be a finite number > 0, got %v", c.DefaultKm)
	}
	if !positiveFinite(c.KmPerUnit) {
		return fmt.Errorf("km_per_unit must be a finite number > 0, got %v", c.KmPerUnit)
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("backend_url must not be empty")
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
