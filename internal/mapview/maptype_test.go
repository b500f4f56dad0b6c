package mapview

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"mapa_rutas/core-go/internal/graph"
)

func TestParseMapType(t *testing.T) {
	cases := map[string]MapType{
		"riesgo":      MapRisk,
		" Respuesta ": MapResponse,
		"CAMINOS":     MapPaths,
	}
	for raw, want := range cases {
		got, err := ParseMapType(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: expected %q, got %q", raw, want, got)
		}
	}

	for _, raw := range []string{"", "risk", "mapa"} {
		if _, err := ParseMapType(raw); !errors.Is(err, ErrUnknownMapType) {
			t.Fatalf("%q: expected ErrUnknownMapType, got %v", raw, err)
		}
	}
}

func TestMapTypeViewPathAndName(t *testing.T) {
	if got := MapPaths.ViewPath(); got != "/mapa/caminos" {
		t.Fatalf("unexpected view path %q", got)
	}
	if got := MapRisk.DisplayName(); got != "Risk map" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestParseDistanceBudget(t *testing.T) {
	km, err := ParseDistanceBudget(" 7.25 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if km != 7.25 {
		t.Fatalf("expected 7.25, got %v", km)
	}

	for _, raw := range []string{"0", "-1", "abc", "NaN", "Inf", ""} {
		if _, err := ParseDistanceBudget(raw); !errors.Is(err, ErrInvalidBudget) {
			t.Fatalf("%q: expected ErrInvalidBudget, got %v", raw, err)
		}
	}
}

func TestRemoteInfo(t *testing.T) {
	info := remoteInfo(MapRisk, 12)
	if info.Graph != "9 risk nodes" || info.Routes != "36 connections" || info.BudgetKm != 12 {
		t.Fatalf("unexpected risk info: %+v", info)
	}
	info = remoteInfo(MapPaths, 10)
	if info.Risk != "1 origin" || info.Response != "1 destination" {
		t.Fatalf("unexpected paths info: %+v", info)
	}
}

func TestMeasuredStats(t *testing.T) {
	routes := []graph.Route{
		{Origin: "A", Destination: "C", Distance: 8.25},
		{Origin: "D", Destination: "C", Distance: 8.94},
	}
	stats := measuredStats(routes, 150*time.Millisecond)
	if stats.Simulated {
		t.Fatalf("measured stats must not be flagged simulated")
	}
	if stats.RoutesFound != 2 || stats.NodesVisited != 3 || stats.TotalDistanceKm != 17.19 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ComputeTime != 150*time.Millisecond {
		t.Fatalf("unexpected compute time %v", stats.ComputeTime)
	}
}

func TestSimulatedStatsRanges(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 100; i++ {
		stats := simulatedStats(nil, rng)
		if !stats.Simulated || stats.RoutesFound != 1 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
		if stats.ComputeTime < 100*time.Millisecond || stats.ComputeTime >= 400*time.Millisecond {
			t.Fatalf("compute time out of range: %v", stats.ComputeTime)
		}
		if stats.TotalDistanceKm < 5 || stats.TotalDistanceKm > 30 {
			t.Fatalf("distance out of range: %v", stats.TotalDistanceKm)
		}
		if stats.NodesVisited < 5 || stats.NodesVisited >= 20 {
			t.Fatalf("nodes visited out of range: %v", stats.NodesVisited)
		}
	}
}
