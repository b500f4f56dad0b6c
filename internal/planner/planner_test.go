package planner

import (
	"context"
	"errors"
	"math"
	"testing"

	"mapa_rutas/core-go/internal/graph"
)

func TestCompute_DefaultBudgetKeepsReachablePairs(t *testing.T) {
	p := New(nil, Options{})

	routes, err := p.Compute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// D(40,70) -> C(80,50) is 44.72 units = 8.94 km; A -> C is 12.65 km.
	if len(routes) != 1 {
		t.Fatalf("expected exactly one route within 10 km, got %+v", routes)
	}
	want := graph.Route{Origin: "D", Destination: "C", Distance: 8.94}
	if routes[0] != want {
		t.Fatalf("expected %+v, got %+v", want, routes[0])
	}
	if got := p.Routes(); len(got) != 1 {
		t.Fatalf("expected planner to remember routes, got %+v", got)
	}
}

func TestCompute_LargerBudgetSortsByDistance(t *testing.T) {
	p := New(nil, Options{})

	routes, err := p.Compute(context.Background(), Request{BudgetKm: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %+v", routes)
	}
	if routes[0].Origin != "D" || routes[1].Origin != "A" {
		t.Fatalf("expected D before A, got %+v", routes)
	}
}

func TestCompute_ExplicitNodeSelection(t *testing.T) {
	p := New(nil, Options{KmPerUnit: 0.1})

	routes, err := p.Compute(context.Background(), Request{
		ResponseNodes: []string{"A"},
		RiskNodes:     []string{"C"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 || routes[0].Destination != "C" {
		t.Fatalf("expected A->C only, got %+v", routes)
	}

	_, err = p.Compute(context.Background(), Request{RiskNodes: []string{"Z"}})
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

func TestSetBudget_Validates(t *testing.T) {
	p := New(nil, Options{})
	for _, bad := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if err := p.SetBudget(bad); !errors.Is(err, ErrInvalidBudget) {
			t.Fatalf("expected ErrInvalidBudget for %v, got %v", bad, err)
		}
	}
	if p.Budget() != DefaultBudgetKm {
		t.Fatalf("expected budget to remain %v, got %v", DefaultBudgetKm, p.Budget())
	}
	if err := p.SetBudget(25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Budget() != 25 {
		t.Fatalf("expected 25, got %v", p.Budget())
	}
}

func TestClear_ForgetsRoutes(t *testing.T) {
	p := New(nil, Options{})
	if _, err := p.Compute(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Clear()
	if got := p.Routes(); len(got) != 0 {
		t.Fatalf("expected no routes after clear, got %+v", got)
	}
}

func TestCompute_CanceledContext(t *testing.T) {
	p := New(nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Compute(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
