// Package planner is the backend side of the route service. It owns the
// session distance budget and the last computed route set.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"mapa_rutas/core-go/internal/graph"
)

const (
	DefaultBudgetKm  = 10.0
	DefaultKmPerUnit = 0.2
)

var (
	ErrInvalidBudget = errors.New("distance budget must be a finite number greater than zero")
	ErrUnknownNode   = errors.New("unknown node")
)

type Options struct {
	DefaultBudgetKm float64
	KmPerUnit       float64
}

type Planner struct {
	g         *graph.Graph
	kmPerUnit float64

	mu     sync.Mutex
	budget float64
	routes []graph.Route
}

// Request selects the nodes to connect. Empty id lists fall back to every
// node of the matching kind. A zero BudgetKm means the session budget.
type Request struct {
	MapType       string
	BudgetKm      float64
	ResponseNodes []string
	RiskNodes     []string
}

func New(g *graph.Graph, opts Options) *Planner {
	if g == nil {
		g = graph.Sample()
	}
	budget := opts.DefaultBudgetKm
	if !ValidBudget(budget) {
		budget = DefaultBudgetKm
	}
	kpu := opts.KmPerUnit
	if kpu <= 0 || math.IsNaN(kpu) || math.IsInf(kpu, 0) {
		kpu = DefaultKmPerUnit
	}
	return &Planner{g: g, kmPerUnit: kpu, budget: budget}
}

func ValidBudget(km float64) bool {
	return km > 0 && !math.IsInf(km, 0) && !math.IsNaN(km)
}

func (p *Planner) Graph() *graph.Graph {
	return p.g
}

func (p *Planner) Budget() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.budget
}

func (p *Planner) SetBudget(km float64) error {
	if !ValidBudget(km) {
		return ErrInvalidBudget
	}
	p.mu.Lock()
	p.budget = km
	p.mu.Unlock()
	return nil
}

// Routes returns the last computed route set.
func (p *Planner) Routes() []graph.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]graph.Route, len(p.routes))
	copy(out, p.routes)
	return out
}

func (p *Planner) Clear() {
	p.mu.Lock()
	p.routes = nil
	p.mu.Unlock()
}

// Compute pairs every selected response node with every selected risk node
// and keeps the pairs whose straight-line distance fits the budget.
func (p *Planner) Compute(ctx context.Context, req Request) ([]graph.Route, error) {
	budget := req.BudgetKm
	if budget == 0 {
		budget = p.Budget()
	}
	if !ValidBudget(budget) {
		return nil, ErrInvalidBudget
	}

	origins, err := p.resolve(req.ResponseNodes, graph.KindResponse)
	if err != nil {
		return nil, err
	}
	targets, err := p.resolve(req.RiskNodes, graph.KindRisk)
	if err != nil {
		return nil, err
	}

	routes := make([]graph.Route, 0)
	for _, o := range origins {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, t := range targets {
			if o.ID == t.ID {
				continue
			}
			km := graph.RoundKm(graph.Distance(o, t) * p.kmPerUnit)
			if km > budget {
				continue
			}
			routes = append(routes, graph.Route{Origin: o.ID, Destination: t.ID, Distance: km})
		}
	}
	graph.SortRoutes(routes)

	p.mu.Lock()
	p.routes = routes
	p.mu.Unlock()

	out := make([]graph.Route, len(routes))
	copy(out, routes)
	return out, nil
}

func (p *Planner) resolve(ids []string, kind string) ([]graph.Node, error) {
	ids = graph.NormalizeIDList(ids)
	if len(ids) == 0 {
		return p.g.ByKind(kind), nil
	}
	out := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := p.g.Node(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
		out = append(out, n)
	}
	return out, nil
}
