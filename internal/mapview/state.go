package mapview

import (
	"fmt"
	"time"

	"mapa_rutas/core-go/internal/graph"
)

// State is a snapshot of what the controller owns.
type State struct {
	MapType        MapType
	DistanceBudget float64
	Routes         []graph.Route
	SelectedNode   string
	Busy           bool
}

func (s State) clone() State {
	out := s
	out.Routes = make([]graph.Route, len(s.Routes))
	copy(out.Routes, s.Routes)
	return out
}

// InfoPanel is the side panel summarizing the current map.
type InfoPanel struct {
	Graph    string
	Response string
	Risk     string
	Routes   string
	BudgetKm float64
}

type NodeInfo struct {
	ID       string
	Kind     string
	Position string
}

func nodeInfo(n graph.Node) NodeInfo {
	return NodeInfo{
		ID:       n.ID,
		Kind:     n.Kind,
		Position: fmt.Sprintf("(%g%%, %g%%)", n.X, n.Y),
	}
}

// RouteStats summarizes the last computation. Simulated stats are placeholders
// and must not be read as measurements.
type RouteStats struct {
	ComputeTime     time.Duration
	RoutesFound     int
	TotalDistanceKm float64
	NodesVisited    int
	Simulated       bool
}

// remoteInfo describes the backend-rendered maps, which the controller cannot
// inspect.
func remoteInfo(t MapType, budget float64) InfoPanel {
	info := InfoPanel{BudgetKm: budget}
	switch t {
	case MapRisk:
		info.Graph = "9 risk nodes"
		info.Response = "N/A"
		info.Risk = "9 active"
		info.Routes = "36 connections"
	case MapResponse:
		info.Graph = "62 response nodes"
		info.Response = "62 available"
		info.Risk = "N/A"
		info.Routes = "Full network"
	case MapPaths:
		info.Graph = "Road network"
		info.Response = "1 destination"
		info.Risk = "1 origin"
		info.Routes = "Optimal route computed"
	default:
		info.Graph = "Loading..."
		info.Response = "Loading..."
		info.Risk = "Loading..."
		info.Routes = "Loading..."
	}
	return info
}

func fallbackInfo(g *graph.Graph, routes int, budget float64) InfoPanel {
	response := len(g.ByKind(graph.KindResponse))
	risk := len(g.ByKind(graph.KindRisk))
	return InfoPanel{
		Graph:    fmt.Sprintf("Nodes: %d", response+risk+3),
		Response: fmt.Sprintf("Total: %d", response),
		Risk:     fmt.Sprintf("Active: %d", risk),
		Routes:   fmt.Sprintf("Computed: %d", routes),
		BudgetKm: budget,
	}
}
