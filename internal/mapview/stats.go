package mapview

import (
	"math/rand/v2"
	"time"

	"mapa_rutas/core-go/internal/graph"
)

func measuredStats(routes []graph.Route, elapsed time.Duration) RouteStats {
	var total float64
	visited := make(map[string]struct{}, len(routes)*2)
	for _, r := range routes {
		total += r.Distance
		visited[r.Origin] = struct{}{}
		visited[r.Destination] = struct{}{}
	}
	return RouteStats{
		ComputeTime:     elapsed,
		RoutesFound:     len(routes),
		TotalDistanceKm: graph.RoundKm(total),
		NodesVisited:    len(visited),
	}
}

func simulatedStats(routes []graph.Route, rng *rand.Rand) RouteStats {
	found := len(routes)
	if found == 0 {
		found = 1
	}
	return RouteStats{
		ComputeTime:     time.Duration(100+rng.IntN(300)) * time.Millisecond,
		RoutesFound:     found,
		TotalDistanceKm: graph.RoundKm(5 + rng.Float64()*25),
		NodesVisited:    5 + rng.IntN(15),
		Simulated:       true,
	}
}
