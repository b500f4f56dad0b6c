// Package graph holds the sample map used when no remote map view is
// available: a handful of nodes placed on a 100x100 percentage grid.
package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type Node struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Kind string  `json:"tipo"`
}

// Point returns the node position in grid units.
func (n Node) Point() orb.Point {
	return orb.Point{n.X, n.Y}
}

func (n Node) String() string {
	return fmt.Sprintf("Node %s (%s)", n.ID, n.Kind)
}

// Route is one computed origin/destination pair. Distance is in km.
type Route struct {
	Origin      string  `json:"origen"`
	Destination string  `json:"destino"`
	Distance    float64 `json:"distancia"`
}

func (r Route) String() string {
	return fmt.Sprintf("%s → %s (%g km)", r.Origin, r.Destination, r.Distance)
}

var sampleNodes = []Node{
	{ID: "A", X: 20, Y: 30, Kind: KindResponse},
	{ID: "B", X: 60, Y: 20, Kind: KindNormal},
	{ID: "C", X: 80, Y: 50, Kind: KindRisk},
	{ID: "D", X: 40, Y: 70, Kind: KindResponse},
	{ID: "E", X: 70, Y: 80, Kind: KindNormal},
	{ID: "F", X: 30, Y: 50, Kind: KindNormal},
}

// SampleNodes returns a copy of the built-in fallback nodes.
func SampleNodes() []Node {
	out := make([]Node, len(sampleNodes))
	copy(out, sampleNodes)
	return out
}

type Graph struct {
	nodes []Node
	byID  map[string]int
}

// New indexes nodes by id. Nodes with a blank id, an unknown kind or a
// duplicate id are rejected.
func New(nodes []Node) (*Graph, error) {
	g := &Graph{
		nodes: make([]Node, 0, len(nodes)),
		byID:  make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node without id")
		}
		if !IsValidKind(n.Kind) {
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		if _, dup := g.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %s", n.ID)
		}
		n.Kind = NormalizeKind(n.Kind)
		g.byID[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	return g, nil
}

// Sample builds the graph of SampleNodes.
func Sample() *Graph {
	g, err := New(sampleNodes)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

func (g *Graph) ByKind(kind string) []Node {
	kind = NormalizeKind(kind)
	var out []Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// Distance is the straight-line distance between two nodes in grid units.
func Distance(a, b Node) float64 {
	return planar.Distance(a.Point(), b.Point())
}

// RoundKm rounds a distance to two decimals, clamping negatives to zero.
func RoundKm(km float64) float64 {
	if km <= 0 || math.IsNaN(km) {
		return 0
	}
	return math.Round(km*100) / 100
}

// SortRoutes orders routes by distance, then origin, then destination.
func SortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Distance != routes[j].Distance {
			return routes[i].Distance < routes[j].Distance
		}
		if routes[i].Origin != routes[j].Origin {
			return routes[i].Origin < routes[j].Origin
		}
		return routes[i].Destination < routes[j].Destination
	})
}
