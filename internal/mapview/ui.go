package mapview

import (
	"context"

	"mapa_rutas/core-go/internal/graph"
	"mapa_rutas/core-go/internal/routeclient"
)

// Control names understood by Bind.
const (
	ControlComputeRoutes = "btn-calcular-rutas"
	ControlChangeBudget  = "btn-kilometraje"
	ControlClearRoute    = "btn-limpiar"
	ControlBudgetInput   = "kilometraje-input"
	ControlMapTabs       = "mapa-tabs"
	ControlMapSelect     = "mapa-select"
)

// NodeControl names the clickable element of a fallback node.
func NodeControl(id string) string {
	return "nodo-" + id
}

// Binding is the event side of a UI: something that can call back when a
// control is clicked or its value changes.
type Binding interface {
	OnClick(control string, fn func())
	OnChange(control string, fn func(value string))
}

// Surface renders controller output. Its methods are only called from the
// controller's event loop.
type Surface interface {
	ShowView(path string)
	SetActiveMapType(t MapType)
	SetBusy(control string, busy bool)
	RenderNodes(nodes []graph.Node)
	RenderRoutes(routes []graph.Route)
	ClearRoutes()
	// MarkSelected marks exactly one node as selected; "" clears the mark.
	MarkSelected(nodeID string)
	RenderInfo(info InfoPanel)
	RenderNodeInfo(info NodeInfo)
	RenderStats(stats RouteStats)
}

// RouteService is the remote route service. *routeclient.Client satisfies it.
type RouteService interface {
	ComputeRoutes(ctx context.Context, req routeclient.ComputeRequest) ([]graph.Route, error)
	ChangeDistanceBudget(ctx context.Context, km float64) error
	ClearRoute(ctx context.Context) error
}

type Notifier interface {
	Notify(n Notification)
}

type nopSurface struct{}

func (nopSurface) ShowView(string)            {}
func (nopSurface) SetActiveMapType(MapType)   {}
func (nopSurface) SetBusy(string, bool)       {}
func (nopSurface) RenderNodes([]graph.Node)   {}
func (nopSurface) RenderRoutes([]graph.Route) {}
func (nopSurface) ClearRoutes()               {}
func (nopSurface) MarkSelected(string)        {}
func (nopSurface) RenderInfo(InfoPanel)       {}
func (nopSurface) RenderNodeInfo(NodeInfo)    {}
func (nopSurface) RenderStats(RouteStats)     {}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
