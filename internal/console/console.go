// Package console is a line-oriented terminal front end for the map view
// controller. A Console is the controller's UI binding, render surface and
// notification display at once.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb/geojson"

	"mapa_rutas/core-go/internal/graph"
	"mapa_rutas/core-go/internal/mapview"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUnboundControl  = errors.New("control is not bound")
	ErrMissingArgument = errors.New("missing argument")

	errQuit = errors.New("quit")
)

const helpText = `commands:
  map <riesgo|respuesta|caminos>     switch map (alias: tab)
  select <riesgo|respuesta|caminos>  switch map from the selector
  km <value>                         set the distance budget
  calc                               compute routes (alias: routes)
  clear                              clear the current route
  node <id>                          select a node
  help                               show this help
  quit                               leave (alias: exit)`

// MapFetcher loads a server-rendered map layer. *routeclient.Client
// satisfies it.
type MapFetcher interface {
	FetchMap(ctx context.Context, mapType string) (*geojson.FeatureCollection, error)
}

// ViewSource lets ShowView load remote map layers. Loaded and Failed are
// usually the controller's ViewLoaded and ViewFailed.
type ViewSource struct {
	Fetcher MapFetcher
	Timeout time.Duration
	Loaded  func(path string)
	Failed  func(path string)
}

type Console struct {
	out io.Writer

	mu      sync.Mutex
	clicks  map[string]func()
	changes map[string]func(string)
	busy    map[string]bool

	viewCtx context.Context
	view    ViewSource
	viewSeq uint64

	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	title   lipgloss.Style
}

func New(out io.Writer) *Console {
	return &Console{
		out:     out,
		clicks:  map[string]func(){},
		changes: map[string]func(string){},
		busy:    map[string]bool{},
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("#27ae60")).Bold(true),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c")).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	}
}

func (c *Console) OnClick(control string, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicks[control] = fn
}

func (c *Console) OnChange(control string, fn func(value string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes[control] = fn
}

// Serve reads commands from in until EOF, quit, or ctx is done.
func (c *Console) Serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	c.printf("%s\n", c.muted.Render("type 'help' for commands"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			err := c.Dispatch(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				c.printf("%s\n", c.failure.Render("✗ "+err.Error()))
			}
		}
	}
}

// Dispatch runs a single command line.
func (c *Console) Dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "map", "tab":
		return c.changeArg(mapview.ControlMapTabs, cmd, args)
	case "select":
		return c.changeArg(mapview.ControlMapSelect, cmd, args)
	case "km":
		if err := c.changeArg(mapview.ControlBudgetInput, cmd, args); err != nil {
			return err
		}
		return c.click(mapview.ControlChangeBudget)
	case "calc", "routes":
		return c.click(mapview.ControlComputeRoutes)
	case "clear":
		return c.click(mapview.ControlClearRoute)
	case "node":
		if len(args) == 0 {
			return fmt.Errorf("%w: node <id>", ErrMissingArgument)
		}
		return c.click(mapview.NodeControl(strings.ToUpper(args[0])))
	case "help":
		c.printf("%s\n", helpText)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (c *Console) changeArg(control, cmd string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s <value>", ErrMissingArgument, cmd)
	}
	c.mu.Lock()
	fn, ok := c.changes[control]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnboundControl, control)
	}
	fn(strings.Join(args, " "))
	return nil
}

// click fires the handler unless the control is disabled. Handlers run
// without the lock held.
func (c *Console) click(control string) error {
	c.mu.Lock()
	fn, ok := c.clicks[control]
	busy := c.busy[control]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnboundControl, control)
	}
	if busy {
		c.printf("%s\n", c.muted.Render("busy, try again in a moment"))
		return nil
	}
	fn()
	return nil
}

// AttachView makes ShowView fetch each layer from src until ctx is done.
func (c *Console) AttachView(ctx context.Context, src ViewSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewCtx = ctx
	c.view = src
}

// ShowView prints path and, with a view source attached, loads the layer in
// the background. Only the most recent view is rendered.
func (c *Console) ShowView(path string) {
	c.mu.Lock()
	fmt.Fprintf(c.out, "%s %s\n", c.muted.Render("view"), path)
	src, ctx := c.view, c.viewCtx
	c.viewSeq++
	seq := c.viewSeq
	c.mu.Unlock()

	if src.Fetcher == nil {
		return
	}
	go c.loadView(ctx, src, seq, path)
}

func (c *Console) loadView(ctx context.Context, src ViewSource, seq uint64, path string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, src.Timeout)
		defer cancel()
	}

	t, err := mapview.ParseMapType(strings.TrimPrefix(path, "/mapa/"))
	var fc *geojson.FeatureCollection
	if err == nil {
		fc, err = src.Fetcher.FetchMap(ctx, string(t))
	}
	if err != nil {
		if src.Failed != nil {
			src.Failed(path)
		}
		return
	}

	c.mu.Lock()
	stale := seq != c.viewSeq
	c.mu.Unlock()
	if stale {
		return
	}
	c.RenderLayer(t, fc)
	if src.Loaded != nil {
		src.Loaded(path)
	}
}

// RenderLayer prints the nodes of a map layer and, for the paths map, its
// routes.
func (c *Console) RenderLayer(t mapview.MapType, fc *geojson.FeatureCollection) {
	nodes, routes := layerContents(fc)
	c.RenderNodes(nodes)
	if t == mapview.MapPaths {
		c.RenderRoutes(routes)
	}
}

func layerContents(fc *geojson.FeatureCollection) ([]graph.Node, []graph.Route) {
	var nodes []graph.Node
	var routes []graph.Route
	for _, f := range fc.Features {
		props := f.Properties
		if origin := props.MustString("origen", ""); origin != "" {
			routes = append(routes, graph.Route{
				Origin:      origin,
				Destination: props.MustString("destino", ""),
				Distance:    props.MustFloat64("distancia", 0),
			})
			continue
		}
		if f.Geometry == nil {
			continue
		}
		p := f.Geometry.Bound().Center()
		nodes = append(nodes, graph.Node{ID: props.MustString("id", ""), X: p.X(), Y: p.Y(), Kind: props.MustString("tipo", "")})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	graph.SortRoutes(routes)
	return nodes, routes
}

func (c *Console) SetActiveMapType(t mapview.MapType) {
	c.printf("%s\n", c.title.Render("▸ "+t.DisplayName()))
}

func (c *Console) SetBusy(control string, busy bool) {
	c.mu.Lock()
	c.busy[control] = busy
	c.mu.Unlock()
	if busy && control == mapview.ControlComputeRoutes {
		c.printf("%s\n", c.muted.Render("computing routes..."))
	}
}

func (c *Console) RenderNodes(nodes []graph.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.title.Render("nodes"))
	for _, n := range nodes {
		fmt.Fprintf(c.out, "  %-3s (%g, %g) %s\n", n.ID, n.X, n.Y, n.Kind)
	}
}

func (c *Console) RenderRoutes(routes []graph.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(routes) == 0 {
		fmt.Fprintln(c.out, c.muted.Render("no routes within the distance budget"))
		return
	}
	fmt.Fprintln(c.out, c.title.Render(fmt.Sprintf("routes (%d)", len(routes))))
	for _, r := range routes {
		fmt.Fprintf(c.out, "  %s -> %s  %g km\n", r.Origin, r.Destination, r.Distance)
	}
}

func (c *Console) ClearRoutes() {
	c.printf("%s\n", c.muted.Render("routes cleared"))
}

func (c *Console) MarkSelected(nodeID string) {
	if nodeID == "" {
		c.printf("%s\n", c.muted.Render("selection cleared"))
		return
	}
	c.printf("selected %s\n", nodeID)
}

func (c *Console) RenderInfo(info mapview.InfoPanel) {
	c.printf("%s graph: %s | response: %s | risk: %s | routes: %s | budget: %g km\n",
		c.muted.Render("info"), info.Graph, info.Response, info.Risk, info.Routes, info.BudgetKm)
}

func (c *Console) RenderNodeInfo(info mapview.NodeInfo) {
	c.printf("node %s  kind %s  position %s\n", info.ID, info.Kind, info.Position)
}

func (c *Console) RenderStats(s mapview.RouteStats) {
	line := fmt.Sprintf("time %dms  routes %d  distance %g km  visited %d",
		s.ComputeTime.Milliseconds(), s.RoutesFound, s.TotalDistanceKm, s.NodesVisited)
	if s.Simulated {
		line += " (simulated)"
	}
	c.printf("%s %s\n", c.muted.Render("stats"), line)
}

func (c *Console) Show(n mapview.Notification) {
	if n.Kind == mapview.KindError {
		c.printf("%s\n", c.failure.Render("✗ "+n.Message))
		return
	}
	c.printf("%s\n", c.success.Render("✓ "+n.Message))
}

// Dismiss is a no-op; printed lines scroll away on their own.
func (c *Console) Dismiss(mapview.Notification) {}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

var (
	_ mapview.Binding = (*Console)(nil)
	_ mapview.Surface = (*Console)(nil)
	_ mapview.Display = (*Console)(nil)
)
