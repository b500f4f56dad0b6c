// Package mapview is the dashboard's map view controller. It owns the
// selected map type, distance budget, route set and selected node, and
// mediates between a UI binding, a render surface and the remote route
// service.
//
// All state changes happen on one event loop (Run). Public methods only
// enqueue work, so they are safe to call from any goroutine, including
// UI callbacks. Remote calls run off the loop and post their completion
// back to it.
package mapview

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mapa_rutas/core-go/internal/graph"
	"mapa_rutas/core-go/internal/routeclient"
)

const (
	DefaultInfoRefreshDelay = 500 * time.Millisecond
	DefaultRequestTimeout   = 15 * time.Second

	eventQueueSize = 64
)

var ErrAlreadyRunning = errors.New("controller is already running")

type Options struct {
	// HasRemoteView selects the backend-rendered view. When false the
	// controller renders Nodes itself and node selection is enabled.
	HasRemoteView bool
	// SimulationMode fabricates post-computation statistics.
	SimulationMode bool
	// InfoRefreshDelay delays the info panel refresh after a map switch.
	// Zero means DefaultInfoRefreshDelay; negative refreshes immediately.
	InfoRefreshDelay time.Duration
	// RequestTimeout bounds each remote call. Zero means
	// DefaultRequestTimeout; negative disables the deadline.
	RequestTimeout time.Duration
	// Nodes is the fallback graph. Nil means graph.SampleNodes().
	Nodes []graph.Node
	// Rand drives SimulationMode. Nil means a time-seeded source.
	Rand *rand.Rand
}

type Controller struct {
	log      zerolog.Logger
	svc      RouteService
	surface  Surface
	notifier Notifier
	graph    *graph.Graph

	remoteView   bool
	simulation   bool
	refreshDelay time.Duration
	timeout      time.Duration
	rng          *rand.Rand
	now          func() time.Time

	events  chan func()
	done    chan struct{}
	running atomic.Bool
	final   State

	// Owned by the event loop.
	runCtx           context.Context
	state            State
	pendingBudget    string
	routeGen         uint64
	budgetGen        uint64
	appliedBudgetGen uint64
	inflight         bool
	pending          int
	idleWaiters      []chan struct{}
}

// New builds a controller. Surface and notifier may be nil.
func New(log zerolog.Logger, svc RouteService, surface Surface, notifier Notifier, opts Options) (*Controller, error) {
	if svc == nil {
		return nil, errors.New("mapview: route service is required")
	}
	if surface == nil {
		surface = nopSurface{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	nodes := opts.Nodes
	if nodes == nil {
		nodes = graph.SampleNodes()
	}
	g, err := graph.New(nodes)
	if err != nil {
		return nil, err
	}

	delay := opts.InfoRefreshDelay
	if delay == 0 {
		delay = DefaultInfoRefreshDelay
	}
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = DefaultRequestTimeout
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d617061))
	}

	return &Controller{
		log:          log,
		svc:          svc,
		surface:      surface,
		notifier:     notifier,
		graph:        g,
		remoteView:   opts.HasRemoteView,
		simulation:   opts.SimulationMode,
		refreshDelay: delay,
		timeout:      timeout,
		rng:          rng,
		now:          time.Now,
		events:       make(chan func(), eventQueueSize),
		done:         make(chan struct{}),
		state: State{
			MapType:        MapRisk,
			DistanceBudget: DefaultDistanceBudget,
			Routes:         []graph.Route{},
		},
		pendingBudget: formatKm(DefaultDistanceBudget),
	}, nil
}

// Graph returns the fallback graph the controller renders.
func (c *Controller) Graph() *graph.Graph {
	return c.graph
}

// Run renders the initial view and processes events until ctx is done.
// It may only be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	c.runCtx = ctx
	c.initView()

	for {
		select {
		case <-ctx.Done():
			c.final = c.state.clone()
			c.log.Debug().Msg("map view controller stopped")
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// post enqueues fn on the event loop. It reports false once the loop is gone.
func (c *Controller) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// State returns a snapshot taken on the event loop.
func (c *Controller) State() State {
	reply := make(chan State, 1)
	if !c.post(func() { reply <- c.state.clone() }) {
		return c.final.clone()
	}
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return c.final.clone()
	}
}

// WaitIdle blocks until every remote call issued so far has completed and
// been applied, or ctx is done. It returns nil once the loop has stopped.
func (c *Controller) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	if !c.post(func() {
		if c.pending == 0 {
			close(idle)
			return
		}
		c.idleWaiters = append(c.idleWaiters, idle)
	}) {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bind wires the controller to a UI binding.
func (c *Controller) Bind(ui Binding) {
	ui.OnClick(ControlComputeRoutes, c.RequestRoutes)
	ui.OnClick(ControlChangeBudget, func() {
		c.post(func() { c.setDistanceBudget(c.pendingBudget) })
	})
	ui.OnClick(ControlClearRoute, c.ClearRoute)
	ui.OnChange(ControlBudgetInput, func(v string) {
		c.post(func() { c.pendingBudget = v })
	})
	ui.OnChange(ControlMapTabs, c.switchMapTypeByName)
	ui.OnChange(ControlMapSelect, c.switchMapTypeByName)

	if c.remoteView {
		return
	}
	for _, n := range c.graph.Nodes() {
		id := n.ID
		ui.OnClick(NodeControl(id), func() { c.SelectNode(id) })
	}
}

func (c *Controller) SwitchMapType(t MapType) error {
	if !t.Valid() {
		return ErrUnknownMapType
	}
	c.post(func() { c.switchMapType(t) })
	return nil
}

func (c *Controller) RequestRoutes() {
	c.post(c.requestRoutes)
}

// SetDistanceBudget validates raw and, when valid, asks the route service to
// adopt it. Local state changes only after the service acknowledges.
func (c *Controller) SetDistanceBudget(raw string) {
	c.post(func() { c.setDistanceBudget(raw) })
}

func (c *Controller) ClearRoute() {
	c.post(c.clearRoute)
}

func (c *Controller) SelectNode(id string) {
	c.post(func() { c.selectNode(id) })
}

// ViewLoaded is called by the surface once the remote view has loaded.
func (c *Controller) ViewLoaded(path string) {
	c.post(func() {
		c.log.Debug().Str("path", path).Msg("map view loaded")
		c.refreshInfo()
	})
}

// ViewFailed is called by the surface when the remote view failed to load.
func (c *Controller) ViewFailed(path string) {
	c.post(func() {
		c.log.Error().Str("path", path).Msg("map view failed to load")
		c.notify(KindError, "Failed to load map from backend")
	})
}

func (c *Controller) switchMapTypeByName(raw string) {
	t, err := ParseMapType(raw)
	if err != nil {
		c.post(func() {
			c.log.Warn().Err(err).Msg("ignoring map switch")
			c.notify(KindError, "Unknown map type: "+raw)
		})
		return
	}
	_ = c.SwitchMapType(t)
}

func (c *Controller) initView() {
	if c.remoteView {
		c.surface.ShowView(c.state.MapType.ViewPath())
		c.surface.SetActiveMapType(c.state.MapType)
	} else {
		c.surface.RenderNodes(c.graph.Nodes())
	}
	c.refreshInfo()
}

func (c *Controller) switchMapType(t MapType) {
	c.state.MapType = t
	if c.remoteView {
		c.surface.ShowView(t.ViewPath())
	}
	c.surface.SetActiveMapType(t)

	c.log.Info().Str("map_type", string(t)).Msg("map type switched")
	c.notify(KindSuccess, "Map switched to: "+t.DisplayName())

	c.after(c.refreshDelay, c.refreshInfo)
}

func (c *Controller) requestRoutes() {
	if c.inflight {
		c.log.Debug().Msg("route computation already in flight, request rejected")
		return
	}
	if c.state.MapType != MapPaths {
		c.switchMapType(MapPaths)
	}

	c.inflight = true
	c.state.Busy = true
	c.surface.SetBusy(ControlComputeRoutes, true)

	c.routeGen++
	gen := c.routeGen

	req := routeclient.ComputeRequest{Kilometraje: c.state.DistanceBudget}
	if c.remoteView {
		req.MapType = string(c.state.MapType)
	} else {
		req.ResponseNodes = c.graph.ByKind(graph.KindResponse)
		req.RiskNodes = c.graph.ByKind(graph.KindRisk)
	}

	start := c.now()
	ctx, cancel := c.requestContext()
	c.pending++
	go func() {
		defer cancel()
		routes, err := c.svc.ComputeRoutes(ctx, req)
		c.post(func() { c.finishRoutes(gen, c.now().Sub(start), routes, err) })
	}()
}

func (c *Controller) finishRoutes(gen uint64, elapsed time.Duration, routes []graph.Route, err error) {
	defer c.settle()
	c.inflight = false
	c.state.Busy = false
	c.surface.SetBusy(ControlComputeRoutes, false)

	if gen != c.routeGen {
		c.log.Debug().Uint64("generation", gen).Uint64("current", c.routeGen).Msg("discarding stale route response")
		return
	}
	if err != nil {
		c.log.Error().Err(err).Msg("route computation failed")
		c.notify(KindError, failureMessage(err, "computing routes"))
		return
	}

	if routes == nil {
		routes = []graph.Route{}
	}
	c.state.Routes = routes
	c.surface.RenderRoutes(routes)

	stats := measuredStats(routes, elapsed)
	if c.simulation {
		stats = simulatedStats(routes, c.rng)
	}
	c.surface.RenderStats(stats)

	c.log.Info().Int("routes", len(routes)).Dur("elapsed", elapsed).Msg("routes computed")
	c.notify(KindSuccess, "Routes computed successfully. Showing on the paths map.")
	c.refreshInfo()
}

func (c *Controller) setDistanceBudget(raw string) {
	km, err := ParseDistanceBudget(raw)
	if err != nil {
		c.log.Debug().Err(err).Msg("distance budget rejected")
		c.notify(KindError, "Please enter a valid distance budget")
		return
	}

	c.budgetGen++
	gen := c.budgetGen

	ctx, cancel := c.requestContext()
	c.pending++
	go func() {
		defer cancel()
		err := c.svc.ChangeDistanceBudget(ctx, km)
		c.post(func() { c.finishBudget(gen, km, err) })
	}()
}

// finishBudget applies a successful ack unless a newer submission's ack was
// already applied.
func (c *Controller) finishBudget(gen uint64, km float64, err error) {
	defer c.settle()
	if err != nil {
		c.log.Error().Err(err).Float64("km", km).Msg("distance budget change failed")
		c.notify(KindError, failureMessage(err, "changing the distance budget"))
		return
	}
	if gen < c.appliedBudgetGen {
		c.log.Debug().Float64("km", km).Uint64("generation", gen).Uint64("applied", c.appliedBudgetGen).Msg("discarding superseded distance budget ack")
		return
	}
	c.appliedBudgetGen = gen
	c.state.DistanceBudget = km
	c.log.Info().Float64("km", km).Msg("distance budget changed")
	c.notify(KindSuccess, "Distance budget set to "+formatKm(km)+" km")
	c.refreshInfo()
}

func (c *Controller) clearRoute() {
	ctx, cancel := c.requestContext()
	c.pending++
	go func() {
		defer cancel()
		err := c.svc.ClearRoute(ctx)
		c.post(func() { c.finishClear(err) })
	}()
}

func (c *Controller) finishClear(err error) {
	defer c.settle()
	if err != nil {
		c.log.Error().Err(err).Msg("clear route failed")
		c.notify(KindError, failureMessage(err, "clearing the route"))
		return
	}

	// A compute still in flight must not repaint the cleared routes.
	c.routeGen++

	c.state.Routes = []graph.Route{}
	c.state.SelectedNode = ""
	c.surface.ClearRoutes()
	c.surface.MarkSelected("")

	c.notify(KindSuccess, "Route cleared")
	c.switchMapType(MapRisk)
}

func (c *Controller) selectNode(id string) {
	if c.remoteView {
		c.log.Debug().Str("node", id).Msg("node selection is unavailable with a remote view")
		return
	}
	n, ok := c.graph.Node(id)
	if !ok {
		c.log.Warn().Str("node", id).Msg("unknown node selected")
		return
	}

	c.state.SelectedNode = n.ID
	c.surface.MarkSelected(n.ID)
	c.surface.RenderNodeInfo(nodeInfo(n))
	c.log.Debug().Str("node", n.ID).Str("kind", n.Kind).Msg("node selected")
}

// settle marks one remote call as applied and releases idle waiters.
func (c *Controller) settle() {
	c.pending--
	if c.pending > 0 {
		return
	}
	for _, w := range c.idleWaiters {
		close(w)
	}
	c.idleWaiters = nil
}

func (c *Controller) refreshInfo() {
	if c.remoteView {
		c.surface.RenderInfo(remoteInfo(c.state.MapType, c.state.DistanceBudget))
		return
	}
	c.surface.RenderInfo(fallbackInfo(c.graph, len(c.state.Routes), c.state.DistanceBudget))
}

// after runs fn on the loop once d has elapsed.
func (c *Controller) after(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	time.AfterFunc(d, func() { c.post(fn) })
}

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Controller) notify(kind Kind, msg string) {
	c.notifier.Notify(Notification{
		ID:        uuid.New(),
		Kind:      kind,
		Message:   msg,
		CreatedAt: c.now(),
	})
}

func failureMessage(err error, action string) string {
	var te *routeclient.TransportError
	if errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded) {
		return "Connection error while " + action
	}
	return "Error " + action
}
