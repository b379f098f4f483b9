package router

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// Tech exposes the few technology lookups the commit stage needs from
// the via library. *grid.Config satisfies it; a full technology database
// can be dropped in without touching the core.
type Tech interface {
	// ViaWidth returns the via dimension for the via based at base, as
	// seen from layer, along x (orient 0) or y (orient 1).
	ViaWidth(base, layer, orient int) float64
	// RouteMinArea returns the minimum metal area rule of the layer.
	RouteMinArea(layer int) float64
	// RouteOrientation returns 1 for vertical-preferred layers.
	RouteOrientation(layer int) int
}

// Router holds the routing state shared by every pass: the grid, the
// netlist, the configuration, and the accumulated failures. One net is
// under route at a time; Router methods must not be called concurrently.
type Router struct {
	g     *grid.Grid
	tech  Tech
	opts  Options
	nets  []*layout.Net
	byNum map[int]*layout.Net

	// cur is the net currently under route; consulted by the evaluator
	// for noripup and conflict accounting.
	cur *layout.Net

	failed      []*layout.Net
	totalRoutes int
}

// New builds a Router over an already-populated grid and netlist.
// The grid's own Config serves as the technology database unless the
// caller supplies a richer one via SetTech.
func New(g *grid.Grid, nets []*layout.Net, opts ...Option) *Router {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	byNum := make(map[int]*layout.Net, len(nets))
	for _, net := range nets {
		byNum[net.Netnum] = net
	}

	return &Router{
		g:     g,
		tech:  g.Cfg(),
		opts:  cfg,
		nets:  nets,
		byNum: byNum,
	}
}

// SetTech replaces the technology lookup used by the repair passes.
func (r *Router) SetTech(t Tech) {
	if t != nil {
		r.tech = t
	}
}

// Grid returns the routing grid.
func (r *Router) Grid() *grid.Grid { return r.g }

// Failed returns the nets that could not be routed at any stage.
func (r *Router) Failed() []*layout.Net { return r.failed }

// TotalRoutes returns the number of committed routes so far.
func (r *Router) TotalRoutes() int { return r.totalRoutes }

// netByNum resolves a net number to its record, or nil.
func (r *Router) netByNum(netnum int) *layout.Net { return r.byNum[netnum] }

// RouteNet routes every terminal of net, escalating from the ordinary
// stage to rip-up when blocked. On the rip-up stage the nets that had to
// be torn down are returned so the caller can requeue them.
//
// A net that fails even with rip-up is recorded on the failed list and
// reported as ErrUnroutable.
func (r *Router) RouteNet(net *layout.Net) ([]*layout.Net, error) {
	r.cur = net
	defer func() { r.cur = nil }()

	// 1) Ordinary pass: free cells and own territory only.
	if err := r.routeNetStage(net, StageRoute); err == nil {
		r.finishNet(net)

		return nil, nil
	}

	// 2) Tear down whatever partially committed, then retry with the
	//    rip-up stage, which tolerates collisions at a cost penalty.
	r.RipupNet(net, true, false, false)
	if err := r.routeNetStage(net, StageRipup); err != nil {
		r.RipupNet(net, true, false, false)
		r.failed = append(r.failed, net)

		return nil, fmt.Errorf("%w: net %q: %v", ErrUnroutable, net.Name, err)
	}

	// 3) The committed segments were not written back yet: identify the
	//    colliders, rip them, then apply the writeback.
	colliders, _ := r.FindColliding(net)
	ripped := make([]*layout.Net, 0, len(colliders))
	for _, other := range colliders {
		if r.RipupNet(other, true, true, false) {
			ripped = append(ripped, other)
		}
	}
	r.WritebackAllRoutes(net)
	r.finishNet(net)

	return ripped, nil
}

// RouteAll routes every net in order, requeueing nets that were ripped
// up to make way for later ones. Nets that remain unroutable after
// maxAttempts passes accumulate on the failed list.
func (r *Router) RouteAll() {
	const maxAttempts = 5

	queue := make([]*layout.Net, len(r.nets))
	copy(queue, r.nets)
	attempts := make(map[int]int, len(r.nets))

	for len(queue) > 0 {
		net := queue[0]
		queue = queue[1:]
		if attempts[net.Netnum] >= maxAttempts {
			r.failed = append(r.failed, net)

			continue
		}
		attempts[net.Netnum]++
		ripped, err := r.RouteNet(net)
		if err != nil {
			continue // already on the failed list
		}
		queue = append(queue, ripped...)
	}
}

// routeNetStage runs one full per-net pass at the given stage: seed the
// scratchpad, build the source and target sets, then alternate wavefront
// searches and commits until no target node remains.
func (r *Router) routeNetStage(net *layout.Net, stage Stage) error {
	if layout.IsPowerBus(net.Netnum) {
		return r.routeBusStage(net, stage)
	}
	if net.NumNodes() < 2 {
		return nil
	}

	// 1) Reinterpret the scratchpad from the obstruction state.
	r.g.SeedPR()

	f := &frontier{}
	bbox := grid.EmptyBox()

	// 2) The first node seeds the source set, together with every route
	//    already committed for the net.
	src := net.Nodes[0]
	if _, err := r.SetNodeToNet(src, grid.PRSource, f, &bbox, stage); err != nil {
		return err
	}
	// Endpoint diagnostics from the route walk are non-fatal.
	if err := r.SetRoutesToNet(src, net, grid.PRSource, f, &bbox, stage); err != nil && !errors.Is(err, ErrEndpoint) {
		return err
	}

	// 3) Every remaining node becomes a target.
	targets := 0
	for _, node := range net.Nodes[1:] {
		res, err := r.SetNodeToNet(node, grid.PRTarget, f, &bbox, stage)
		if err != nil {
			return err
		}
		if res != AlreadyConnected {
			targets++
		}
	}
	if targets == 0 {
		return nil
	}

	// 4) Route one terminal per iteration: each committed route joins
	//    the source set and the remaining targets are re-armed.
	for r.CountTargets(net) > 0 {
		ebox := bbox
		ebox.Expand(r.opts.SearchHalo, r.g.Cfg())
		best, err := r.search(f, ebox, stage)
		if err != nil {
			return err
		}

		rt := &layout.Route{Netnum: net.Netnum}
		if err = r.commitRoute(rt, &best, stage); err != nil {
			return err
		}
		net.Routes = append(net.Routes, rt)
		r.totalRoutes++
		// Endpoint resolution failures only degrade future recursive
		// marking; routing continues.
		_ = r.routeSetConnections(net, rt)

		if err = r.setRouteToNet(net, rt, grid.PRSource, f, &bbox, stage); err != nil {
			return err
		}
		r.ClearNonSourceTargets(net, f)
	}

	return nil
}

// routeBusStage routes the nodes of a power bus one at a time, each
// against the full bus occupancy as the target set.
func (r *Router) routeBusStage(net *layout.Net, stage Stage) error {
	for {
		node := r.FindUnroutedNode(net)
		if node == nil {
			return nil
		}

		r.g.SeedPR()
		f := &frontier{}
		bbox := grid.EmptyBox()

		if _, err := r.SetNodeToNet(node, grid.PRSource, f, &bbox, stage); err != nil {
			return err
		}
		if err := r.SetRoutesToNet(node, net, grid.PRSource, f, &bbox, stage); err != nil && !errors.Is(err, ErrEndpoint) {
			return err
		}
		// Sources are in place; now the whole bus becomes the target.
		if !r.SetPowerBus(net.Netnum) {
			return nil
		}

		cfg := r.g.Cfg()
		ebox := grid.Box{X1: 0, Y1: 0, X2: cfg.Width - 1, Y2: cfg.Height - 1}
		best, err := r.search(f, ebox, stage)
		if err != nil {
			return err
		}

		rt := &layout.Route{Netnum: net.Netnum}
		if err = r.commitRoute(rt, &best, stage); err != nil {
			return err
		}
		net.Routes = append(net.Routes, rt)
		r.totalRoutes++
		_ = r.routeSetConnections(net, rt)
	}
}

// finishNet switches off crossover accounting for the routed net: every
// tap cell's live node reference is cleared (the saved reference keeps
// the relation for rip-up to restore).
func (r *Router) finishNet(net *layout.Net) {
	for _, node := range net.Nodes {
		for _, tap := range node.Taps {
			if tap.Layer >= r.g.Cfg().PinLayers {
				continue
			}
			if info := r.g.NodeInfo(tap.X, tap.Y, tap.Layer); info != nil {
				info.Node = nil
			}
		}
	}
}
