package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// singleLayerConfig builds a one-layer horizontal grid.
func singleLayerConfig(w, h int) *grid.Config {
	return &grid.Config{
		Width:     w,
		Height:    h,
		PinLayers: 1,
		LayerRules: []grid.LayerRule{
			{Vertical: false, PitchX: 1, PitchY: 1, PathWidth: 0.2},
		},
	}
}

// twoLayerConfig builds the usual horizontal-then-vertical pair.
func twoLayerConfig(w, h int) *grid.Config {
	return &grid.Config{
		Width:     w,
		Height:    h,
		PinLayers: 2,
		LayerRules: []grid.LayerRule{
			{Vertical: false, PitchX: 1, PitchY: 1, PathWidth: 0.2},
			{Vertical: true, PitchX: 1, PitchY: 1, PathWidth: 0.2},
		},
	}
}

// threeLayerConfig adds a horizontal third layer, for stacking tests.
func threeLayerConfig(w, h int) *grid.Config {
	return &grid.Config{
		Width:     w,
		Height:    h,
		PinLayers: 3,
		LayerRules: []grid.LayerRule{
			{Vertical: false, PitchX: 1, PitchY: 1, PathWidth: 0.2},
			{Vertical: true, PitchX: 1, PitchY: 1, PathWidth: 0.2},
			{Vertical: false, PitchX: 1, PitchY: 1, PathWidth: 0.2},
		},
	}
}

// fixture wires a grid and a netlist together the way the obstruction
// pipeline would: every tap cell carries its net number and a NodeInfo
// back-reference.
type fixture struct {
	t    *testing.T
	g    *grid.Grid
	nets []*layout.Net
	next int
}

func newFixture(t *testing.T, cfg *grid.Config) *fixture {
	t.Helper()
	g, err := grid.New(cfg)
	require.NoError(t, err)

	return &fixture{t: t, g: g, next: layout.MinNetNum}
}

// addNet creates a net with one single-tap node per tap given.
func (fx *fixture) addNet(name string, taps ...layout.Tap) *layout.Net {
	fx.t.Helper()
	net := &layout.Net{Netnum: fx.next, Name: name}
	fx.next++
	for i, tap := range taps {
		node := &layout.Node{Num: i, Netnum: net.Netnum, Taps: []layout.Tap{tap}}
		net.Nodes = append(net.Nodes, node)
		fx.placeTap(node, tap)
	}
	fx.nets = append(fx.nets, net)

	return net
}

// placeTap records one tap in the obstruction array and the node-info
// table.
func (fx *fixture) placeTap(node *layout.Node, tap layout.Tap) {
	fx.t.Helper()
	obs := fx.g.Obs(tap.X, tap.Y, tap.Layer)
	obs.Net = node.Netnum
	if tap.Layer < fx.g.Cfg().PinLayers {
		fx.g.SetNodeInfo(tap.X, tap.Y, tap.Layer, &layout.NodeInfo{Node: node, Saved: node})
	}
}

// router builds a Router over the fixture's state.
func (fx *fixture) router(opts ...Option) *Router {
	return New(fx.g, fx.nets, opts...)
}

// obstructRow fills a horizontal run with hard obstructions.
func (fx *fixture) obstructRow(y, layer, x1, x2 int) {
	for x := x1; x <= x2; x++ {
		fx.g.Obs(x, y, layer).NoNet = true
	}
}

// segEndpoints returns the two endpoints of a segment in a direction-
// independent form (smaller coordinate first).
func segEndpoints(seg *layout.Seg) [2][2]int {
	a := [2]int{seg.X1, seg.Y1}
	b := [2]int{seg.X2, seg.Y2}
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		a, b = b, a
	}

	return [2][2]int{a, b}
}

// maxViaRun returns the tallest run of consecutive via segments sharing
// one (x, y) column in the route.
func maxViaRun(rt *layout.Route) int {
	maxRun, run := 0, 0
	var lastX, lastY int
	for i := range rt.Segs {
		seg := &rt.Segs[i]
		if !seg.IsVia() {
			run = 0

			continue
		}
		if run > 0 && (seg.X1 != lastX || seg.Y1 != lastY) {
			run = 0
		}
		run++
		lastX, lastY = seg.X1, seg.Y1
		if run > maxRun {
			maxRun = run
		}
	}

	return maxRun
}

// obsSnapshot captures the externally visible obstruction state of every
// cell for restore comparisons.
type obsState struct {
	net      int
	routed   bool
	noNet    bool
	blocked  grid.BlockDir
	pin      grid.PinFlag
	shielded bool
}

func snapshotObs(g *grid.Grid) []obsState {
	var snap []obsState
	g.ForEach(func(x, y, layer int) {
		c := g.Obs(x, y, layer)
		snap = append(snap, obsState{
			net:      c.Net,
			routed:   c.Routed,
			noNet:    c.NoNet,
			blocked:  c.Blocked,
			pin:      c.Pin,
			shielded: c.DRCShielded(),
		})
	})

	return snap
}
