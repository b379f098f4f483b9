package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridroute/layout"
)

// TestFindColliding_DirectOverlap: a deferred-writeback route crossing a
// committed net reports exactly that net and flags its route.
func TestFindColliding_DirectOverlap(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(10, 10))
	wall := fx.addNet("wall", layout.Tap{X: 0, Y: 3}, layout.Tap{X: 9, Y: 3})
	cross := fx.addNet("cross", layout.Tap{X: 4, Y: 1}, layout.Tap{X: 4, Y: 6})
	r := fx.router()

	_, err := r.RouteNet(wall)
	require.NoError(t, err)

	// Fabricate the stage-2 state: the crossing route exists on the net
	// but has not been written back.
	cross.Routes = append(cross.Routes, &layout.Route{
		Netnum: cross.Netnum,
		Segs:   []layout.Seg{{Type: layout.SegWire, Layer: 0, X1: 4, Y1: 6, X2: 4, Y2: 1}},
	})

	colliding, ripnum := r.FindColliding(cross)
	require.Len(t, colliding, 1)
	assert.Same(t, wall, colliding[0])
	assert.Equal(t, 1, ripnum)
	assert.NotZero(t, wall.Routes[0].Flags&layout.RouteRip)
}

// TestFindColliding_IgnoresPowerBus: reserved bus occupancy is never a
// collision.
func TestFindColliding_IgnoresPowerBus(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(10, 10))
	for x := 0; x < 10; x++ {
		fx.g.Obs(x, 3, 0).Net = layout.GndNet
	}
	net := fx.addNet("n", layout.Tap{X: 4, Y: 1}, layout.Tap{X: 4, Y: 6})
	net.Routes = append(net.Routes, &layout.Route{
		Netnum: net.Netnum,
		Segs:   []layout.Seg{{Type: layout.SegWire, Layer: 0, X1: 4, Y1: 6, X2: 4, Y2: 1}},
	})
	r := fx.router()

	colliding, ripnum := r.FindColliding(net)
	assert.Empty(t, colliding)
	assert.Zero(t, ripnum)
}

// TestRipupDependent: a route chained onto a ripped route is ripped too,
// transitively.
func TestRipupDependent(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(10, 10))
	net := fx.addNet("n", layout.Tap{X: 1, Y: 1})
	r := fx.router()

	r1 := &layout.Route{Netnum: net.Netnum, Flags: layout.RouteRip}
	r2 := &layout.Route{Netnum: net.Netnum}
	r2.Start.Route = r1
	r3 := &layout.Route{Netnum: net.Netnum}
	r3.End.Route = r2
	net.Routes = []*layout.Route{r1, r2, r3}

	r.ripupDependent(net)

	assert.NotZero(t, r2.Flags&layout.RouteRip)
	assert.NotZero(t, r3.Flags&layout.RouteRip, "rip propagates transitively")
}

// TestRipupNet_Flagged: only the flagged route goes; the survivor is
// written back afterwards and keeps its cells.
func TestRipupNet_Flagged(t *testing.T) {
	fx := newFixture(t, twoLayerConfig(12, 12))
	net := fx.addNet("n",
		layout.Tap{X: 2, Y: 2},
		layout.Tap{X: 9, Y: 2},
		layout.Tap{X: 5, Y: 8},
	)
	r := fx.router()
	_, err := r.RouteNet(net)
	require.NoError(t, err)
	require.Len(t, net.Routes, 2)

	victim := net.Routes[1]
	survivor := net.Routes[0]
	victim.Flags |= layout.RouteRip

	require.True(t, r.RipupNet(net, true, true, false))
	require.Len(t, net.Routes, 1)
	assert.Same(t, survivor, net.Routes[0])

	for i := range survivor.Segs {
		survivor.Segs[i].Cells(func(x, y, layer int) bool {
			obs := fx.g.Obs(x, y, layer)
			assert.Equal(t, net.Netnum, obs.Net)
			assert.True(t, obs.Routed)

			return true
		})
	}
}

// TestRipupNet_Retain: with retain the obstruction state is cleared but
// the route records stay for a later writeback.
func TestRipupNet_Retain(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(10, 10))
	net := fx.addNet("n", layout.Tap{X: 2, Y: 2}, layout.Tap{X: 7, Y: 2})
	r := fx.router()
	_, err := r.RouteNet(net)
	require.NoError(t, err)

	require.True(t, r.RipupNet(net, true, false, true))
	require.Len(t, net.Routes, 1, "retained for possible reinstatement")
	assert.False(t, fx.g.Obs(4, 2, 0).Routed)

	// Reinstate and verify the cells come back.
	r.WritebackAllRoutes(net)
	assert.True(t, fx.g.Obs(4, 2, 0).Routed)
	assert.Equal(t, net.Netnum, fx.g.Obs(4, 2, 0).Net)
}

// TestAnalyzeRouteOverwrite: an orphaned position triggers no action; a
// position connected to a live route rips the owner.
func TestAnalyzeRouteOverwrite(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(10, 10))
	owner := fx.addNet("owner", layout.Tap{X: 1, Y: 5}, layout.Tap{X: 8, Y: 5})
	r := fx.router()
	_, err := r.RouteNet(owner)
	require.NoError(t, err)

	// Orphan: a stray cell with no same-net neighbor.
	fx.g.Obs(1, 1, 0).Net = owner.Netnum
	assert.False(t, r.analyzeRouteOverwrite(1, 1, 0, owner.Netnum))
	assert.NotEmpty(t, owner.Routes)

	// Connected: a position on the live route rips the owner.
	assert.True(t, r.analyzeRouteOverwrite(4, 5, 0, owner.Netnum))
	assert.Empty(t, owner.Routes)
}

// TestCommitRoute_Discontinuity: handing commit an endpoint the search
// never costed fails cleanly.
func TestCommitRoute_Discontinuity(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(8, 8))
	net := fx.addNet("n", layout.Tap{X: 2, Y: 2})
	r := fx.router()
	r.cur = net
	fx.g.SeedPR()
	// (2,2) is the net's own tap: net payload, no cost flag.
	ept := gridPt{X: 2, Y: 2, Layer: 0}
	rt := &layout.Route{Netnum: net.Netnum}
	assert.ErrorIs(t, r.commitRoute(rt, &ept, StageRoute), ErrDiscontinuity)
	assert.Empty(t, rt.Segs)
}

// TestCommitRoute_StageTwoDefersWriteback: segments are recorded but the
// obstruction array stays untouched until WritebackAllRoutes.
func TestCommitRoute_StageTwoDefersWriteback(t *testing.T) {
	fx := newFixture(t, singleLayerConfig(10, 10))
	net := fx.addNet("n", layout.Tap{X: 2, Y: 2}, layout.Tap{X: 6, Y: 2})
	r := fx.router()

	f, bbox := seedSearch(t, fx, r, net, StageRipup)
	best, err := r.search(f, bbox, StageRipup)
	require.NoError(t, err)

	rt := &layout.Route{Netnum: net.Netnum}
	require.NoError(t, r.commitRoute(rt, &best, StageRipup))
	require.NotEmpty(t, rt.Segs)

	assert.False(t, fx.g.Obs(4, 2, 0).Routed, "writeback deferred on the rip-up stage")

	net.Routes = append(net.Routes, rt)
	r.WritebackAllRoutes(net)
	assert.True(t, fx.g.Obs(4, 2, 0).Routed)
	assert.Equal(t, net.Netnum, fx.g.Obs(4, 2, 0).Net)
}
