package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// evalFixture seeds a router with one current net and a clean scratchpad.
func evalFixture(t *testing.T, cfg *grid.Config) (*fixture, *Router, *layout.Net) {
	t.Helper()
	fx := newFixture(t, cfg)
	net := fx.addNet("cur", layout.Tap{X: 0, Y: 0}, layout.Tap{X: 1, Y: 0})
	r := fx.router()
	r.cur = net
	fx.g.SeedPR()

	return fx, r, net
}

// TestEvalPt_PreferredVsJog: an x step on a horizontal layer costs
// SegCost; a y step costs JogCost.
func TestEvalPt_PreferredVsJog(t *testing.T) {
	fx, r, _ := evalFixture(t, singleLayerConfig(8, 8))

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 7}

	// Probe the east neighbor (its predecessor points west).
	p := r.evalPt(from, grid.West, false, StageRoute)
	require.NotNil(t, p)
	assert.Equal(t, 7+r.opts.Costs.Seg, fx.g.PR(5, 4, 0).Cost())
	assert.Equal(t, grid.West, fx.g.PR(5, 4, 0).Pred)

	// Probe the north neighbor (a jog on this layer).
	p = r.evalPt(from, grid.South, false, StageRoute)
	require.NotNil(t, p)
	assert.Equal(t, 7+r.opts.Costs.Jog, fx.g.PR(4, 5, 0).Cost())
}

// TestEvalPt_ViaCost: a layer change costs ViaCost.
func TestEvalPt_ViaCost(t *testing.T) {
	fx, r, _ := evalFixture(t, twoLayerConfig(8, 8))

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	p := r.evalPt(from, grid.Down, false, StageRoute)
	require.NotNil(t, p)
	assert.Equal(t, r.opts.Costs.Via, fx.g.PR(4, 4, 1).Cost())
}

// TestEvalPt_NoImprovement: a second, costlier arrival leaves the cell
// untouched and returns nothing.
func TestEvalPt_NoImprovement(t *testing.T) {
	fx, r, _ := evalFixture(t, singleLayerConfig(8, 8))

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	require.NotNil(t, r.evalPt(from, grid.West, false, StageRoute))
	got := fx.g.PR(5, 4, 0).Cost()

	worse := gridPt{X: 4, Y: 4, Layer: 0, Cost: 50}
	assert.Nil(t, r.evalPt(worse, grid.West, false, StageRoute))
	assert.Equal(t, got, fx.g.PR(5, 4, 0).Cost(), "cost must not regress")
}

// TestEvalPt_OtherNetByStage: another net's cell is a wall at the
// ordinary stage and a costed conflict at the rip-up stage (the conflict
// surcharge applies twice on first touch).
func TestEvalPt_OtherNetByStage(t *testing.T) {
	fx, r, _ := evalFixture(t, singleLayerConfig(8, 8))
	fx.g.Obs(5, 4, 0).Net = layout.MinNetNum + 5
	fx.g.SeedPR()

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	assert.Nil(t, r.evalPt(from, grid.West, false, StageRoute))

	p := r.evalPt(from, grid.West, false, StageRipup)
	require.NotNil(t, p)
	pr := fx.g.PR(5, 4, 0)
	assert.True(t, pr.Has(grid.PRConflict))
	assert.Equal(t, r.opts.Costs.Seg+2*r.opts.Costs.Conflict, pr.Cost())
}

// TestEvalPt_NoRipupRefusal: a cell of a noripup net is a wall even at
// the rip-up stage.
func TestEvalPt_NoRipupRefusal(t *testing.T) {
	fx, r, net := evalFixture(t, singleLayerConfig(8, 8))
	protected := &layout.Net{Netnum: layout.MinNetNum + 5, Name: "prot"}
	net.NoRipup = []*layout.Net{protected}
	fx.g.Obs(5, 4, 0).Net = protected.Netnum
	fx.g.SeedPR()

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	assert.Nil(t, r.evalPt(from, grid.West, false, StageRipup))
}

// TestEvalPt_TerminalRefusal: another net's terminal cell can never be
// crossed, even at the rip-up stage.
func TestEvalPt_TerminalRefusal(t *testing.T) {
	fx, r, _ := evalFixture(t, singleLayerConfig(8, 8))
	other := &layout.Node{Num: 0, Netnum: layout.MinNetNum + 5, Taps: []layout.Tap{{X: 5, Y: 4}}}
	fx.placeTap(other, other.Taps[0])
	fx.g.SeedPR()

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	assert.Nil(t, r.evalPt(from, grid.West, false, StageRipup))
}

// TestEvalPt_CrossoverCosts: stepping on the layer above a tap pays
// XverCost for a multi-tap node and BlockCost for a single-tap node.
func TestEvalPt_CrossoverCosts(t *testing.T) {
	fx, r, _ := evalFixture(t, twoLayerConfig(10, 10))

	multi := &layout.Node{Num: 0, Netnum: layout.MinNetNum + 5,
		Taps: []layout.Tap{{X: 5, Y: 4}, {X: 6, Y: 4}}}
	fx.placeTap(multi, multi.Taps[0])
	fx.placeTap(multi, multi.Taps[1])
	single := &layout.Node{Num: 1, Netnum: layout.MinNetNum + 5,
		Taps: []layout.Tap{{X: 5, Y: 7}}}
	fx.placeTap(single, single.Taps[0])
	fx.g.SeedPR()

	// Cross-under over the multi-tap node: jog on the vertical layer
	// plus XverCost.
	from := gridPt{X: 4, Y: 4, Layer: 1, Cost: 0}
	require.NotNil(t, r.evalPt(from, grid.West, false, StageRoute))
	assert.Equal(t, r.opts.Costs.Jog+r.opts.Costs.Xver, fx.g.PR(5, 4, 1).Cost())

	// Over the single-tap node: BlockCost instead.
	from = gridPt{X: 4, Y: 7, Layer: 1, Cost: 0}
	require.NotNil(t, r.evalPt(from, grid.West, false, StageRoute))
	assert.Equal(t, r.opts.Costs.Jog+r.opts.Costs.Block, fx.g.PR(5, 7, 1).Cost())
}

// TestEvalPt_OffsetCost: landing on a stubbed pin cell pays OffsetCost
// in proportion to the stub length.
func TestEvalPt_OffsetCost(t *testing.T) {
	fx, r, _ := evalFixture(t, twoLayerConfig(8, 8))
	node := &layout.Node{Num: 0, Netnum: layout.MinNetNum + 5, Taps: []layout.Tap{{X: 5, Y: 4}}}
	fx.g.Obs(5, 4, 0).Net = node.Netnum
	fx.g.SetNodeInfo(5, 4, 0, &layout.NodeInfo{
		Node: node, Saved: node, Flags: layout.StubEW, Stub: -1.5,
	})
	fx.g.SeedPR()

	// Mark the pin cell as part of our own search so the step itself is
	// permitted, then price it.
	pr := fx.g.PR(5, 4, 0)
	pr.Flags = grid.PRCost
	pr.SetCost(grid.MaxCost)

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	require.NotNil(t, r.evalPt(from, grid.West, false, StageRoute))
	want := r.opts.Costs.Seg + int(1.5*float64(r.opts.Costs.Offset))
	assert.Equal(t, want, pr.Cost())
}

// TestEvalPt_BlockedDirection: a directional blockage forbids the step
// regardless of stage.
func TestEvalPt_BlockedDirection(t *testing.T) {
	fx, r, _ := evalFixture(t, singleLayerConfig(8, 8))
	fx.g.Obs(5, 4, 0).Blocked = grid.BlockWest
	fx.g.SeedPR()

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	assert.Nil(t, r.evalPt(from, grid.West, false, StageRipup))
}

// TestEvalPt_ForcedConflict: the forced flag front-loads a tenfold
// conflict surcharge.
func TestEvalPt_ForcedConflict(t *testing.T) {
	fx, r, _ := evalFixture(t, singleLayerConfig(8, 8))

	from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 0}
	require.NotNil(t, r.evalPt(from, grid.West, true, StageRoute))
	assert.Equal(t, r.opts.Costs.Seg+10*r.opts.Costs.Conflict, fx.g.PR(5, 4, 0).Cost())
}

// TestEvalPt_Deterministic: the same step on the same state produces the
// same cost (property: the evaluator is a pure function of its inputs
// plus the monotone cell update).
func TestEvalPt_Deterministic(t *testing.T) {
	run := func() int {
		fx, r, _ := evalFixture(t, twoLayerConfig(8, 8))
		from := gridPt{X: 4, Y: 4, Layer: 0, Cost: 3}
		require.NotNil(t, r.evalPt(from, grid.West, false, StageRoute))

		return fx.g.PR(5, 4, 0).Cost()
	}
	assert.Equal(t, run(), run())
}
