package router

import (
	"math"

	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// stepTo returns the neighbor that would record dir as its predecessor
// direction: the probe target of one expansion step away from (x, y, l).
func stepTo(x, y, layer int, dir grid.Dir) (int, int, int) {
	switch dir {
	case grid.North:
		return x, y - 1, layer
	case grid.South:
		return x, y + 1, layer
	case grid.East:
		return x - 1, y, layer
	case grid.West:
		return x + 1, y, layer
	case grid.Up:
		return x, y, layer - 1
	case grid.Down:
		return x, y, layer + 1
	default:
		return x, y, layer
	}
}

// blockBit maps a predecessor direction to the blockage bit forbidding
// the movement it represents (stepping from the probed cell toward the
// current one).
func blockBit(dir grid.Dir) grid.BlockDir {
	switch dir {
	case grid.North:
		return grid.BlockNorth
	case grid.South:
		return grid.BlockSouth
	case grid.East:
		return grid.BlockEast
	case grid.West:
		return grid.BlockWest
	case grid.Up:
		return grid.BlockUp
	case grid.Down:
		return grid.BlockDown
	default:
		return 0
	}
}

// evalPt evaluates the cost of reaching the cell one step away from the
// current frontier point ept, in the direction that would make dir its
// predecessor. Only the cost of the single step is considered, added to
// the accumulated cost of ept.
//
// When the probed cell's stored cost improves, its predecessor and cost
// are updated, its processed mark is dropped, and a frontier entry is
// returned for (re)processing; otherwise nil.
//
// forced adds a tenfold conflict surcharge up front; it models a config-
// forced crossing of a prohibited boundary.
//
// At the rip-up stage, the first touch of a cell held by another net or
// by a spacing shield also marks it PRConflict|PRCost at MaxCost, even
// when no improvement follows. evalPt is deterministic for a fixed
// scratchpad and obstruction state.
func (r *Router) evalPt(ept gridPt, dir grid.Dir, forced bool, stage Stage) *point {
	costs := &r.opts.Costs
	thiscost := 0
	if forced {
		thiscost = costs.Conflict * 10
	}

	nx, ny, nl := stepTo(ept.X, ept.Y, ept.Layer, dir)

	obs := r.g.Obs(nx, ny, nl)
	if obs.Blocked&blockBit(dir) != 0 {
		return nil
	}

	pr := r.g.PR(nx, ny, nl)
	pinLayers := r.g.Cfg().PinLayers
	var nodeInfo *layout.NodeInfo
	if nl < pinLayers {
		nodeInfo = r.g.NodeInfo(nx, ny, nl)
	}

	if !pr.HasAny(grid.PRCost | grid.PRSource) {
		netnum := pr.Net()
		switch {
		case stage.ripup() && netnum < layout.MaxNetNum:
			// The rip-up stage may cross existing routes — at a price —
			// but never over another net's terminal, and never over a
			// net on the noripup list.
			if nodeInfo != nil && nodeInfo.Saved != nil {
				return nil
			}
			if r.cur != nil && r.cur.InNoRipup(netnum) {
				return nil
			}
			pr.Flags |= grid.PRConflict | grid.PRCost
			pr.SetCost(grid.MaxCost)
			thiscost += costs.Conflict
		case stage.ripup() && netnum == grid.NetDRCShield:
			if nodeInfo != nil && nodeInfo.Saved != nil {
				return nil
			}
			// The shield does not record which net demanded the spacing,
			// so inspect the neighbors in the blockage direction; refuse
			// if any of them is off limits.
			if !r.shieldRipupOK(nx, ny, nl) {
				return nil
			}
			pr.Flags |= grid.PRConflict | grid.PRCost
			pr.SetCost(grid.MaxCost)
			thiscost += costs.Conflict
		default:
			return nil // position is not routable
		}
	}

	// Crossing over (or under) another node's tap blocks that node's
	// future contact there, so charge for the damage: BlockCost when it
	// is the node's only point, tenfold when it is the sole halo point,
	// plain crossover cost otherwise.
	cfg := r.g.Cfg()
	if nl > 0 && nl < pinLayers {
		thiscost += r.crossCost(nx, ny, nl-1, true)
	}
	if nl+1 < pinLayers && nl < cfg.Layers()-1 {
		thiscost += r.crossCost(nx, ny, nl+1, false)
	}

	if ept.Layer != nl {
		thiscost += costs.Via
	}
	vert := cfg.Vert(nl)
	if ept.X != nx {
		thiscost += vert*costs.Jog + (1-vert)*costs.Seg
	}
	if ept.Y != ny {
		thiscost += vert*costs.Seg + (1-vert)*costs.Jog
	}

	thiscost += ept.Cost

	// Stub routes and offsets make a landing worse in proportion to how
	// far off-grid the pin sits.
	if nodeInfo != nil {
		thiscost += int(math.Abs(nodeInfo.Stub) * float64(costs.Offset))
	}

	if pr.Has(grid.PRConflict) {
		thiscost += costs.Conflict
	}

	if thiscost < pr.Cost() {
		pr.Pred = dir
		pr.SetCost(thiscost)
		pr.Flags &^= grid.PRProcessed // needs reprocessing

		if !pr.Has(grid.PROnStack) {
			pr.Flags |= grid.PROnStack

			return &point{X: nx, Y: ny, Layer: nl}
		}
	}

	return nil
}

// crossCost prices a step over the pin layer at (x, y, layer) directly
// above or below the probed cell. under selects the cross-under variant,
// which also weighs halo-only nodes.
func (r *Router) crossCost(x, y, layer int, under bool) int {
	info := r.g.NodeInfo(x, y, layer)
	if info == nil || info.Node == nil {
		return 0
	}
	pt := r.g.PR(x, y, layer)
	if pt.HasAny(grid.PRTarget | grid.PRSource) {
		return 0
	}
	costs := &r.opts.Costs
	node := info.Node

	switch {
	case len(node.Taps) == 1:
		return costs.Block
	case len(node.Taps) == 0 && under:
		switch {
		case len(node.Extend) == 1:
			// The node's only access point: try very hard to avoid it.
			return 10 * costs.Block
		case len(node.Extend) > 0:
			return costs.Block
		default:
			// No access at all; the node will never route, so there is
			// nothing to protect.
			return 0
		}
	default:
		return costs.Xver
	}
}

// shieldRipupOK inspects the neighbors a spacing shield could have come
// from and reports whether ripping through is permitted: false when any
// adjacent committed net is on the current net's noripup list.
func (r *Router) shieldRipupOK(x, y, layer int) bool {
	cfg := r.g.Cfg()
	need := cfg.NeedBlock(layer)

	check := func(nx, ny int) bool {
		obs := r.g.Obs(nx, ny, layer)
		if obs.NoNet {
			return true
		}
		netnum := obs.Net
		if netnum == 0 || (r.cur != nil && netnum == r.cur.Netnum) {
			return true
		}

		return r.cur == nil || !r.cur.InNoRipup(netnum)
	}

	if need&(grid.RouteBlockX|grid.ViaBlockX) != 0 {
		if x < cfg.Width-1 && !check(x+1, y) {
			return false
		}
		if x > 0 && !check(x-1, y) {
			return false
		}
	}
	if need&(grid.RouteBlockY|grid.ViaBlockY) != 0 {
		if y < cfg.Height-1 && !check(x, y+1) {
			return false
		}
		if y > 0 && !check(x, y-1) {
			return false
		}
	}

	return true
}
