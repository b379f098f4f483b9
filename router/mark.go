package router

import (
	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// tapRank orders a direct tap by how difficult it is to route to:
// 0 no restrictions, 1 stub wire, 3 offset, 4 offset and stub.
// (Rank 2 is reserved for halo points, see extendRank.)
func tapRank(info *layout.NodeInfo) int {
	if info == nil {
		return rankDirect
	}
	rank := rankDirect
	if info.Flags&layout.OffsetMask != 0 {
		rank = rankOffset
	}
	if info.Flags&layout.StubMask != 0 {
		rank++
	}

	return rank
}

// extendRank orders a halo point: stub/offset metadata raises the base,
// and once a direct tap has already been found the whole halo drops two
// more ranks.
func extendRank(info *layout.NodeInfo, foundOne bool) int {
	base := 0
	if info != nil {
		if info.Flags&layout.OffsetMask != 0 {
			base = 2
		}
		if info.Flags&layout.StubMask != 0 {
			base++
		}
	}
	if foundOne {
		base += rankHalo
	}
	if base > numRanks-1 {
		base = numRanks - 1
	}

	return base
}

// SetNodeToNet paints every tap of node with flag (grid.PRSource or
// grid.PRTarget), seeds the cost payload (0 for sources, MaxCost for
// targets), and pushes marked cells onto the frontier ranked by tap
// difficulty. Halo points participate only when the cell's NodeInfo
// confirms ownership by this node.
//
// The stage controls how aggressively collisions are tolerated: the
// ordinary stage accepts only free cells and the net's own, the rip-up
// stage accepts other ordinary nets (PRConflict is set, penalized at
// search time), and the desperation stage accepts even hard obstructions
// so the final via can be shifted off-grid at output time.
//
// If no tap can be marked the routine escalates itself one stage (with a
// shortcut straight to desperation when no other net owns any tap) and
// returns ErrUnreachable once desperation fails. A tap already carrying
// the opposite set's flag short-circuits with AlreadyConnected.
//
// bbox accumulates the extents of every marked point.
func (r *Router) SetNodeToNet(node *layout.Node, flag grid.PRFlag, f *frontier, bbox *grid.Box, stage Stage) (MarkResult, error) {
	// A power-bus pseudo-node without taps has nothing to mark.
	if len(node.Taps) == 0 && len(node.Extend) == 0 && layout.IsPowerBus(node.Netnum) {
		return Marked, nil
	}

	pinLayers := r.g.Cfg().PinLayers
	foundOne := false
	obsnet := 0

	// 1) Direct tap points.
	for _, tap := range node.Taps {
		pr := r.g.PR(tap.X, tap.Y, tap.Layer)

		// A tap sitting on routable free space means the obstruction map
		// never recorded the pin: the inputs disagree.
		if pr.Flags&(flag|grid.PRCost) == grid.PRCost {
			return Marked, ErrTapUnowned
		}

		switch {
		case pr.Has(grid.PRSource):
			if !foundOne {
				return AlreadyConnected, nil
			}

			continue // duplicate tap position
		case pr.Has(grid.PRTarget):
			if !foundOne {
				return AlreadyConnected, nil
			}

			continue
		}

		if !pr.HasAny(flag) && r.tapAcceptable(pr, node.Netnum, stage) {
			if pr.Net() != node.Netnum {
				pr.Flags |= grid.PRConflict
			}
			markSet(pr, flag)

			if f != nil && !pr.Has(grid.PROnStack) {
				pr.Flags |= grid.PROnStack
				rank := rankDirect
				if tap.Layer < pinLayers {
					rank = tapRank(r.g.NodeInfo(tap.X, tap.Y, tap.Layer))
				}
				f.pushPt(tap.X, tap.Y, tap.Layer, rank)
			}
			foundOne = true
			if bbox != nil {
				bbox.Grow(tap.X, tap.Y)
			}
		} else if n := pr.Net(); n > 0 && n < layout.MaxNetNum {
			obsnet++
		}
	}

	// 2) Halo points, but only those still attached to this node.
	for _, tap := range node.Extend {
		var info *layout.NodeInfo
		if tap.Layer < pinLayers {
			info = r.g.NodeInfo(tap.X, tap.Y, tap.Layer)
			if info == nil || info.Saved != node {
				continue
			}
		}

		pr := r.g.PR(tap.X, tap.Y, tap.Layer)
		switch {
		case pr.Has(grid.PRSource):
			if !foundOne {
				return AlreadyConnected, nil
			}

			continue
		case pr.Has(grid.PRTarget):
			if !foundOne {
				return AlreadyConnected, nil
			}

			continue
		}

		if !pr.HasAny(flag) && r.extendAcceptable(pr, node.Netnum, stage) {
			if pr.Net() != node.Netnum {
				pr.Flags |= grid.PRConflict
			}
			markSet(pr, flag)

			if f != nil && !pr.Has(grid.PROnStack) {
				pr.Flags |= grid.PROnStack
				f.pushPt(tap.X, tap.Y, tap.Layer, extendRank(info, foundOne))
			}
			foundOne = true
			if bbox != nil {
				bbox.Grow(tap.X, tap.Y)
			}
		} else if n := pr.Net(); n > 0 && n < layout.MaxNetNum {
			obsnet++
		}
	}

	if foundOne {
		return Marked, nil
	}

	// 3) Escalate: first tolerate other nets, then obstructions. When no
	//    other net owns any tap there is nothing to rip up, so jump
	//    straight to desperation.
	switch {
	case stage == StageRoute && obsnet == 0:
		return r.SetNodeToNet(node, flag, f, bbox, StageDesperate)
	case stage == StageRoute:
		return r.SetNodeToNet(node, flag, f, bbox, StageRipup)
	case stage == StageRipup:
		return r.SetNodeToNet(node, flag, f, bbox, StageDesperate)
	default:
		return Marked, ErrUnreachable
	}
}

// tapAcceptable decides whether a direct tap cell may join the set at
// the given stage.
func (r *Router) tapAcceptable(pr *grid.PRCell, netnum int, stage Stage) bool {
	switch {
	case pr.Net() == netnum:
		return true
	case stage == StageDesperate:
		return true
	case stage == StageRipup:
		// Other ordinary nets yield; obstructions and spacing shields
		// still hold.
		return pr.Net() < layout.MaxNetNum
	default:
		return false
	}
}

// extendAcceptable decides the same for a halo point.
func (r *Router) extendAcceptable(pr *grid.PRCell, netnum int, stage Stage) bool {
	switch {
	case pr.Net() == netnum:
		return true
	case stage == StageDesperate:
		return true
	case stage == StageRipup:
		return pr.Net() < layout.MaxNetNum
	default:
		return false
	}
}

// markSet applies the set flag and seeds the cost payload: sources carry
// cost 0 without the cost-valid flag, targets carry MaxCost with it.
func markSet(pr *grid.PRCell, flag grid.PRFlag) {
	if flag == grid.PRSource {
		pr.Flags |= flag
		pr.SetCost(0)

		return
	}
	pr.Flags |= flag | grid.PRCost
	pr.SetCost(grid.MaxCost)
}

// DisableNodeNets retires every tap of node to the obstruction sentinel
// so nothing routes to it. Positions already participating in a search
// (source, target, or costed) are left alone; true is returned when any
// such position was found.
func (r *Router) DisableNodeNets(node *layout.Node) bool {
	busy := false
	disable := func(taps []layout.Tap) {
		for _, tap := range taps {
			pr := r.g.PR(tap.X, tap.Y, tap.Layer)
			if pr.HasAny(grid.PRSource | grid.PRTarget | grid.PRCost) {
				busy = true
			} else if pr.Net() == node.Netnum {
				pr.SetNet(layout.MaxNetNum)
			}
		}
	}
	disable(node.Taps)
	disable(node.Extend)

	return busy
}

// SetPowerBus paints every grid cell whose obstruction record matches
// the reserved bus net as a target, all at once. Returns false when
// nothing was marked, meaning the bus net is already fully routed.
func (r *Router) SetPowerBus(netnum int) bool {
	if !layout.IsPowerBus(netnum) {
		return false
	}
	marked := false
	r.g.ForEach(func(x, y, layer int) {
		obs := r.g.Obs(x, y, layer)
		if obs.Net != netnum {
			return
		}
		pr := r.g.PR(x, y, layer)
		// Skip positions that have been purposefully disabled.
		if !pr.Has(grid.PRCost) && pr.Net() == layout.MaxNetNum {
			return
		}
		if !pr.Has(grid.PRSource) {
			pr.Flags |= grid.PRTarget | grid.PRCost
			pr.SetCost(grid.MaxCost)
			marked = true
		}
	})

	return marked
}

// ClearNonSourceTargets re-arms the remaining targets of a net: any
// target tap already popped by the search has its processed mark removed
// and goes back on the frontier for the next round.
func (r *Router) ClearNonSourceTargets(net *layout.Net, f *frontier) {
	repush := func(tap layout.Tap, rank int) {
		pr := r.g.PR(tap.X, tap.Y, tap.Layer)
		if !pr.Has(grid.PRTarget) || !pr.Has(grid.PRProcessed) {
			return
		}
		pr.Flags &^= grid.PRProcessed
		if !pr.Has(grid.PROnStack) {
			pr.Flags |= grid.PROnStack
			f.pushPt(tap.X, tap.Y, tap.Layer, rank)
		}
	}
	for _, node := range net.Nodes {
		for _, tap := range node.Taps {
			repush(tap, rankDirect)
		}
		for _, tap := range node.Extend {
			repush(tap, rankStub)
		}
	}
}

// ClearTargetNode removes the target marking from every point belonging
// to the node, reasserting the node's net number in the scratchpad.
func (r *Router) ClearTargetNode(node *layout.Node) {
	pinLayers := r.g.Cfg().PinLayers

	for _, tap := range node.Taps {
		if tap.Layer < pinLayers {
			info := r.g.NodeInfo(tap.X, tap.Y, tap.Layer)
			if info == nil || info.Saved == nil {
				continue
			}
		}
		pr := r.g.PR(tap.X, tap.Y, tap.Layer)
		pr.Flags = 0
		pr.Pred = grid.DirNone
		pr.SetNet(node.Netnum)
	}

	for _, tap := range node.Extend {
		if tap.Layer < pinLayers {
			info := r.g.NodeInfo(tap.X, tap.Y, tap.Layer)
			if info == nil || info.Saved != node {
				continue
			}
		}
		pr := r.g.PR(tap.X, tap.Y, tap.Layer)
		pr.Flags = 0
		pr.Pred = grid.DirNone
		pr.SetNet(node.Netnum)
	}
}

// CountTargets counts the nodes of net that still have at least one
// point marked as a target.
func (r *Router) CountTargets(net *layout.Net) int {
	count := 0
	for _, node := range net.Nodes {
		counted := false
		for _, tap := range node.Taps {
			if r.g.PR(tap.X, tap.Y, tap.Layer).Has(grid.PRTarget) {
				count++
				counted = true

				break
			}
		}
		if counted {
			continue
		}
		for _, tap := range node.Extend {
			if r.g.PR(tap.X, tap.Y, tap.Layer).Has(grid.PRTarget) {
				count++

				break
			}
		}
	}

	return count
}

// FindUnroutedNode returns the first node of a power bus that no
// committed route endpoint touches, or nil when every node is routed.
// Bus nodes are routed one at a time against the whole bus, so route
// endpoints are the only record of which nodes are done.
func (r *Router) FindUnroutedNode(net *layout.Net) *layout.Node {
	if len(net.Routes) == len(net.Nodes) {
		return nil
	}

	routed := make([]bool, len(net.Nodes))
	for _, rt := range net.Routes {
		first := rt.FirstSeg()
		if first == nil {
			continue
		}
		last := rt.LastSeg()
		for _, node := range net.Nodes {
			if routed[node.Num] {
				continue
			}
			if tapTouchesEnds(node.Taps, first, last) || tapTouchesEnds(node.Extend, first, last) {
				routed[node.Num] = true
			}
		}
	}

	for _, node := range net.Nodes {
		if !routed[node.Num] {
			return node
		}
	}

	return nil
}

// tapTouchesEnds reports whether any tap coincides with either endpoint
// of the route's first or last segment.
func tapTouchesEnds(taps []layout.Tap, first, last *layout.Seg) bool {
	for _, tap := range taps {
		for _, seg := range [2]*layout.Seg{first, last} {
			if seg.Layer != tap.Layer {
				continue
			}
			if (seg.X1 == tap.X && seg.Y1 == tap.Y) || (seg.X2 == tap.X && seg.Y2 == tap.Y) {
				return true
			}
		}
	}

	return false
}
