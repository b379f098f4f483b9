package router

import (
	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// routePt is one position of the raw path reconstructed from the
// predecessor chain. The repair passes splice jogs into the middle of
// the path, so this one structure stays a linked list.
type routePt struct {
	x, y, layer int
	next        *routePt
}

// at reports whether the point sits at (x, y, layer).
func (p *routePt) at(x, y, layer int) bool {
	return p.x == x && p.y == y && p.layer == layer
}

// commitRoute turns the search result into an actual route: the
// predecessor chain from ept back to a source becomes a point list, the
// repair passes fix stacked-via and minimum-area violations on it, and
// the list is folded into wire/via segments appended to rt.
//
// On the ordinary stage every segment is written back into the
// obstruction array as it is generated; on the rip-up stage the
// writeback is deferred so the collision record survives until the
// colliding nets are torn down (WritebackAllRoutes applies it then).
//
// ept is rewritten to the source-side endpoint of the committed path.
func (r *Router) commitRoute(rt *layout.Route, ept *gridPt, stage Stage) error {
	pr := r.g.PR(ept.X, ept.Y, ept.Layer)
	if !pr.Has(grid.PRCost) {
		return ErrDiscontinuity
	}

	// 1) Walk the predecessor chain into a linked point list. The
	//    list starts at the reached target and ends at a source.
	top := &routePt{x: ept.X, y: ept.Y, layer: ept.Layer}
	end := top
	for {
		cell := r.g.PR(end.x, end.y, end.layer)
		if cell.Pred == grid.DirNone {
			break
		}
		next := &routePt{x: end.x, y: end.y, layer: end.layer}
		switch cell.Pred {
		case grid.North:
			next.y++
		case grid.South:
			next.y--
		case grid.East:
			next.x++
		case grid.West:
			next.x--
		case grid.Up:
			next.layer++
		case grid.Down:
			next.layer--
		}
		end.next = next
		end = next
	}

	// 2) Repair passes. Stacked-via elimination applies whenever the
	//    stacking limit can be exceeded at all; otherwise the interior
	//    vias of permitted stacks are checked against the minimum metal
	//    area rule.
	var err error
	layers := r.g.Cfg().Layers()
	switch {
	case r.opts.StackedContacts < layers-1:
		if top, err = r.repairStacks(top, stage); err != nil {
			return err
		}
	case r.opts.StackedContacts > 0:
		if err = r.repairMinArea(top, stage); err != nil {
			return err
		}
	}

	// 3) Fold the repaired list into segments.
	return r.emitSegments(rt, top, ept, stage)
}

// probeSpec parameterizes the lateral probe shared by both repair
// passes.
type probeSpec struct {
	// collide accepts cells occupied by other ordinary nets at the
	// conflict cost (rip-up stage only).
	collide bool
	// partner additionally requires the probed column to be reachable on
	// the adjacent layer dl.
	partner bool
	// orientFirst probes the pair matching the layer's preferred routing
	// direction before the other pair.
	orientFirst bool
}

// probeResult is the best lateral escape found, if any.
type probeResult struct {
	x, y, cost int
	ok         bool
}

// probeLateral checks the four in-plane neighbors of the via position
// (cx, cy, cl) for the lowest-cost cell the search reached (and, with
// spec.partner, whose partner on layer dl is reachable too). With
// spec.collide, occupied cells of other ordinary nets are acceptable at
// the conflict cost — the overwrite is resolved later by rip-up.
func (r *Router) probeLateral(cx, cy, cl, dl int, spec probeSpec) probeResult {
	costs := &r.opts.Costs
	cfg := r.g.Cfg()
	best := probeResult{cost: grid.MaxCost}

	try := func(nx, ny int) {
		if nx < 0 || nx >= cfg.Width || ny < 0 || ny >= cfg.Height {
			return
		}
		pri := r.g.PR(nx, ny, cl)
		var cost int
		switch {
		case pri.Has(grid.PRCost) && pri.Pred != grid.DirNone:
			cost = pri.Cost()
		case spec.collide && !pri.HasAny(grid.PRCost|grid.PRSource) && pri.Net() < layout.MaxNetNum:
			cost = costs.Conflict
		default:
			return
		}
		if cost >= best.cost {
			return
		}
		if spec.partner {
			pri2 := r.g.PR(nx, ny, dl)
			switch {
			case pri2.Has(grid.PRCost) && pri2.Pred != grid.DirNone && pri2.Cost() < grid.MaxCost:
				// Reachable partner; keep cost as is.
			case spec.collide && !pri2.HasAny(grid.PRCost|grid.PRSource) &&
				pri2.Net() < layout.MaxNetNum && cost+costs.Conflict < best.cost:
				cost += costs.Conflict
			default:
				return
			}
		}
		best = probeResult{x: nx, y: ny, cost: cost, ok: true}
	}

	xFirst := true
	if spec.orientFirst && cfg.Vert(cl) == 1 {
		xFirst = false
	}
	if xFirst {
		try(cx+1, cy)
		try(cx-1, cy)
		try(cx, cy+1)
		try(cx, cy-1)
	} else {
		try(cx, cy+1)
		try(cx, cy-1)
		try(cx+1, cy)
		try(cx-1, cy)
	}

	return best
}

// repairStacks removes every via run taller than the stacking limit by
// splicing a lateral jog at an interior via: first by moving the second
// contact of the run, then the first. At the ordinary stage an
// unrepairable stack aborts the commit; at the rip-up stage a second
// attempt may temporarily overwrite another net before giving up.
// Returns the (possibly replaced) head of the list.
func (r *Router) repairStacks(top *routePt, stage Stage) (*routePt, error) {
	stacks := 1
	for stacks != 0 {
		stacks = 0
		lrcur := top
		lrprev := top.next

		for lrprev != nil {
			lrppre := lrprev.next
			if lrppre == nil {
				break
			}
			// Advance lrcur past any jog inserted on a previous round.
			for lrprev != lrcur.next {
				lrcur = lrcur.next
			}
			stackheight := 0
			a, b := lrcur, lrprev
			for b != nil && a.layer != b.layer {
				stackheight++
				a = b
				b = a.next
			}

			collide := false
			for stackheight > r.opts.StackedContacts {
				stacks++

				// Try to move the second contact of the run.
				cx, cy, cl := lrprev.x, lrprev.y, lrprev.layer
				dl := lrppre.layer
				res := r.probeLateral(cx, cy, cl, dl, probeSpec{collide: collide, partner: true})
				if res.ok {
					newlr := &routePt{x: res.x, y: res.y, layer: cl}
					newlr2 := &routePt{x: res.x, y: res.y, layer: dl}
					lrprev.next = newlr
					newlr.next = newlr2
					// If the next point already sits where the jog lands,
					// bypass the now-redundant point.
					if lrnext := lrppre.next; lrnext != nil && lrnext.at(res.x, res.y, dl) {
						newlr.next = lrnext
						lrppre = lrnext
					} else {
						newlr2.next = lrppre
					}

					break
				}

				// Then try the first contact instead.
				cx, cy, cl = lrcur.x, lrcur.y, lrcur.layer
				dl = lrprev.layer
				res = r.probeLateral(cx, cy, cl, dl, probeSpec{partner: true})
				if res.ok {
					newlr := &routePt{x: res.x, y: res.y, layer: cl}
					newlr2 := &routePt{x: res.x, y: res.y, layer: dl}

					// When the moved point slides along the source or
					// target set, it becomes the new endpoint and the
					// original endpoint is dropped.
					pri := r.g.PR(res.x, res.y, cl)
					pri2 := r.g.PR(lrcur.x, lrcur.y, lrcur.layer)
					if ((pri.Has(grid.PRSource) && pri2.Has(grid.PRSource)) ||
						(pri.Has(grid.PRTarget) && pri2.Has(grid.PRTarget))) && lrcur == top {
						top = newlr
						lrcur = newlr
					} else {
						lrcur.next = newlr
					}
					newlr.next = newlr2

					if lrppre.at(res.x, res.y, dl) {
						newlr.next = lrppre
						lrprev = lrcur
					} else {
						newlr2.next = lrprev
					}

					break
				}

				if stage == StageRoute || collide {
					return top, ErrStackRepair
				}
				// Rip-up stage: retry, permitting a temporary overwrite
				// of another net.
				collide = true
			}

			lrcur = lrprev
			lrprev = lrppre
		}
	}

	return top, nil
}

// repairMinArea checks every via strictly interior to a permitted stack
// against the base layer's minimum metal area rule and, on violation,
// splices a one-cell lateral extension, preferring the layer's routing
// orientation.
func (r *Router) repairMinArea(top *routePt, stage Stage) error {
	cfg := r.g.Cfg()
	layers := cfg.Layers()

	// Register which base layers can violate the rule at all: a via pad
	// already larger than the minimum area needs no check.
	needCheck := make([]bool, layers)
	checks := 0
	for i := 0; i < layers; i++ {
		base := i
		if i == layers-1 && i > 0 {
			base = i - 1
		}
		pad := r.tech.ViaWidth(base, i, 0) * r.tech.ViaWidth(base, i, 1)
		if r.tech.RouteMinArea(i) > pad {
			needCheck[i] = true
			checks++
		}
	}
	if checks == 0 {
		return nil
	}

	violations := 1
	for violations != 0 {
		violations = 0
		lrcur := top
		lrprev := top.next

		for lrprev != nil {
			lrppre := lrprev.next
			if lrppre == nil {
				break
			}

			collide := false
			for lrcur.layer != lrprev.layer && lrprev.layer != lrppre.layer &&
				needCheck[lrprev.layer] {
				// Isolated via inside a stack.
				violations++
				cx, cy, cl := lrprev.x, lrprev.y, lrprev.layer
				res := r.probeLateral(cx, cy, cl, 0, probeSpec{collide: collide, orientFirst: true})
				if res.ok {
					newlr := &routePt{x: res.x, y: res.y, layer: cl}
					newlr2 := &routePt{x: cx, y: cy, layer: cl}
					lrprev.next = newlr
					newlr.next = newlr2
					newlr2.next = lrppre

					break
				}

				if stage == StageRoute || collide {
					return ErrAreaRepair
				}
				collide = true
			}

			lrcur = lrprev
			lrprev = lrppre
		}
	}

	return nil
}

// emitSegments folds the repaired point list into wire and via segments,
// coalescing consecutive same-direction wire steps, carrying pin offset
// annotations onto the right segment ends, and (on the ordinary stage)
// writing every segment back into the obstruction array.
func (r *Router) emitSegments(rt *layout.Route, top *routePt, ept *gridPt, stage Stage) error {
	pinLayers := r.g.Cfg().PinLayers

	lrcur := top
	lrprev := top.next
	if lrprev == nil {
		// Degenerate single-point path: source and target coincide.
		*ept = gridPt{X: top.x, Y: top.y, Layer: top.layer, Cost: ept.Cost}

		return nil
	}

	lsegIdx := -1
	first := true
	var lrend *routePt

	for {
		seg := layout.Seg{X1: lrcur.x, Y1: lrcur.y, X2: lrprev.x, Y2: lrprev.y}
		if lrcur.layer == lrprev.layer {
			seg.Type = layout.SegWire
			seg.Layer = lrcur.layer
		} else {
			seg.Type = layout.SegVia
			seg.Layer = lrcur.layer
			if lrprev.layer < seg.Layer {
				seg.Layer = lrprev.layer
			}
		}
		dx := seg.X2 - seg.X1
		dy := seg.Y2 - seg.Y1

		rt.Segs = append(rt.Segs, seg)
		idx := len(rt.Segs) - 1
		cur := &rt.Segs[idx]

		// Coalesce wire steps that keep the same direction: one long
		// segment instead of many unit pieces. Vias stay one at a time.
		if !cur.IsVia() {
			for lrnext := lrprev.next; lrnext != nil; lrnext = lrprev.next {
				if lrnext.x-lrprev.x != dx || lrnext.y-lrprev.y != dy ||
					lrnext.layer != lrprev.layer {
					break
				}
				lrcur = lrprev
				lrprev = lrnext
				cur.X2 = lrprev.x
				cur.Y2 = lrprev.y
			}
		}

		lay2 := cur.Layer
		if cur.IsVia() {
			lay2++
		}

		// Pin metadata is read before writeback so offsets recorded by
		// the obstruction pipeline survive the occupancy overwrite.
		dir1 := r.g.Obs(cur.X1, cur.Y1, cur.Layer).Pin
		dir2 := r.g.Obs(cur.X2, cur.Y2, lay2).Pin
		var lnode1, lnode2 *layout.NodeInfo
		if cur.Layer < pinLayers {
			lnode1 = r.g.NodeInfo(cur.X1, cur.Y1, cur.Layer)
		}
		if lay2 < pinLayers {
			lnode2 = r.g.NodeInfo(cur.X2, cur.Y2, lay2)
		}

		if stage == StageRoute {
			r.writebackSegment(cur, rt.Netnum)

			// A route starting on an obstruction is a port with no
			// on-grid tap; record the pin metadata where the output
			// stage expects it, vias going down included.
			if first && dir1 != 0 {
				first = false
			} else if first && dir2 != 0 && cur.IsVia() && lrprev.layer != lay2 {
				r.g.Obs(cur.X1, cur.Y1, lay2).Pin |= dir2
			}
		}

		// Keep stub information on obstructions that have been routed
		// over, so rip-up can return them to obstructions.
		r.g.Obs(cur.X1, cur.Y1, cur.Layer).Pin |= dir1
		r.g.Obs(cur.X2, cur.Y2, lay2).Pin |= dir2

		// An offset route end on a preceding via carries onto this wire
		// when the offset runs along the wire direction.
		if lsegIdx >= 0 {
			lseg := &rt.Segs[lsegIdx]
			if lseg.Type&(layout.SegVia|layout.SegOffsetEnd) == layout.SegVia|layout.SegOffsetEnd &&
				!cur.IsVia() && lnode1 != nil && offsetAlong(cur, lnode1) {
				cur.Type |= layout.SegOffsetStart
			}
		}

		if dir1&grid.PinOffset != 0 {
			if lnode1 != nil && offsetAlong(cur, lnode1) {
				cur.Type |= layout.SegOffsetStart
			}
			// An offset on a via applies to the preceding wire as well,
			// when the offset runs along that wire.
			if lsegIdx >= 0 && cur.IsVia() {
				lseg := &rt.Segs[lsegIdx]
				if !lseg.IsVia() && lnode2 != nil && offsetAlong(lseg, lnode2) {
					lseg.Type |= layout.SegOffsetEnd
				}
			}
		}
		if dir2&grid.PinOffset != 0 {
			cur.Type |= layout.SegOffsetEnd
		}

		lrend = lrcur
		lrcur = lrprev
		lrprev = lrcur.next

		if lrprev == nil {
			if dir2 != 0 && stage == StageRoute {
				r.g.Obs(cur.X2, cur.Y2, lay2).Pin |= dir2
			} else if dir1 != 0 && cur.IsVia() {
				r.g.Obs(cur.X1, cur.Y1, cur.Layer).Pin |= dir1
			}
			// Report the source-side endpoint back to the caller.
			*ept = gridPt{X: lrend.x, Y: lrend.y, Layer: lrend.layer, Cost: ept.Cost}

			return nil
		}
		lsegIdx = idx
	}
}

// offsetAlong reports whether the node's offset direction runs along the
// segment: a north/south offset on a vertical piece, or an east/west
// offset on a horizontal one.
func offsetAlong(seg *layout.Seg, info *layout.NodeInfo) bool {
	return (seg.X1 == seg.X2 && info.Flags&layout.OffsetNS != 0) ||
		(seg.Y1 == seg.Y2 && info.Flags&layout.OffsetEW != 0)
}
