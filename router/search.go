package router

import (
	"github.com/katalvlaran/gridroute/grid"
)

// expandOrder fixes the deterministic neighbor probe order: ties between
// equal-cost neighbors break toward the direction expanded first.
var expandOrder = [6]grid.Dir{grid.North, grid.South, grid.East, grid.West, grid.Up, grid.Down}

// search runs the wavefront from the seeded source set until the
// cheapest reachable target is proven. The frontier is LIFO within each
// priority rank; every pop relaxes the six neighbors through the cost
// evaluator, confined to the expanded bounding box.
//
// A popped target becomes the running best; expansion of any cell that
// can no longer beat the best is pruned, so the loop ends once the
// frontier drains. Returns the best target with its accumulated cost, or
// ErrNoRoute when no target was ever reached.
func (r *Router) search(f *frontier, bbox grid.Box, stage Stage) (gridPt, error) {
	layers := r.g.Cfg().Layers()
	var best gridPt
	best.Cost = grid.MaxCost
	found := false

	for {
		p := f.pop()
		if p == nil {
			break
		}

		pr := r.g.PR(p.X, p.Y, p.Layer)
		pr.Flags &^= grid.PROnStack
		if pr.Has(grid.PRProcessed) {
			continue
		}
		pr.Flags |= grid.PRProcessed

		cost := pr.Cost()
		if found && cost >= best.Cost {
			continue // cannot improve on the best target
		}

		if pr.Has(grid.PRTarget) {
			if cost < best.Cost {
				best = gridPt{X: p.X, Y: p.Y, Layer: p.Layer, Cost: cost}
				found = true
			}

			continue
		}

		cur := gridPt{X: p.X, Y: p.Y, Layer: p.Layer, Cost: cost}
		for _, dir := range expandOrder {
			nx, ny, nl := stepTo(p.X, p.Y, p.Layer, dir)
			if nl < 0 || nl >= layers || !bbox.Contains(nx, ny) {
				continue
			}
			if np := r.evalPt(cur, dir, false, stage); np != nil {
				f.push(np, 0)
			}
		}
	}

	if !found {
		return gridPt{}, ErrNoRoute
	}

	return best, nil
}
