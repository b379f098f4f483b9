package router

import (
	"fmt"

	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// setRouteToNet folds one committed route into the set being built:
// every cell the route covers is painted with flag, pushed, and recorded
// in bbox. Nodes discovered along the way (through the pin metadata of
// covered cells) join the set too — that which is already routed is
// routable by definition.
func (r *Router) setRouteToNet(net *layout.Net, rt *layout.Route, flag grid.PRFlag, f *frontier, bbox *grid.Box, stage Stage) error {
	if rt == nil || len(rt.Segs) == 0 {
		return nil
	}
	pinLayers := r.g.Cfg().PinLayers

	for i := range rt.Segs {
		rt.Segs[i].Cells(func(x, y, layer int) bool {
			// Route cells join the set unconditionally: previous search
			// state (processed marks, predecessors) is discarded.
			pr := r.g.PR(x, y, layer)
			if flag == grid.PRSource {
				pr.Flags = flag
				pr.SetCost(0)
			} else {
				pr.Flags = flag | grid.PRCost
				pr.SetCost(grid.MaxCost)
			}
			pr.Pred = grid.DirNone

			if f != nil && !pr.Has(grid.PROnStack) {
				pr.Flags |= grid.PROnStack
				f.pushPt(x, y, layer, rankDirect)
			}
			if bbox != nil {
				bbox.Grow(x, y)
			}

			// A node connected to the route joins the same set.
			var n2 *layout.Node
			if layer < pinLayers {
				if info := r.g.NodeInfo(x, y, layer); info != nil {
					n2 = info.Saved
				}
			}
			if n2 != nil && n2 != net.Nodes[0] {
				if flag == grid.PRSource {
					r.ClearTargetNode(n2)
				}
				// Marking errors here are not fatal: the route itself is
				// already part of the set.
				_, _ = r.SetNodeToNet(n2, flag, f, bbox, stage)
			}

			return true
		})
	}

	return nil
}

// SetRoutesToNet folds every route connected (directly or transitively)
// to node into the set being built. The connectivity walk follows the
// start/end bindings of each route; the visited mark prevents re-entry
// within a single pass.
func (r *Router) SetRoutesToNet(node *layout.Node, net *layout.Net, flag grid.PRFlag, f *frontier, bbox *grid.Box, stage Stage) error {
	net.ClearVisited()

	for _, rt := range net.Routes {
		if (rt.Start.IsNode() && rt.Start.Node == node) ||
			(rt.End.IsNode() && rt.End.Node == node) {
			if err := r.setRouteTreeToNet(net, rt, flag, f, bbox, stage); err != nil {
				return err
			}
		}
	}

	return nil
}

// setRouteTreeToNet walks the route-connectivity graph from rt with an
// explicit worklist (the fan-out of a net is unbounded, so recursion is
// not an option) and folds every reached route into the set.
func (r *Router) setRouteTreeToNet(net *layout.Net, rt *layout.Route, flag grid.PRFlag, f *frontier, bbox *grid.Box, stage Stage) error {
	work := []*layout.Route{rt}
	var diag error

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		if cur.Flags&layout.RouteVisited != 0 {
			continue
		}
		cur.Flags |= layout.RouteVisited

		if err := r.setRouteToNet(net, cur, flag, f, bbox, stage); err != nil {
			return err
		}

		work = appendConnected(work, net, cur, cur.Start, &diag)
		work = appendConnected(work, net, cur, cur.End, &diag)
	}

	return diag
}

// appendConnected queues the routes reachable through one endpoint of
// cur: a node endpoint pulls in every route anchored on cur, a route
// endpoint pulls in that route, and an unresolved endpoint is recorded
// as a diagnostic and skipped.
func appendConnected(work []*layout.Route, net *layout.Net, cur *layout.Route, end layout.Binding, diag *error) []*layout.Route {
	switch {
	case end.IsNode():
		for _, other := range net.Routes {
			if !other.Start.IsNode() && other.Start.Route == cur {
				work = append(work, other)
			}
			if !other.End.IsNode() && other.End.Route == cur {
				work = append(work, other)
			}
		}
	case end.Route != nil:
		work = append(work, end.Route)
	default:
		if *diag == nil {
			*diag = fmt.Errorf("%w: net %q", ErrEndpoint, net.Name)
		}
	}

	return work
}
