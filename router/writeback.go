package router

import (
	"fmt"

	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// writebackSegment copies one segment into the obstruction array: every
// covered cell is claimed for the net, and the neighbors selected by the
// layer's spacing mask receive DRC shields. Shields replace only empty,
// routable positions, so rip-up can recognize and remove exactly what
// commit added.
//
// Offset taps need extra care: the position in front of an offset is
// unroutable, whether the offset is on this segment or on a neighboring
// tap of a different net. The checks are conservative — they do not
// verify that the offset distance is actually large enough to violate
// spacing.
func (r *Router) writebackSegment(seg *layout.Seg, netnum int) {
	cfg := r.g.Cfg()
	w, h := cfg.Width, cfg.Height

	shield := func(x, y, layer int) {
		r.g.Obs(x, y, layer).AddDRCShield()
	}

	if seg.IsVia() {
		top := seg.Layer + 1
		r.g.Obs(seg.X1, seg.Y1, top).Occupy(netnum)
		need := cfg.NeedBlock(top)
		if need&grid.ViaBlockX != 0 {
			if seg.X1 < w-1 {
				shield(seg.X1+1, seg.Y1, top)
			}
			if seg.X1 > 0 {
				shield(seg.X1-1, seg.Y1, top)
			}
		}
		if need&grid.ViaBlockY != 0 {
			if seg.Y1 < h-1 {
				shield(seg.X1, seg.Y1+1, top)
			}
			if seg.Y1 > 0 {
				shield(seg.X1, seg.Y1-1, top)
			}
		}

		// A via landing on an offset tap blocks the position in front of
		// the offset, on both via layers.
		if r.g.Obs(seg.X1, seg.Y1, seg.Layer).Pin&grid.PinOffset != 0 {
			if info := r.g.NodeInfo(seg.X1, seg.Y1, seg.Layer); info != nil {
				dist := info.Offset
				switch {
				case info.Flags&layout.OffsetEW != 0:
					if dist > 0 && seg.X1 < w-1 {
						shield(seg.X1+1, seg.Y1, seg.Layer)
						shield(seg.X1+1, seg.Y1, top)
					}
					if dist < 0 && seg.X1 > 0 {
						shield(seg.X1-1, seg.Y1, seg.Layer)
						shield(seg.X1-1, seg.Y1, top)
					}
				case info.Flags&layout.OffsetNS != 0:
					if dist > 0 && seg.Y1 < h-1 {
						shield(seg.X1, seg.Y1+1, seg.Layer)
						shield(seg.X1, seg.Y1+1, top)
					}
					if dist < 0 && seg.Y1 > 0 {
						shield(seg.X1, seg.Y1-1, seg.Layer)
						shield(seg.X1, seg.Y1-1, top)
					}
				}
			}
		}
	}

	need := cfg.NeedBlock(seg.Layer)
	low := seg.Layer - 1
	if low < 0 {
		low = 0
	}

	// Horizontal sweep (a single column for vertical wires and vias).
	step := 1
	if seg.X2 < seg.X1 {
		step = -1
	}
	for i := seg.X1; ; i += step {
		r.g.Obs(i, seg.Y1, seg.Layer).Occupy(netnum)
		if need&grid.RouteBlockY != 0 {
			if seg.Y1 < h-1 {
				shield(i, seg.Y1+1, seg.Layer)
			}
			if seg.Y1 > 0 {
				shield(i, seg.Y1-1, seg.Layer)
			}
		}

		// A neighboring offset tap of another net pointing at this wire
		// makes the tap position unroutable.
		if seg.Y1 < h-1 {
			r.shieldFacingOffset(i, seg.Y1+1, low, layout.OffsetNS, false)
		}
		if seg.Y1 > 0 {
			r.shieldFacingOffset(i, seg.Y1-1, low, layout.OffsetNS, true)
		}

		if i == seg.X2 {
			break
		}
	}

	// Top of route for vertical wires.
	if seg.Y1 != seg.Y2 {
		r.g.Obs(seg.X2, seg.Y2, seg.Layer).Occupy(netnum)
		if need&grid.RouteBlockY != 0 {
			if seg.Y2 < h-1 {
				shield(seg.X2, seg.Y2+1, seg.Layer)
			}
			if seg.Y2 > 0 {
				shield(seg.X2, seg.Y2-1, seg.Layer)
			}
		}
	}

	// Vertical sweep.
	step = 1
	if seg.Y2 < seg.Y1 {
		step = -1
	}
	for i := seg.Y1; ; i += step {
		r.g.Obs(seg.X1, i, seg.Layer).Occupy(netnum)
		if need&grid.RouteBlockX != 0 {
			if seg.X1 < w-1 {
				shield(seg.X1+1, i, seg.Layer)
			}
			if seg.X1 > 0 {
				shield(seg.X1-1, i, seg.Layer)
			}
		}

		if seg.X1 < w-1 {
			r.shieldFacingOffset(seg.X1+1, i, low, layout.OffsetEW, false)
		}
		if seg.X1 > 0 {
			r.shieldFacingOffset(seg.X1-1, i, low, layout.OffsetEW, true)
		}

		if i == seg.Y2 {
			break
		}
	}

	// End of route for horizontal wires.
	if seg.X1 != seg.X2 {
		r.g.Obs(seg.X2, seg.Y2, seg.Layer).Occupy(netnum)
		if need&grid.RouteBlockX != 0 {
			if seg.X2 < w-1 {
				shield(seg.X2+1, seg.Y2, seg.Layer)
			}
			if seg.X2 > 0 {
				shield(seg.X2-1, seg.Y2, seg.Layer)
			}
		}
	}
}

// shieldFacingOffset shields an unrouted offset tap at (x, y, layer)
// whose offset (of the given axis) points toward the wire being written:
// positive offsets face the increasing-coordinate side.
func (r *Router) shieldFacingOffset(x, y, layer int, axis layout.NodeFlag, positive bool) {
	obs := r.g.Obs(x, y, layer)
	if obs.Pin&grid.PinOffset == 0 || obs.Routed {
		return
	}
	info := r.g.NodeInfo(x, y, layer)
	if info == nil || info.Flags&axis == 0 {
		return
	}
	if (positive && info.Offset > 0) || (!positive && info.Offset < 0) {
		obs.AddDRCShield()
	}
}

// writebackRoute applies a whole route's segments to the obstruction
// array. It is the deferred half of commit, used on the rip-up stage
// after the colliding nets have been torn down, and when replaying
// retained routes.
func (r *Router) writebackRoute(rt *layout.Route) {
	cfg := r.g.Cfg()
	for i := range rt.Segs {
		seg := &rt.Segs[i]
		lay2 := seg.Layer
		if seg.IsVia() {
			lay2++
		}

		// Save stub information from the segment ends so it survives the
		// occupancy overwrite on the first and last segment.
		dir1 := r.g.Obs(seg.X1, seg.Y1, seg.Layer).Pin
		var dir2 grid.PinFlag
		if lay2 < cfg.Layers() {
			dir2 = r.g.Obs(seg.X2, seg.Y2, lay2).Pin
		}

		r.writebackSegment(seg, rt.Netnum)

		if i == 0 || i == len(rt.Segs)-1 {
			if dir1 != 0 {
				r.g.Obs(seg.X1, seg.Y1, seg.Layer).Pin |= dir1
			} else if dir2 != 0 {
				r.g.Obs(seg.X2, seg.Y2, lay2).Pin |= dir2
			}
		}
	}
}

// WritebackAllRoutes applies every committed route of net to the
// obstruction array.
func (r *Router) WritebackAllRoutes(net *layout.Net) {
	for _, rt := range net.Routes {
		r.writebackRoute(rt)
	}
}

// routeSetConnections resolves the endpoint bindings of a freshly
// committed route: each end binds to the node whose pin metadata covers
// it, or failing that to the first other route of the net covering the
// position on a compatible layer. Unresolvable ends are reported as
// ErrEndpoint and left unbound.
func (r *Router) routeSetConnections(net *layout.Net, route *layout.Route) error {
	route.Start = layout.Binding{}
	route.End = layout.Binding{}
	first := route.FirstSeg()
	if first == nil {
		return fmt.Errorf("%w: net %q: empty route", ErrEndpoint, net.Name)
	}
	pinLayers := r.g.Cfg().PinLayers

	// Start: node first, then route.
	found := false
	if first.Layer < pinLayers {
		if info := r.g.NodeInfo(first.X1, first.Y1, first.Layer); info != nil && info.Saved != nil {
			route.Start.Node = info.Saved
			found = true
		}
	}
	if !found {
		if nr := r.findCoveringRoute(net, route, first, first.X1, first.Y1, nil); nr != nil {
			route.Start.Route = nr
			found = true
		}
	}
	startFound := found

	// End: skip the node check when the route is exactly one via joining
	// a node to a route directly above — the node would be counted twice.
	last := route.LastSeg()
	found = false
	if len(route.Segs) > 1 || !first.IsVia() {
		if last.Layer < pinLayers {
			if info := r.g.NodeInfo(last.X2, last.Y2, last.Layer); info != nil && info.Saved != nil {
				route.End.Node = info.Saved
				found = true
			}
		}
	}
	if !found {
		if nr := r.findCoveringRoute(net, route, last, last.X2, last.Y2, route.Start.Route); nr != nil {
			route.End.Route = nr
			found = true
		}
	}

	if !startFound || !found {
		return fmt.Errorf("%w: net %q", ErrEndpoint, net.Name)
	}

	return nil
}

// findCoveringRoute returns the first route of net (other than route and
// exclude) with a segment covering (x, y) on a layer compatible with
// seg: the same layer, or the far layer of a via on either side.
func (r *Router) findCoveringRoute(net *layout.Net, route *layout.Route, seg *layout.Seg, x, y int, exclude *layout.Route) *layout.Route {
	for _, nr := range net.Routes {
		if nr == route || nr == exclude {
			continue
		}
		for i := range nr.Segs {
			s := &nr.Segs[i]
			match := seg.Layer == s.Layer ||
				(seg.IsVia() && seg.Layer+1 == s.Layer) ||
				(s.IsVia() && s.Layer+1 == seg.Layer)
			if !match {
				continue
			}
			sx, sy := s.X1, s.Y1
			for {
				if sx == x && sy == y {
					return nr
				}
				if sx == s.X2 && sy == s.Y2 {
					break
				}
				if sx < s.X2 {
					sx++
				} else if sx > s.X2 {
					sx--
				}
				if sy < s.Y2 {
					sy++
				} else if sy > s.Y2 {
					sy--
				}
			}
		}
	}

	return nil
}
