package router

import (
	"github.com/katalvlaran/gridroute/grid"
	"github.com/katalvlaran/gridroute/layout"
)

// FindColliding scans every cell covered by the committed routes of net
// and collects the nets whose obstruction records disagree: those are
// the nets the rip-up stage routed through. Spacing shields require an
// extra look at the neighbors that could have demanded them. Reserved
// power nets never collide.
//
// For each collider, the specific route(s) containing a collision point
// are flagged for rip-up. The second return value counts the routes
// flagged.
func (r *Router) FindColliding(net *layout.Net) ([]*layout.Net, int) {
	cfg := r.g.Cfg()
	var colliding []*layout.Net
	ripnum := 0

	consider := func(nx, ny, lay, x, y int) {
		obs := r.g.Obs(nx, ny, lay)
		if obs.NoNet {
			return
		}
		if n := obs.Net; n != 0 && n != net.Netnum && n < layout.MaxNetNum &&
			!layout.IsPowerBus(n) {
			ripnum += r.addColliding(&colliding, n, x, y, lay)
		}
	}

	for _, rt := range net.Routes {
		for i := range rt.Segs {
			seg := &rt.Segs[i]
			// Via tops are skipped: those positions are covered by
			// segments on both layers or are terminal positions that by
			// definition cannot belong to a different net.
			seg.Cells(func(x, y, lay int) bool {
				if lay != seg.Layer {
					return true
				}
				obs := r.g.Obs(x, y, lay)
				if obs.DRCShielded() {
					// The shield does not say which net demanded it;
					// inspect the neighbors in the blockage direction.
					need := cfg.NeedBlock(lay)
					if need&(grid.RouteBlockX|grid.ViaBlockX) != 0 {
						if x < cfg.Width-1 {
							consider(x+1, y, lay, x, y)
						}
						if x > 0 {
							consider(x-1, y, lay, x, y)
						}
					}
					if need&(grid.RouteBlockY|grid.ViaBlockY) != 0 {
						if y < cfg.Height-1 {
							consider(x, y+1, lay, x, y)
						}
						if y > 0 {
							consider(x, y-1, lay, x, y)
						}
					}
				} else if n := obs.Net; n != 0 && n != net.Netnum &&
					n < layout.MaxNetNum && !layout.IsPowerBus(n) {
					ripnum += r.addColliding(&colliding, n, x, y, lay)
				}

				return true
			})
		}
	}

	return colliding, ripnum
}

// addColliding appends the net identified by netnum to the collision
// list (once), and flags every route of that net whose segments contain
// the collision point (x, y, lay). Returns the number of routes flagged.
func (r *Router) addColliding(list *[]*layout.Net, netnum, x, y, lay int) int {
	for _, known := range *list {
		if known.Netnum == netnum {
			return 0
		}
	}
	fnet := r.netByNum(netnum)
	if fnet == nil {
		return 0
	}
	*list = append(*list, fnet)

	if len(fnet.Routes) == 0 {
		return 0
	}
	// A single route needs no search.
	if len(fnet.Routes) == 1 {
		fnet.Routes[0].Flags |= layout.RouteRip

		return 1
	}

	ripped := 0
	for _, rt := range fnet.Routes {
		for i := range rt.Segs {
			seg := &rt.Segs[i]
			if seg.Layer != lay && !(seg.IsVia() && seg.Layer+1 == lay) {
				continue
			}
			if segCoversXY(seg, x, y) {
				rt.Flags |= layout.RouteRip
				ripped++

				break
			}
		}
	}

	return ripped
}

// segCoversXY reports whether the segment passes through (x, y),
// ignoring layers.
func segCoversXY(seg *layout.Seg, x, y int) bool {
	sx, sy := seg.X1, seg.Y1
	for {
		if sx == x && sy == y {
			return true
		}
		if sx == seg.X2 && sy == seg.Y2 {
			return false
		}
		if sx < seg.X2 {
			sx++
		} else if sx > seg.X2 {
			sx--
		}
		if sy < seg.Y2 {
			sy++
		} else if sy > seg.Y2 {
			sy--
		}
	}
}

// ripupDependent propagates rip-up flags through the route graph: a
// route whose source endpoint lands on a ripped route must be ripped
// too. Iterates to fixpoint.
func (r *Router) ripupDependent(net *layout.Net) {
	rerun := true
	for rerun {
		rerun = false
		for _, rt := range net.Routes {
			if rt.Flags&layout.RouteRip != 0 {
				continue
			}
			if !rt.Start.IsNode() {
				if dep := rt.Start.Route; dep != nil && dep.Flags&layout.RouteRip != 0 {
					rt.Flags |= layout.RouteRip
					rerun = true
				}
			}
			if !rt.End.IsNode() {
				if dep := rt.End.Route; dep != nil && dep.Flags&layout.RouteRip != 0 {
					rt.Flags |= layout.RouteRip
					rerun = true
				}
			}
		}
	}
}

// analyzeRouteOverwrite diagnoses a mismatch found while ripping up: the
// obstruction array claims netnum at (x, y, lay) where the current net's
// route runs. An orphaned position (no same-net neighbor) is simply
// overwritten by the caller; a position connected to a live route of the
// other net rips that net out as collateral damage. Returns true when a
// net was ripped.
func (r *Router) analyzeRouteOverwrite(x, y, lay, netnum int) bool {
	cfg := r.g.Cfg()

	valid := false
	checkNeighbor := func(nx, ny, nl int) {
		if !valid && r.g.InBounds(nx, ny, nl) && r.g.Obs(nx, ny, nl).Net == netnum {
			valid = true
		}
	}
	checkNeighbor(x+1, y, lay)
	checkNeighbor(x-1, y, lay)
	checkNeighbor(x, y+1, lay)
	checkNeighbor(x, y-1, lay)
	if lay < cfg.Layers()-1 {
		checkNeighbor(x, y, lay+1)
	}
	if lay > 0 {
		checkNeighbor(x, y, lay-1)
	}
	if !valid {
		return false // orphaned; just overwrite
	}

	fnet := r.netByNum(netnum)
	if fnet == nil {
		return false
	}
	for _, rt := range fnet.Routes {
		for i := range rt.Segs {
			if rt.Segs[i].Covers(x, y, lay) {
				// The position belongs to a valid route of the other
				// net; take evasive action and rip it out now.
				r.RipupNet(fnet, true, false, false)

				return true
			}
		}
	}

	return false
}

// removeRoutes drops route records from the net: all of them, or only
// the rip-flagged ones.
func removeRoutes(net *layout.Net, flagged bool) {
	if !flagged {
		net.Routes = nil

		return
	}
	kept := net.Routes[:0]
	for _, rt := range net.Routes {
		if rt.Flags&layout.RouteRip == 0 {
			kept = append(kept, rt)
		}
	}
	net.Routes = kept
}

// RipupNet tears down the net's routes (all, or only the rip-flagged
// ones with their dependents) and restores the obstruction array:
// covered cells return to free space or to their original pin
// obstruction, node taps lose their routed mark, and the spacing shields
// commit added on the sides are released.
//
// With restore, the live node back-references of the pin cells are
// reattached so crossover costs apply again. With retain, the route
// records stay on the net for a later writeback or retry; otherwise the
// flagged case ends with a writeback of the surviving routes, in case
// the ripped ones had overwritten them.
//
// Returns false for pseudo-nets without nodes, whose routes are fixed
// obstructions that must not be removed.
func (r *Router) RipupNet(net *layout.Net, restore, flagged, retain bool) bool {
	if flagged {
		r.ripupDependent(net)
	}

	thisnet := net.Netnum
	pinLayers := r.g.Cfg().PinLayers
	// Cells already reset by this pass. A cell shared by two segments (a
	// via top and the wire leaving it) got shields from both writebacks,
	// so a repeat visit releases its neighbors once more.
	reset := make(map[grid.Pt]bool)

	for _, rt := range net.Routes {
		if flagged && rt.Flags&layout.RouteRip == 0 {
			continue
		}
		for i := range rt.Segs {
			rt.Segs[i].Cells(func(x, y, lay int) bool {
				pt := grid.Pt{X: x, Y: y, Layer: lay}
				if reset[pt] {
					r.clearRouteShields(x, y, lay)

					return true
				}
				obs := r.g.Obs(x, y, lay)
				oldnet := obs.Net
				if oldnet <= 0 || oldnet >= layout.MaxNetNum {
					return true
				}
				if oldnet != thisnet {
					// Should not happen; rip the occupant if it is a
					// live route, then overwrite.
					r.analyzeRouteOverwrite(x, y, lay, oldnet)
				}

				// Points that are not node taps return to free space;
				// points routed over obstructions to reach off-grid taps
				// return to obstructions.
				var info *layout.NodeInfo
				if lay < pinLayers {
					info = r.g.NodeInfo(x, y, lay)
				}
				if info == nil || info.Saved == nil {
					if obs.Pin == 0 {
						obs.ClearToBlocked()
					} else {
						obs.ResetToObstruction(obs.Pin)
					}
				} else {
					obs.Routed = false
				}

				reset[pt] = true
				r.clearRouteShields(x, y, lay)

				return true
			})
		}
	}

	// Reattach the live node references so crossover costs are again
	// applied to routes over these taps.
	if restore {
		if flagged {
			for _, rt := range net.Routes {
				if rt.Flags&layout.RouteRip == 0 {
					continue
				}
				for i := range rt.Segs {
					seg := &rt.Segs[i]
					if seg.Layer >= pinLayers {
						continue
					}
					if info := r.g.NodeInfo(seg.X1, seg.Y1, seg.Layer); info != nil && info.Saved != nil {
						info.Node = info.Saved
					}
				}
			}
		} else {
			for _, node := range net.Nodes {
				for _, tap := range node.Taps {
					if tap.Layer >= pinLayers {
						continue
					}
					if info := r.g.NodeInfo(tap.X, tap.Y, tap.Layer); info != nil {
						info.Node = info.Saved
					}
				}
			}
		}
	}

	if !retain {
		removeRoutes(net, flagged)
		// Make sure the surviving routes have not been overwritten by
		// the ones just removed.
		if flagged {
			r.WritebackAllRoutes(net)
		}
	}

	return net.NumNodes() != 0
}

// clearRouteShields releases the spacing shields commit added beside a
// covered cell, honoring the shield reference counts.
func (r *Router) clearRouteShields(x, y, lay int) {
	cfg := r.g.Cfg()
	need := cfg.NeedBlock(lay)

	if need&(grid.RouteBlockX|grid.ViaBlockX) != 0 {
		if x > 0 && r.g.Obs(x-1, y, lay).DRCShielded() {
			r.g.Obs(x-1, y, lay).ClearDRCShield()
		}
		if x < cfg.Width-1 && r.g.Obs(x+1, y, lay).DRCShielded() {
			r.g.Obs(x+1, y, lay).ClearDRCShield()
		}
	}
	if need&(grid.RouteBlockY|grid.ViaBlockY) != 0 {
		if y > 0 && r.g.Obs(x, y-1, lay).DRCShielded() {
			r.g.Obs(x, y-1, lay).ClearDRCShield()
		}
		if y < cfg.Height-1 && r.g.Obs(x, y+1, lay).DRCShielded() {
			r.g.Obs(x, y+1, lay).ClearDRCShield()
		}
	}
}
