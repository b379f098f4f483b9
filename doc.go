// Package gridroute is a detailed grid-based maze router for
// standard-cell integrated-circuit layouts.
//
// 🚀 What is gridroute?
//
//	A routing core that takes a 3D routing grid (X × Y tracks over a few
//	metal layers), pin locations, obstructions, and a netlist, and
//	produces per-net geometric routes of wires and vias:
//
//	  • Wavefront search: cost-based frontier expansion over the grid
//	  • Commit & repair: stacked-via elimination, minimum-area fixes
//	  • Rip-up & reroute: collision detection and selective tear-down
//
// ✨ Why choose gridroute?
//
//   - Deterministic          — fixed tie-breaking, reproducible results
//   - Design-rule aware      — spacing shields, via stacks, metal area
//   - Escalation built in    — three stages from polite to desperate
//   - Pure Go                — no cgo, one test-only dependency
//
// Under the hood, everything is organized under three subpackages:
//
//	layout/ — nets, nodes, taps, routes & segments (the netlist model)
//	grid/   — obstruction array, search scratchpad & layer rules
//	router/ — marking, cost evaluation, search, commit & rip-up
//
// Quick ASCII example:
//
//	    S──────┐        S = source tap, T = target tap
//	           │ via    ─ = metal 1 (horizontal)
//	           T        │ = metal 2 (vertical)
//
//	a two-pin net routed with one jog through the second layer.
//
// Dive into the router package documentation for the staging model and
// the full search/commit/rip-up contract.
//
//	go get github.com/katalvlaran/gridroute
package gridroute
