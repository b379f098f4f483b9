// Package router implements the detailed maze router: cost-based
// wavefront expansion over the 3D routing grid, commit of found paths
// into wire/via segments, and the rip-up-and-reroute loop that resolves
// collisions between nets.
//
// What:
//
//   - Source/target preparation — paint the PR cells of one terminal as
//     the source set and every remaining terminal (or the whole power
//     bus) as the target set, including every already-committed route of
//     the same net.
//   - Wavefront search — multi-priority LIFO frontier expansion from the
//     source set until the cheapest target is proven, confined to an
//     expanded bounding box of the marked points.
//   - Cost evaluation — per-step costs for preferred/against-preferred
//     wiring, vias, tap crossovers, offsets, and stage-2 conflicts.
//   - Commit — predecessor-chain walkback, stacked-via elimination,
//     minimum-area repair, segment generation, and obstruction-array
//     writeback with DRC spacing shields.
//   - Collision handling — detection of overwritten nets, selective
//     rip-up with pin-crossover restoration, and dependent-route
//     propagation.
//
// Why:
//
//   - Detailed routing is the last mile of standard-cell layout: every
//     terminal of every net must reach its mates on a few metal layers
//     without violating spacing rules. Greedy per-net search with
//     iterated rip-up trades global optimality for predictable progress.
//
// Scheduling model:
//
//   - Single-threaded cooperative. One net is under route at a time; the
//     PR scratchpad is re-seeded between nets; the obstruction array is
//     mutated only by commit and rip-up. Given a fixed net order and
//     obstruction state, results are deterministic (ties break in
//     N, S, E, W, Up, Down order).
//
// Complexity:
//
//   - Search: O(B×L) cell relaxations per terminal, B = cells of the
//     expanded bounding box, L = layers; each relaxation is O(1).
//   - Commit and rip-up: O(route length).
//
// Errors (sentinel):
//
//   - ErrNoRoute        — the wavefront exhausted without reaching a target.
//   - ErrUnreachable    — no tap of a node could be marked at any stage.
//   - ErrTapUnowned     — a tap position is not occupied by any net.
//   - ErrDiscontinuity  — commit started from a cell with no valid cost.
//   - ErrStackRepair    — a stacked-via violation could not be repaired.
//   - ErrAreaRepair     — a minimum-area violation could not be repaired.
//   - ErrEndpoint       — a route endpoint resolves to neither node nor route.
//   - ErrUnroutable     — the net failed at every escalation stage.
//
// See the Stage type documentation for the escalation model.
package router
