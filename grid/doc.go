// Package grid implements the routing-grid substrate: two co-located 3D
// arrays indexed by (x, y, layer) plus the per-layer technology rules the
// router consults.
//
// What:
//
//   - ObsCell — long-lived per-cell state: occupying net number, routed /
//     no-net flags, directional blockage, pin stub/offset metadata, and a
//     reference-counted DRC spacing shield.
//   - PRCell — transient per-search state: flags, predecessor direction,
//     and a discriminated payload that is a path cost while the cell is
//     part of the search and a net number otherwise.
//   - Grid — owns both arrays plus the pin-layer NodeInfo table, with
//     O(1) accessors and bounds helpers.
//   - Config / LayerRule — grid dimensions and per-layer technology data
//     (preferred direction, pitch, path width, spacing-block mask, via
//     dimensions, minimum metal area).
//
// Why:
//
//   - The search, commit, and rip-up stages all address the same cells;
//     keeping Obs and PR co-located behind one Grid keeps every stage on
//     the same indexing scheme.
//   - Routers traditionally pack all per-cell metadata into one machine
//     word; here each field is explicit, and any future packing can hide
//     behind the accessors without touching callers.
//
// Complexity:
//
//   - All cell accessors: O(1), no allocation.
//   - SeedPR: O(W×H×L).
//
// Errors:
//
//   - ErrBadDims: non-positive grid dimensions or layer count.
//   - ErrPinLayers: pin layer count outside [0, Layers].
//
// See package router for the maze search that animates this state.
package grid
