// Package layout defines the netlist-side data model of the router:
// nets, their terminal nodes, the grid tap points at which terminals can
// be contacted, and the routes (ordered segment lists) produced by the
// maze search.
//
// What:
//
//   - Net — a named connection with two or more terminal Nodes and the
//     Routes committed for it so far.
//   - Node — one terminal; carries its direct Taps plus Extend taps (the
//     halo points usable when no direct tap is routable).
//   - NodeInfo — per-grid-cell pin metadata (stub length, offset, live and
//     saved node back-references) attached to pin-layer cells.
//   - Route — an ordered list of Segs with two endpoint Bindings; a
//     Binding resolves to either a Node or another Route of the same net.
//   - Seg — one wire (single layer) or via (two adjacent layers) piece.
//
// Why:
//
//   - Nets own routes, routes own segments; everything else is a weak
//     back-reference resolved by grid lookup. Keeping ownership in plain
//     slices makes rip-up a slice rebuild instead of pointer surgery.
//
// Reserved net numbers:
//
//   - 0 free, GndNet ground, VddNet supply, AntennaNet antenna,
//     MaxNetNum permanently obstructed/disabled.
//
// See package grid for the co-located per-cell routing state and package
// router for the search itself.
package layout
