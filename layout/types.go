// Package layout defines core types and reserved constants for the
// netlist model of the gridroute subpackages.
package layout

// Reserved net numbers. Net 0 means "free"; the three low numbers are
// power-bus sentinels whose occupancy spans many non-contiguous cells and
// is treated as a single large routing target. MaxNetNum marks a cell as
// permanently obstructed or deliberately disabled.
const (
	// GndNet is the reserved ground bus net number.
	GndNet = 1
	// VddNet is the reserved supply bus net number.
	VddNet = 2
	// AntennaNet is the reserved antenna-diode bus net number.
	AntennaNet = 3
	// MinNetNum is the first net number available to ordinary signal nets.
	MinNetNum = 4
	// MaxNetNum marks a permanently obstructed or disabled position.
	MaxNetNum = 1 << 30
)

// IsPowerBus reports whether netnum is one of the reserved bus nets that
// are routed against their full grid occupancy rather than discrete taps.
func IsPowerBus(netnum int) bool {
	return netnum == GndNet || netnum == VddNet || netnum == AntennaNet
}

// SegType classifies a route segment and carries the off-grid endpoint
// annotations applied when a route terminates on an offset tap.
type SegType uint8

const (
	// SegWire is a single-layer run with constant x or constant y.
	SegWire SegType = 1 << iota
	// SegVia connects Layer to Layer+1 at a single (x, y).
	SegVia
	// SegOffsetStart flags that the (X1, Y1) end lands on an offset tap
	// and must be displaced off-grid at output time.
	SegOffsetStart
	// SegOffsetEnd flags the (X2, Y2) end the same way.
	SegOffsetEnd
)

// Seg is one piece of a committed route. A wire keeps Layer constant; a
// via has X1==X2, Y1==Y2 and spans Layer to Layer+1. Coordinates are grid
// track indices, not physical units.
type Seg struct {
	Type   SegType
	Layer  int
	X1, Y1 int
	X2, Y2 int
}

// IsVia reports whether the segment is a layer change.
func (s *Seg) IsVia() bool { return s.Type&SegVia != 0 }

// RouteFlag carries transient per-route state used by the marking and
// rip-up passes.
type RouteFlag uint8

const (
	// RouteVisited guards the route-graph walk during source marking.
	RouteVisited RouteFlag = 1 << iota
	// RouteRip schedules the route for selective tear-down.
	RouteRip
)

// Binding is one endpoint of a route: exactly one of Node or Route is
// non-nil once the router's routeSetConnections has resolved it. A nil/nil binding
// means the endpoint could not be resolved (non-fatal; it only degrades
// future recursive source marking).
type Binding struct {
	Node  *Node
	Route *Route
}

// IsNode reports whether the endpoint binds to a terminal node.
func (b Binding) IsNode() bool { return b.Node != nil }

// Route is a committed (or in-progress) path of one net. Segments are
// ordered; consecutive segments share an endpoint. The route exclusively
// owns its segments.
type Route struct {
	Netnum int
	Flags  RouteFlag
	Segs   []Seg
	Start  Binding
	End    Binding
}

// FirstSeg returns the first segment, or nil for an empty route.
func (r *Route) FirstSeg() *Seg {
	if len(r.Segs) == 0 {
		return nil
	}

	return &r.Segs[0]
}

// LastSeg returns the last segment, or nil for an empty route.
func (r *Route) LastSeg() *Seg {
	if len(r.Segs) == 0 {
		return nil
	}

	return &r.Segs[len(r.Segs)-1]
}

// Tap is a grid coordinate at which a terminal can be physically
// contacted. Stub and offset metadata for the position lives in the
// NodeInfo record of the cell, not on the tap itself.
type Tap struct {
	X, Y, Layer int
}

// Node is one terminal of a net. Taps are the directly usable contact
// points; Extend holds the halo points in the immediate surround, usable
// only when the cell's NodeInfo confirms ownership by this node.
type Node struct {
	// Num is the per-net node number (dense, starting at 0).
	Num int
	// Netnum is the owning net's number.
	Netnum int
	Taps   []Tap
	Extend []Tap
}

// SingleTap reports whether the node has exactly one direct tap, in which
// case routing over that tap would block the node entirely.
func (n *Node) SingleTap() bool { return len(n.Taps) == 1 }

// NodeFlag describes how a pin-layer cell reaches its off-grid pin.
type NodeFlag uint8

const (
	// StubNS: the tap needs a north/south stub wire to reach the pin.
	StubNS NodeFlag = 1 << iota
	// StubEW: the tap needs an east/west stub wire.
	StubEW
	// OffsetNS: the landing via must be displaced north/south.
	OffsetNS
	// OffsetEW: the landing via must be displaced east/west.
	OffsetEW
)

// StubMask selects the stub bits; OffsetMask the offset bits.
const (
	StubMask   = StubNS | StubEW
	OffsetMask = OffsetNS | OffsetEW
)

// NodeInfo is the pin metadata attached to a pin-layer grid cell. It is a
// weak back-reference: ownership of nodes stays with the net.
//
// Node is the live reference consulted by the cost evaluator for
// crossover accounting; it is cleared once the owning net has been routed
// and reattached by rip-up. Saved always keeps the original owner so the
// relation survives the clearing.
type NodeInfo struct {
	Node   *Node
	Saved  *Node
	Flags  NodeFlag
	Stub   float64 // stub length in physical units; sign encodes direction
	Offset float64 // via offset in physical units; sign encodes direction
}

// Net is one connection of the netlist. The net exclusively owns its
// routes; NoRipup lists nets this net must never tear down while routing.
type Net struct {
	Netnum  int
	Name    string
	Nodes   []*Node
	Routes  []*Route
	NoRipup []*Net
}

// NumNodes returns the terminal count.
func (n *Net) NumNodes() int { return len(n.Nodes) }

// ClearVisited removes the RouteVisited mark from every route, preparing
// a fresh route-graph walk.
func (n *Net) ClearVisited() {
	for _, rt := range n.Routes {
		rt.Flags &^= RouteVisited
	}
}

// ClearRip removes the RouteRip mark from every route.
func (n *Net) ClearRip() {
	for _, rt := range n.Routes {
		rt.Flags &^= RouteRip
	}
}

// InNoRipup reports whether netnum identifies a net this net is
// forbidden to rip up.
func (n *Net) InNoRipup(netnum int) bool {
	for _, other := range n.NoRipup {
		if other.Netnum == netnum {
			return true
		}
	}

	return false
}
