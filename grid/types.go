// Package grid defines the per-cell state records, flag types, and
// sentinel errors of the grid substrate.
package grid

import (
	"errors"

	"github.com/katalvlaran/gridroute/layout"
)

// Sentinel errors for grid construction.
var (
	// ErrBadDims indicates non-positive width, height, or layer count.
	ErrBadDims = errors.New("grid: dimensions and layer count must be positive")
	// ErrPinLayers indicates a pin layer count outside [0, Layers].
	ErrPinLayers = errors.New("grid: pin layer count must be between 0 and the layer count")
)

// MaxCost is the "unreached" cost seeded into routable and target cells.
// Any real path cost is strictly below it.
const MaxCost = 1 << 30

// BlockDir is the directional blockage mask of an ObsCell: a set bit
// forbids stepping from this cell toward the named neighbor.
type BlockDir uint8

const (
	// BlockNorth forbids the +y step.
	BlockNorth BlockDir = 1 << iota
	// BlockSouth forbids the -y step.
	BlockSouth
	// BlockEast forbids the +x step.
	BlockEast
	// BlockWest forbids the -x step.
	BlockWest
	// BlockUp forbids the +layer step.
	BlockUp
	// BlockDown forbids the -layer step.
	BlockDown
)

// PinFlag carries the off-grid pin access metadata of an ObsCell. The
// direction and magnitude of a stub or offset live in the cell's
// NodeInfo record; these bits only mark that the metadata exists, so it
// can be preserved across commit and restored by rip-up.
type PinFlag uint8

const (
	// PinStub marks a position reached through a short partial-grid wire.
	PinStub PinFlag = 1 << iota
	// PinOffset marks a position whose landing via is displaced off-grid.
	PinOffset
)

// ObsCell is the long-lived routing state of one grid position. It is
// mutated only by commit and rip-up.
type ObsCell struct {
	// Net is the occupying net number; 0 means free and
	// layout.MaxNetNum means permanently obstructed or disabled.
	Net int
	// Routed is set when a committed route occupies this cell.
	Routed bool
	// NoNet marks a hard obstruction that belongs to no net.
	NoNet bool
	// Blocked forbids stepping toward selected neighbors.
	Blocked BlockDir
	// Pin preserves stub/offset pin metadata across commit and rip-up.
	Pin PinFlag

	drcShield bool
	drcRef    uint8 // extra spacing reservations beyond the first
}

// Free reports whether the cell is unoccupied and unobstructed (spacing
// shields included).
func (c *ObsCell) Free() bool {
	return c.Net == 0 && !c.NoNet && !c.drcShield
}

// DRCShielded reports whether the cell is blocked purely to keep spacing
// from a committed neighbor.
func (c *ObsCell) DRCShielded() bool { return c.drcShield }

// AddDRCShield reserves the cell for spacing. Several nets may
// legitimately depend on the same reservation, so repeated calls bump a
// reference count. Occupied cells are left untouched: the shield only
// ever replaces emptiness.
func (c *ObsCell) AddDRCShield() {
	switch {
	case c.drcShield:
		if c.drcRef < 0xf {
			c.drcRef++
		}
	case c.Net == 0 && !c.NoNet:
		c.drcShield = true
		c.drcRef = 0
	}
}

// ClearDRCShield releases one spacing reservation; the shield itself is
// removed only when the last reservation goes.
func (c *ObsCell) ClearDRCShield() {
	if c.drcRef > 0 {
		c.drcRef--

		return
	}
	c.drcShield = false
}

// Occupy claims the cell for a committed route: the net number is
// asserted, blockage and pin metadata survive, and any spacing shield
// dissolves under the new owner.
func (c *ObsCell) Occupy(netnum int) {
	c.Net = netnum
	c.Routed = true
	c.NoNet = false
	c.drcShield = false
	c.drcRef = 0
}

// ClearToBlocked resets the cell to free space, keeping only the
// directional blockage mask. Rip-up uses it for every covered position
// that is not a node tap.
func (c *ObsCell) ClearToBlocked() {
	blocked := c.Blocked
	*c = ObsCell{Blocked: blocked}
}

// ResetToObstruction restores the cell to the pre-routing pin-obstruction
// state NO_NET|pin. Rip-up uses it for positions that were routed over
// obstructions to reach off-grid taps.
func (c *ObsCell) ResetToObstruction(pin PinFlag) {
	*c = ObsCell{NoNet: true, Pin: pin}
}

// PRFlag is the transient flag set of a PRCell.
type PRFlag uint8

const (
	// PRSource marks a cell belonging to the current source set.
	PRSource PRFlag = 1 << iota
	// PRTarget marks a cell belonging to the current target set.
	PRTarget
	// PRCost marks the payload as a valid path cost.
	PRCost
	// PRProcessed marks a cell already popped and expanded.
	PRProcessed
	// PROnStack marks a cell currently queued on the frontier.
	PROnStack
	// PRConflict marks a cost-penalty route through another net's cell.
	PRConflict
)

// Dir is a predecessor direction: the neighbor a cell was reached from.
type Dir uint8

const (
	// DirNone means no predecessor (source cells, unreached cells).
	DirNone Dir = iota
	// North: predecessor is at y+1.
	North
	// South: predecessor is at y-1.
	South
	// East: predecessor is at x+1.
	East
	// West: predecessor is at x-1.
	West
	// Up: predecessor is at layer+1.
	Up
	// Down: predecessor is at layer-1.
	Down
)

// String returns the single-letter compass name of the direction.
func (d Dir) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	case Up:
		return "U"
	case Down:
		return "D"
	default:
		return "-"
	}
}

// PRCell is the transient per-search state of one grid position. The
// payload is discriminated by the flags: while PRCost (or PRSource — a
// source carries cost 0 without the cost flag) is set the payload is a
// path cost, otherwise it is the net number asserted at the cell.
type PRCell struct {
	Flags PRFlag
	Pred  Dir
	data  int32
}

// Has reports whether every flag in mask is set.
func (c *PRCell) Has(mask PRFlag) bool { return c.Flags&mask == mask }

// HasAny reports whether any flag in mask is set.
func (c *PRCell) HasAny(mask PRFlag) bool { return c.Flags&mask != 0 }

// Cost returns the payload as a path cost. Valid only while the cell is
// part of the search (PRCost or PRSource set).
func (c *PRCell) Cost() int { return int(c.data) }

// SetCost stores a path cost payload.
func (c *PRCell) SetCost(cost int) { c.data = int32(cost) }

// Net returns the payload as a net number. Valid only while the cell is
// not part of the search.
func (c *PRCell) Net() int { return int(c.data) }

// SetNet stores a net-number payload.
func (c *PRCell) SetNet(netnum int) { c.data = int32(netnum) }

// NetDRCShield is the net-payload sentinel for cells that are blocked
// purely by a spacing reservation; it sorts above layout.MaxNetNum so the
// ordinary "occupied by a routable net" comparisons exclude it.
const NetDRCShield = layout.MaxNetNum + 1
