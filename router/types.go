// Package router defines the stages, sentinel errors, and small value
// types shared by the routing passes.
package router

import (
	"errors"

	"github.com/katalvlaran/gridroute/grid"
)

// Sentinel errors returned by the routing passes.
var (
	// ErrNoRoute indicates the wavefront exhausted the frontier without
	// reaching any target cell.
	ErrNoRoute = errors.New("router: no route found between source and target sets")

	// ErrUnreachable indicates that no tap of a node could be marked even
	// at the desperation stage; the net can never be routed.
	ErrUnreachable = errors.New("router: node has no routable tap at any stage")

	// ErrTapUnowned indicates a tap position whose PR cell is routable
	// free space instead of carrying a net: the obstruction map and the
	// netlist disagree.
	ErrTapUnowned = errors.New("router: tap position not owned by any net")

	// ErrDiscontinuity indicates commit was handed an endpoint that the
	// search never costed; the predecessor chain cannot be walked.
	ErrDiscontinuity = errors.New("router: route endpoint carries no valid cost")

	// ErrStackRepair indicates a stacked-via violation that no lateral
	// jog could repair at the current stage.
	ErrStackRepair = errors.New("router: failed to remove stacked via")

	// ErrAreaRepair indicates a minimum-area violation that no lateral
	// extension could repair at the current stage.
	ErrAreaRepair = errors.New("router: failed to reserve minimum metal area")

	// ErrEndpoint indicates a route endpoint that resolves to neither a
	// node nor another route of the net. Non-fatal: only future recursive
	// source marking is degraded.
	ErrEndpoint = errors.New("router: route endpoint resolves to neither node nor route")

	// ErrUnroutable indicates the net failed at the last escalation
	// stage and was added to the failed list.
	ErrUnroutable = errors.New("router: net is unroutable")
)

// Stage is the escalation level controlling how aggressively the router
// invades other nets' territory.
//
//   - StageRoute: only free cells and cells of the net's own number are
//     acceptable.
//   - StageRipup: cells occupied by other ordinary nets become acceptable
//     at a large cost penalty (PRConflict); the colliders are ripped up
//     after commit.
//   - StageDesperate: even hard obstructions are acceptable; the
//     stub/offset bookkeeping shifts the final via off-grid at output.
//
// Marking auto-escalates StageRoute→StageRipup→StageDesperate (with a
// shortcut straight to StageDesperate when no other net owns any tap),
// and fails with ErrUnreachable beyond StageDesperate.
type Stage uint8

const (
	// StageRoute is the ordinary first-pass stage.
	StageRoute Stage = 0
	// StageRipup is the rip-up-and-reroute stage.
	StageRipup Stage = 2
	// StageDesperate permits routing over hard obstructions.
	StageDesperate Stage = 3
)

// ripup reports whether the stage tolerates collisions with other nets.
func (s Stage) ripup() bool { return s >= StageRipup }

// gridPt is a grid position with the accumulated cost of reaching it,
// carried through the search and into commit.
type gridPt struct {
	X, Y, Layer int
	Cost        int
}

// pt returns the bare grid position.
func (p gridPt) pt() grid.Pt { return grid.Pt{X: p.X, Y: p.Y, Layer: p.Layer} }

// MarkResult reports the outcome of painting one node's taps.
type MarkResult int

const (
	// Marked: at least one tap was painted with the requested flag.
	Marked MarkResult = iota
	// AlreadyConnected: a tap already carried the opposite-set flag, so
	// the node is connected to the set being built.
	AlreadyConnected
)
