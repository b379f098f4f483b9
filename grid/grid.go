package grid

import (
	"github.com/katalvlaran/gridroute/layout"
)

// Pt is a single grid position.
type Pt struct {
	X, Y, Layer int
}

// Box is an inclusive bounding box in grid coordinates. The zero value
// is not useful; start from EmptyBox and Grow.
type Box struct {
	X1, Y1, X2, Y2 int
}

// EmptyBox returns a box that any Grow call will snap onto.
func EmptyBox() Box {
	return Box{X1: int(^uint(0) >> 1), Y1: int(^uint(0) >> 1), X2: -1, Y2: -1}
}

// Empty reports whether the box has never been grown.
func (b *Box) Empty() bool { return b.X2 < b.X1 || b.Y2 < b.Y1 }

// Grow extends the box to include (x, y).
func (b *Box) Grow(x, y int) {
	if x < b.X1 {
		b.X1 = x
	}
	if x > b.X2 {
		b.X2 = x
	}
	if y < b.Y1 {
		b.Y1 = y
	}
	if y > b.Y2 {
		b.Y2 = y
	}
}

// Expand widens the box by halo on every side and clips it to the grid
// dimensions of cfg.
func (b *Box) Expand(halo int, cfg *Config) {
	b.X1 -= halo
	b.Y1 -= halo
	b.X2 += halo
	b.Y2 += halo
	if b.X1 < 0 {
		b.X1 = 0
	}
	if b.Y1 < 0 {
		b.Y1 = 0
	}
	if b.X2 > cfg.Width-1 {
		b.X2 = cfg.Width - 1
	}
	if b.Y2 > cfg.Height-1 {
		b.Y2 = cfg.Height - 1
	}
}

// Contains reports whether (x, y) lies inside the box.
func (b *Box) Contains(x, y int) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// Grid owns the obstruction array, the search scratchpad, and the
// pin-layer node-info table. All three share the same flat row-major
// indexing: (layer*Height + y)*Width + x.
type Grid struct {
	cfg   *Config
	obs   []ObsCell
	pr    []PRCell
	nodes []*layout.NodeInfo // pin layers only
}

// New allocates a grid for the given configuration.
// Returns ErrBadDims or ErrPinLayers on nonsensical dimensions.
// Complexity: O(W×H×L) time and memory.
func New(cfg *Config) (*Grid, error) {
	if cfg == nil || cfg.Width <= 0 || cfg.Height <= 0 || cfg.Layers() <= 0 {
		return nil, ErrBadDims
	}
	if cfg.PinLayers < 0 || cfg.PinLayers > cfg.Layers() {
		return nil, ErrPinLayers
	}
	n := cfg.Width * cfg.Height * cfg.Layers()
	g := &Grid{
		cfg:   cfg,
		obs:   make([]ObsCell, n),
		pr:    make([]PRCell, n),
		nodes: make([]*layout.NodeInfo, cfg.Width*cfg.Height*cfg.PinLayers),
	}

	return g, nil
}

// Cfg returns the grid's configuration.
func (g *Grid) Cfg() *Config { return g.cfg }

// InBounds reports whether (x, y, layer) addresses a real cell.
func (g *Grid) InBounds(x, y, layer int) bool {
	return x >= 0 && x < g.cfg.Width &&
		y >= 0 && y < g.cfg.Height &&
		layer >= 0 && layer < g.cfg.Layers()
}

// index maps (x, y, layer) to the flat cell index.
func (g *Grid) index(x, y, layer int) int {
	return (layer*g.cfg.Height+y)*g.cfg.Width + x
}

// Obs returns the long-lived cell state at (x, y, layer).
func (g *Grid) Obs(x, y, layer int) *ObsCell {
	return &g.obs[g.index(x, y, layer)]
}

// PR returns the search scratchpad cell at (x, y, layer).
func (g *Grid) PR(x, y, layer int) *PRCell {
	return &g.pr[g.index(x, y, layer)]
}

// NodeInfo returns the pin metadata at (x, y, layer), or nil when the
// layer carries no pin geometry or no node claims the position.
func (g *Grid) NodeInfo(x, y, layer int) *layout.NodeInfo {
	if layer >= g.cfg.PinLayers {
		return nil
	}

	return g.nodes[g.index(x, y, layer)]
}

// SetNodeInfo installs pin metadata at a pin-layer position.
func (g *Grid) SetNodeInfo(x, y, layer int, info *layout.NodeInfo) {
	g.nodes[g.index(x, y, layer)] = info
}

// SeedPR re-derives the whole search scratchpad from the obstruction
// array, which logically resets the previous net's search: every flag is
// dropped and every payload reinterpreted.
//
// Free cells become routable frontier material (PRCost with cost
// MaxCost); occupied cells assert their net number; spacing shields and
// hard obstructions assert the matching sentinels.
// Complexity: O(W×H×L).
func (g *Grid) SeedPR() {
	for i := range g.pr {
		o := &g.obs[i]
		p := &g.pr[i]
		p.Pred = DirNone
		switch {
		case o.NoNet || o.Net == layout.MaxNetNum:
			p.Flags = 0
			p.SetNet(layout.MaxNetNum)
		case o.drcShield:
			p.Flags = 0
			p.SetNet(NetDRCShield)
		case o.Net == 0:
			p.Flags = PRCost
			p.SetCost(MaxCost)
		default:
			p.Flags = 0
			p.SetNet(o.Net)
		}
	}
}

// ForEach visits every cell position in a fixed layer-major order.
func (g *Grid) ForEach(fn func(x, y, layer int)) {
	for layer := 0; layer < g.cfg.Layers(); layer++ {
		for y := 0; y < g.cfg.Height; y++ {
			for x := 0; x < g.cfg.Width; x++ {
				fn(x, y, layer)
			}
		}
	}
}
