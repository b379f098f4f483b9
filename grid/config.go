package grid

// BlockNeed is the per-layer spacing-reservation mask: which orthogonal
// neighbors of a committed wire or via must be shielded because the metal
// is too wide for single-track spacing.
type BlockNeed uint8

const (
	// RouteBlockX shields the x-neighbors of a wire on this layer.
	RouteBlockX BlockNeed = 1 << iota
	// RouteBlockY shields the y-neighbors of a wire on this layer.
	RouteBlockY
	// ViaBlockX shields the x-neighbors of a via landing on this layer.
	ViaBlockX
	// ViaBlockY shields the y-neighbors of a via landing on this layer.
	ViaBlockY
)

// LayerRule is the technology data of one metal layer.
type LayerRule struct {
	// Vertical is true when the layer's preferred routing direction is
	// vertical; horizontal steps on a vertical layer pay JogCost.
	Vertical bool
	// PitchX, PitchY are the track pitches in physical units.
	PitchX, PitchY float64
	// PathWidth is the default wire width in physical units.
	PathWidth float64
	// NeedBlock selects the neighbors that must be shielded when a wire
	// or via is committed on this layer.
	NeedBlock BlockNeed
	// ViaWidthX, ViaWidthY are the dimensions of the via whose base is
	// this layer.
	ViaWidthX, ViaWidthY float64
	// MinArea is the minimum metal area rule of the layer; 0 disables
	// the check.
	MinArea float64
}

// Config holds the grid dimensions and the per-layer rules. It stands in
// for the technology database: the router consumes it only through the
// lookup methods below, so a full LEF-backed implementation can replace
// it without touching the core.
type Config struct {
	// Width, Height are the routing channel counts in x and y.
	Width, Height int
	// PinLayers is the number of layers carrying pin geometry.
	PinLayers int
	// LayerRules has one entry per metal layer, bottom-up.
	LayerRules []LayerRule
}

// Layers returns the metal layer count.
func (c *Config) Layers() int { return len(c.LayerRules) }

// Rule returns the rule record of the given layer.
func (c *Config) Rule(layer int) *LayerRule { return &c.LayerRules[layer] }

// Vert returns 1 when the layer prefers vertical routing, 0 otherwise.
func (c *Config) Vert(layer int) int {
	if c.LayerRules[layer].Vertical {
		return 1
	}

	return 0
}

// NeedBlock returns the spacing-reservation mask of the layer.
func (c *Config) NeedBlock(layer int) BlockNeed { return c.LayerRules[layer].NeedBlock }

// ViaWidth returns the via dimension for the via based at "base" as seen
// from "layer", along x (orient 0) or y (orient 1). base is clamped to
// the valid range, guarding the top layer whose via reaches down. The
// table keeps one via size per base layer, so layer itself is not
// consulted.
func (c *Config) ViaWidth(base, _, orient int) float64 {
	if base < 0 {
		base = 0
	}
	if base > len(c.LayerRules)-1 {
		base = len(c.LayerRules) - 1
	}
	if orient == 0 {
		return c.LayerRules[base].ViaWidthX
	}

	return c.LayerRules[base].ViaWidthY
}

// RouteMinArea returns the minimum metal area rule of the layer.
func (c *Config) RouteMinArea(layer int) float64 { return c.LayerRules[layer].MinArea }

// RouteOrientation returns 1 for a vertical-preferred layer and 0 for a
// horizontal-preferred one.
func (c *Config) RouteOrientation(layer int) int { return c.Vert(layer) }
