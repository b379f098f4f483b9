package router

// Costs holds the per-step cost knobs consulted by the evaluator. All
// values are in abstract cost units; only their ratios matter.
//
//   - Seg      — one grid step in the layer's preferred direction.
//   - Jog      — one grid step against the preferred direction.
//   - Via      — one layer change.
//   - Xver     — crossing over a node tap on an adjacent layer.
//   - Block    — crossing over a tap whose node has only one remaining
//     routable point (×10 when it is the sole extended access point).
//   - Offset   — per unit of stub length at pin layers.
//   - Conflict — landing on a cell owned by another net (stage ≥ 2 only).
type Costs struct {
	Seg      int
	Jog      int
	Via      int
	Xver     int
	Block    int
	Offset   int
	Conflict int
}

// DefaultCosts returns the stock cost table: straight wire is cheapest,
// jogs an order of magnitude dearer, vias in between, and conflicts
// dominate everything a clean route could cost.
func DefaultCosts() Costs {
	return Costs{
		Seg:      1,
		Jog:      10,
		Via:      5,
		Xver:     4,
		Block:    25,
		Offset:   50,
		Conflict: 50,
	}
}

// Options configures a Router.
type Options struct {
	// Costs is the evaluator's cost table.
	Costs Costs
	// StackedContacts is the maximum permitted run of consecutive via
	// layers (0 forbids stacking). Runs above the limit are repaired at
	// commit time.
	StackedContacts int
	// SearchHalo widens the marked bounding box on every side before the
	// wavefront is confined to it.
	SearchHalo int
}

// Option is a functional option for configuring a Router.
type Option func(*Options)

// DefaultOptions returns the stock configuration: default costs, a
// two-via stacking limit, and a five-track search halo.
func DefaultOptions() Options {
	return Options{
		Costs:           DefaultCosts(),
		StackedContacts: 2,
		SearchHalo:      5,
	}
}

// WithCosts replaces the whole cost table.
func WithCosts(c Costs) Option {
	return func(o *Options) { o.Costs = c }
}

// WithStackedContacts sets the maximum permitted consecutive via layers.
// Negative values panic: the limit is a count, not an offset.
func WithStackedContacts(n int) Option {
	return func(o *Options) {
		if n < 0 {
			panic("router: StackedContacts must be non-negative")
		}
		o.StackedContacts = n
	}
}

// WithSearchHalo sets the bounding-box expansion applied before the
// wavefront runs. Negative values panic.
func WithSearchHalo(n int) Option {
	return func(o *Options) {
		if n < 0 {
			panic("router: SearchHalo must be non-negative")
		}
		o.SearchHalo = n
	}
}
