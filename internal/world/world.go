package world

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldLength reports a present field whose length differs from the cell count.
	ErrFieldLength = errors.New("world: field length does not match cell count")
	// ErrMissingField reports an enabled feature whose backing field was never allocated.
	ErrMissingField = errors.New("world: enabled feature is missing a field")
)

// MaxCells bounds the cell count of any world, 2048x2048 on a lattice.
const MaxCells = 1 << 22

// MaxResources is the fixed size of every per-cell resource inventory.
const MaxResources = 8

// NoCulture marks a cell without a resident species.
const NoCulture int32 = -1

// Inventory holds the per-cell resource stock indexed by resource id.
type Inventory [MaxResources]float32

// World stores every per-cell field as a parallel array. A nil field means the
// feature that owns it is disabled for this world.
type World struct {
	// W and H describe the lattice layout. W*H == N marks a lattice world;
	// W == 0 marks a free graph.
	W, H int
	N    int

	SeaLevel float32

	features Feature

	X, Y []float32

	Height       []float32
	Temperature  []float32
	Moisture     []float32
	Water        []float32
	Flux         []float32
	WindDir      []float32
	WindStrength []float32

	Population []int32
	Culture    []int32
	Starving   []bool
	Resources  []Inventory
	Tier       []Tier
	Building   []Building

	Faction        []int32
	Infrastructure []float32
	Wealth         []float32
	Defense        []float32

	Chaos []float32
}

// New allocates a free-graph world with n cells and positions only.
func New(n int) *World {
	if n < 0 {
		n = 0
	}
	return &World{
		N: n,
		X: make([]float32, n),
		Y: make([]float32, n),
	}
}

// NewLattice allocates a w*h lattice world and fills normalized cell centres.
func NewLattice(w, h int) *World {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	world := New(w * h)
	world.W = w
	world.H = h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			world.X[idx] = (float32(x) + 0.5) / float32(w)
			world.Y[idx] = (float32(y) + 0.5) / float32(h)
		}
	}
	return world
}

// IsLattice reports whether cells are laid out row-major on a W x H grid.
func (w *World) IsLattice() bool {
	return w.W > 0 && w.H > 0 && w.W*w.H == w.N
}

// Index returns the linear index for lattice coordinates (x, y).
func (w *World) Index(x, y int) int { return y*w.W + x }

// Coords returns the lattice coordinates of idx.
func (w *World) Coords(idx int) (int, int) {
	if w.W == 0 {
		return idx, 0
	}
	return idx % w.W, idx / w.W
}

// Features reports the enabled feature set.
func (w *World) Features() Feature { return w.features }

// Has reports whether every feature in f is enabled.
func (w *World) Has(f Feature) bool { return w.features&f == f }

// Enable allocates and zero-initializes every field required by f. Fields that
// already exist are left untouched, so calling Enable twice is harmless.
func (w *World) Enable(f Feature) {
	n := w.N
	if f&FeatureTerrain != 0 {
		w.Height = ensureF32(w.Height, n)
	}
	if f&FeatureClimate != 0 {
		w.Height = ensureF32(w.Height, n)
		w.Temperature = ensureF32(w.Temperature, n)
		w.Moisture = ensureF32(w.Moisture, n)
		w.WindDir = ensureF32(w.WindDir, n)
		w.WindStrength = ensureF32(w.WindStrength, n)
	}
	if f&FeatureHydrology != 0 {
		w.Height = ensureF32(w.Height, n)
		w.Water = ensureF32(w.Water, n)
		w.Flux = ensureF32(w.Flux, n)
	}
	if f&FeatureBiology != 0 {
		w.Population = ensureI32(w.Population, n)
		if w.Culture == nil {
			w.Culture = make([]int32, n)
			for i := range w.Culture {
				w.Culture[i] = NoCulture
			}
		}
		if w.Starving == nil {
			w.Starving = make([]bool, n)
		}
		if w.Resources == nil {
			w.Resources = make([]Inventory, n)
		}
		if w.Tier == nil {
			w.Tier = make([]Tier, n)
		}
		if w.Building == nil {
			w.Building = make([]Building, n)
		}
	}
	if f&(FeatureFactions|FeatureConflict) != 0 {
		w.Faction = ensureI32(w.Faction, n)
		w.Infrastructure = ensureF32(w.Infrastructure, n)
		w.Wealth = ensureF32(w.Wealth, n)
		w.Defense = ensureF32(w.Defense, n)
	}
	if f&FeatureChaos != 0 {
		w.Chaos = ensureF32(w.Chaos, n)
	}
	w.features |= f
}

// Validate checks the length invariant for every present field and that every
// enabled feature has its fields.
func (w *World) Validate() error {
	var err error
	w.ForEachField(func(name string, length int) {
		if err == nil && length != w.N {
			err = fmt.Errorf("%w: %s has %d cells, want %d", ErrFieldLength, name, length, w.N)
		}
	})
	if err != nil {
		return err
	}
	check := func(f Feature, name string, present bool) error {
		if w.Has(f) && !present {
			return fmt.Errorf("%w: %s for %s", ErrMissingField, name, f)
		}
		return nil
	}
	for _, c := range []struct {
		f       Feature
		name    string
		present bool
	}{
		{FeatureTerrain, "height", w.Height != nil},
		{FeatureClimate, "temperature", w.Temperature != nil},
		{FeatureClimate, "moisture", w.Moisture != nil},
		{FeatureHydrology, "water", w.Water != nil},
		{FeatureBiology, "population", w.Population != nil},
		{FeatureBiology, "culture", w.Culture != nil},
		{FeatureBiology, "resources", w.Resources != nil},
		{FeatureFactions, "faction", w.Faction != nil},
		{FeatureConflict, "wealth", w.Wealth != nil},
		{FeatureChaos, "chaos", w.Chaos != nil},
	} {
		if err := check(c.f, c.name, c.present); err != nil {
			return err
		}
	}
	return nil
}

// ForEachField calls fn with the name and length of every allocated field in a
// fixed order.
func (w *World) ForEachField(fn func(name string, length int)) {
	f32 := []struct {
		name string
		data []float32
	}{
		{"x", w.X}, {"y", w.Y}, {"height", w.Height}, {"temperature", w.Temperature},
		{"moisture", w.Moisture}, {"water", w.Water}, {"flux", w.Flux}, {"wind_dir", w.WindDir},
		{"wind_strength", w.WindStrength}, {"infrastructure", w.Infrastructure}, {"wealth", w.Wealth},
		{"defense", w.Defense}, {"chaos", w.Chaos},
	}
	for _, f := range f32 {
		if f.data != nil {
			fn(f.name, len(f.data))
		}
	}
	if w.Population != nil {
		fn("population", len(w.Population))
	}
	if w.Culture != nil {
		fn("culture", len(w.Culture))
	}
	if w.Faction != nil {
		fn("faction", len(w.Faction))
	}
	if w.Starving != nil {
		fn("starving", len(w.Starving))
	}
	if w.Resources != nil {
		fn("resources", len(w.Resources))
	}
	if w.Tier != nil {
		fn("tier", len(w.Tier))
	}
	if w.Building != nil {
		fn("building", len(w.Building))
	}
}

// IsOcean reports whether cell i lies below sea level. Worlds without terrain
// have no ocean.
func (w *World) IsOcean(i int) bool {
	if w.Height == nil {
		return false
	}
	return w.Height[i] < w.SeaLevel
}

// ClearCell removes any resident species from cell i.
func (w *World) ClearCell(i int) {
	if w.Population != nil {
		w.Population[i] = 0
	}
	if w.Culture != nil {
		w.Culture[i] = NoCulture
	}
	if w.Starving != nil {
		w.Starving[i] = false
	}
}

// TotalPopulation sums population over every cell.
func (w *World) TotalPopulation() int64 {
	var total int64
	for _, p := range w.Population {
		total += int64(p)
	}
	return total
}

func ensureF32(s []float32, n int) []float32 {
	if s != nil {
		return s
	}
	return make([]float32, n)
}

func ensureI32(s []int32, n int) []int32 {
	if s != nil {
		return s
	}
	return make([]int32, n)
}
