package sim

import (
	"fmt"
	"log/slog"
	"math"

	"cellworld/internal/config"
	"cellworld/internal/core"
	"cellworld/internal/world"
)

// View adapts a Session to the viewer's core.Sim contract. Lattice worlds map
// one cell to one pixel; free-graph worlds are rasterized onto a square grid
// by position.
type View struct {
	cfg     config.Config
	opts    []Option
	logger  *slog.Logger
	session *Session

	raster *core.ByteGrid
	// pixelCell maps raster pixels to cells for free graphs, -1 when empty.
	pixelCell []int32
	failed    bool
}

// NewView builds a session from cfg and wraps it for display.
func NewView(cfg config.Config, opts ...Option) (*View, error) {
	v := &View{cfg: cfg, opts: opts, logger: slog.Default()}
	if err := v.rebuild(cfg); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *View) rebuild(cfg config.Config) error {
	s, err := NewSession(cfg, v.opts...)
	if err != nil {
		return err
	}
	if v.session != nil {
		v.session.Close()
	}
	v.cfg = cfg
	v.session = s
	v.logger = s.logger
	v.failed = false
	v.layout()
	v.refresh()
	return nil
}

// layout sizes the raster for the current world.
func (v *View) layout() {
	w := v.session.World()
	if w.IsLattice() {
		v.raster = core.NewByteGrid(w.W, w.H)
		v.pixelCell = nil
	} else {
		side := max(1, int(math.Ceil(math.Sqrt(float64(w.N)))))
		v.raster = core.NewByteGrid(side, side)
		v.pixelCell = make([]int32, side*side)
		for i := range v.pixelCell {
			v.pixelCell[i] = -1
		}
		for i := 0; i < w.N; i++ {
			x := min(side-1, int(w.X[i]*float32(side)))
			y := min(side-1, int(w.Y[i]*float32(side)))
			v.pixelCell[v.raster.Index(x, y)] = int32(i)
		}
	}
}

// cellAt returns the cell shown at pixel p, or -1.
func (v *View) cellAt(p int) int {
	if v.pixelCell == nil {
		return p
	}
	return int(v.pixelCell[p])
}

func (v *View) refresh() {
	w := v.session.World()
	display := v.raster.Cells()
	for p := range display {
		i := v.cellAt(p)
		if i < 0 || i >= w.N {
			display[p] = uint8(world.BiomeOcean)
			continue
		}
		display[p] = encodeDisplayValue(w, i)
	}
}

// Name identifies the simulation in the viewer.
func (v *View) Name() string { return "cellworld" }

// Size reports the raster dimensions.
func (v *View) Size() core.Size { return v.raster.Size() }

// Cells exposes the current display buffer.
func (v *View) Cells() []uint8 { return v.raster.Cells() }

// Session exposes the wrapped session.
func (v *View) Session() *Session { return v.session }

// Reset rebuilds the world with seed. Zero keeps the configured seed.
func (v *View) Reset(seed int64) {
	cfg := v.cfg
	if seed != 0 {
		cfg.Seed = seed
	}
	if err := v.rebuild(cfg); err != nil {
		v.logger.Error("reset failed", "seed", seed, "err", err)
	}
}

// Step advances the world one day. A failed session stops advancing and the
// failure is logged once.
func (v *View) Step() {
	if err := v.session.Tick(); err != nil {
		if !v.failed {
			v.logger.Error("simulation stopped", "err", err)
			v.failed = true
		}
		return
	}
	v.refresh()
}

// StatusLines summarizes the running world for the HUD.
func (v *View) StatusLines() []string {
	st := v.session.Stats()
	lines := []string{
		fmt.Sprintf("day %d", st.Tick),
		fmt.Sprintf("population %d", st.Population),
		fmt.Sprintf("factions %d, wars %d", v.session.Registry().Factions.Len(), st.Wars),
		fmt.Sprintf("rivers %d, raids %d", st.Rivers, st.Raids),
	}
	if v.failed {
		lines = append(lines, "stopped: "+v.session.Failed().Error())
	}
	return lines
}

// mask samples field per pixel, normalized by scale and clamped to [0,1].
func (v *View) mask(field []float32, scale float32) []float32 {
	if field == nil {
		return nil
	}
	out := make([]float32, len(v.raster.Cells()))
	for p := range out {
		if i := v.cellAt(p); i >= 0 && i < len(field) {
			out[p] = min(1, max(0, field[i]/scale))
		}
	}
	return out
}

// WaterMask exposes standing water per pixel.
func (v *View) WaterMask() []float32 { return v.mask(v.session.World().Water, 1) }

// ChaosMask exposes chaos energy per pixel.
func (v *View) ChaosMask() []float32 { return v.mask(v.session.World().Chaos, 1) }

// WindVectorAt returns the wind at raster coordinates (x, y).
func (v *View) WindVectorAt(x, y float64) (float64, float64) {
	w := v.session.World()
	if w.WindDir == nil {
		return 0, 0
	}
	i := v.cellAt(v.raster.Index(v.raster.Clamp(int(x), int(y))))
	if i < 0 {
		return 0, 0
	}
	dir, strength := float64(w.WindDir[i]), float64(w.WindStrength[i])
	return math.Cos(dir) * strength, math.Sin(dir) * strength
}

// ElevationField exposes heights per pixel in thousandths.
func (v *View) ElevationField() []int16 {
	h := v.session.World().Height
	if h == nil {
		return nil
	}
	out := make([]int16, len(v.raster.Cells()))
	for p := range out {
		if i := v.cellAt(p); i >= 0 {
			out[p] = int16(h[i] * 1000)
		}
	}
	return out
}
