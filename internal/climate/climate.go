// Package climate advances temperature, moisture, wind and surface water.
package climate

import (
	"math"

	"cellworld/internal/diffuse"
	"cellworld/internal/graph"
	"cellworld/internal/world"
)

// Band boundaries over the normalized vertical coordinate.
var bandEdges = [4]float32{0.15, 0.4, 0.6, 0.85}

const (
	BandPolarNorth = iota
	BandTemperateNorth
	BandTropical
	BandTemperateSouth
	BandPolarSouth
)

// WindBand is the climate table entry for one latitude band.
type WindBand struct {
	BaseTemp     float32 `yaml:"base_temp"`
	BaseMoisture float32 `yaml:"base_moisture"`
	// Dir is the direction the wind blows toward, in radians (0 = +x).
	Dir      float32 `yaml:"dir"`
	Strength float32 `yaml:"strength"`
}

// Params controls the climate pass.
type Params struct {
	Bands [5]WindBand

	TempModifier     float32
	WindModifier     float32
	RainfallModifier float32

	// AltitudeCooling is the temperature drop per unit of height above sea level.
	AltitudeCooling float32
	// Relax is the weight of the target in the exponential relaxation.
	Relax float32
	// AdvectRate scales how much of the upwind difference moves per tick.
	AdvectRate float32
	// MoistureDiffusion optionally smooths moisture across neighbours.
	MoistureDiffusion float32
}

// DefaultBands returns polar easterlies, temperate westerlies and tropical trades.
func DefaultBands() [5]WindBand {
	return [5]WindBand{
		BandPolarNorth:     {BaseTemp: 0.1, BaseMoisture: 0.3, Dir: math.Pi, Strength: 0.6},
		BandTemperateNorth: {BaseTemp: 0.45, BaseMoisture: 0.6, Dir: 0, Strength: 0.8},
		BandTropical:       {BaseTemp: 0.9, BaseMoisture: 0.8, Dir: math.Pi, Strength: 0.5},
		BandTemperateSouth: {BaseTemp: 0.45, BaseMoisture: 0.6, Dir: 0, Strength: 0.8},
		BandPolarSouth:     {BaseTemp: 0.1, BaseMoisture: 0.3, Dir: math.Pi, Strength: 0.6},
	}
}

// DefaultParams returns the standard climate settings.
func DefaultParams() Params {
	return Params{
		Bands:            DefaultBands(),
		TempModifier:     1,
		WindModifier:     1,
		RainfallModifier: 1,
		AltitudeCooling:  0.6,
		Relax:            0.05,
		AdvectRate:       0.5,
	}
}

// BandFor returns the band index for normalized latitude y.
func BandFor(y float32) int {
	for i, edge := range bandEdges {
		if y < edge {
			return i
		}
	}
	return BandPolarSouth
}

// Climate is the double-buffered temperature and moisture pass.
type Climate struct {
	Params  Params
	Workers int

	tempNext  []float32
	moistNext []float32
	scratch   []float32
}

// Apply runs one climate tick. Worlds without temperature or moisture skip the
// corresponding half of the update.
func (c *Climate) Apply(w *world.World, g *graph.Graph) {
	if g.Len() != w.N || (w.Temperature == nil && w.Moisture == nil) {
		return
	}
	c.tempNext = resize(c.tempNext, w.N)
	c.moistNext = resize(c.moistNext, w.N)
	p := c.Params

	diffuse.Parallel(w.N, c.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			y := w.Y[i]
			bandIdx := BandFor(y)
			band := p.Bands[bandIdx]
			dir := band.Dir
			strength := clamp01(band.Strength * p.WindModifier)
			if w.WindDir != nil {
				w.WindDir[i] = dir
			}
			if w.WindStrength != nil {
				w.WindStrength[i] = strength
			}
			up := Upwind(w, g, i, dir)
			advect := strength * p.AdvectRate

			if w.Temperature != nil {
				target := band.BaseTemp
				if bandIdx == BandTropical {
					target -= float32(math.Abs(float64(y - 0.5)))
				}
				target *= p.TempModifier
				if w.Height != nil {
					if above := w.Height[i] - w.SeaLevel; above > 0 {
						target -= p.AltitudeCooling * above
					}
				}
				c.tempNext[i] = relaxAdvect(w.Temperature, i, up, target, p.Relax, advect)
			}
			if w.Moisture != nil {
				target := band.BaseMoisture * p.RainfallModifier
				if w.IsOcean(i) {
					target = 1
				}
				c.moistNext[i] = relaxAdvect(w.Moisture, i, up, target, p.Relax, advect)
			}
		}
	})

	if w.Temperature != nil {
		w.Temperature, c.tempNext = c.tempNext, w.Temperature
	}
	if w.Moisture != nil {
		if p.MoistureDiffusion > 0 {
			c.scratch = resize(c.scratch, w.N)
			diffuse.Step(g, c.moistNext, c.scratch, diffuse.StableRate(g, p.MoistureDiffusion), c.Workers)
			c.moistNext, c.scratch = c.scratch, c.moistNext
		}
		w.Moisture, c.moistNext = c.moistNext, w.Moisture
	}
}

// Prime sets temperature and moisture straight to their band targets so a
// fresh world does not spend its first ticks warming up from zero.
func (c *Climate) Prime(w *world.World, g *graph.Graph) {
	primed := Climate{Params: c.Params, Workers: c.Workers}
	primed.Params.Relax = 1
	primed.Params.AdvectRate = 0
	primed.Params.MoistureDiffusion = 0
	primed.Apply(w, g)
}

func relaxAdvect(cur []float32, i, up int, target, relax, advect float32) float32 {
	v := cur[i]*(1-relax) + target*relax
	if up >= 0 {
		v += (cur[up] - cur[i]) * advect
	}
	return clamp01(v)
}

// Upwind returns the neighbour the wind blows from, or -1. Lattice worlds round
// the wind angle to a grid offset; free graphs pick the neighbour best aligned
// with the upwind direction.
func Upwind(w *world.World, g *graph.Graph, i int, dir float32) int {
	ux := -math.Cos(float64(dir))
	uy := -math.Sin(float64(dir))
	if w.IsLattice() {
		x, y := w.Coords(i)
		nx := x + int(math.Round(ux))
		ny := y + int(math.Round(uy))
		if nx == x && ny == y {
			return -1
		}
		if nx < 0 || nx >= w.W || ny < 0 || ny >= w.H {
			return -1
		}
		return w.Index(nx, ny)
	}
	best, bestDot := -1, 0.0
	for _, n := range g.Neighbors(i) {
		dx := float64(w.X[n] - w.X[i])
		dy := float64(w.Y[n] - w.Y[i])
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		if d := (dx*ux + dy*uy) / l; d > bestDot {
			best, bestDot = int(n), d
		}
	}
	return best
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func resize(s []float32, n int) []float32 {
	if len(s) != n {
		return make([]float32, n)
	}
	return s
}
