// Package terrain synthesizes and relaxes the height field.
//
// Every operation is a no-op on worlds that have not allocated heights.
package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"cellworld/internal/heightmap"
	"cellworld/internal/world"
)

// Range bounds valid heights. Min is -1 for signed worlds and 0 for unsigned ones.
type Range struct {
	Min float32
	Max float32
}

// Clamp limits h to the range.
func (r Range) Clamp(h float32) float32 {
	if h < r.Min {
		return r.Min
	}
	if h > r.Max {
		return r.Max
	}
	return h
}

// Island shapes the map into a single landmass.
type Island struct {
	Enabled bool `yaml:"enabled"`
	// Radius is the normalized distance (1 = map edge midpoint) where land ends.
	Radius float64 `yaml:"radius"`
	// Falloff controls how sharply land drops toward Radius.
	Falloff float64 `yaml:"falloff"`
	// Distortion warps the coastline with low-frequency noise.
	Distortion float64 `yaml:"distortion"`
	// EdgeMargin forces heights to the floor within this normalized distance of any edge.
	EdgeMargin float64 `yaml:"edge_margin"`
}

// Params controls procedural heightmap synthesis.
type Params struct {
	Seed int64

	BaseFrequency float64
	BaseOctaves   int
	Persistence   float64
	Lacunarity    float64

	RidgeFrequency float64
	RidgeOctaves   int

	MaskFrequency     float64
	MountainThreshold float64
	MountainInfluence float64

	Scale float64
	Range Range

	Island Island
}

// DefaultParams returns the standard generation parameters for a [0,1] world.
func DefaultParams() Params {
	return Params{
		Seed:              1337,
		BaseFrequency:     3,
		BaseOctaves:       5,
		Persistence:       0.5,
		Lacunarity:        2,
		RidgeFrequency:    6,
		RidgeOctaves:      4,
		MaskFrequency:     1.5,
		MountainThreshold: 0.55,
		MountainInfluence: 0.6,
		Scale:             1,
		Range:             Range{Min: 0, Max: 1},
		Island: Island{
			Radius:     0.9,
			Falloff:    2.2,
			Distortion: 0.15,
			EdgeMargin: 0.05,
		},
	}
}

// GenerateHeightmap fills w.Height. With a non-nil sampler heights come from the
// image by nearest-pixel lookup; otherwise they are synthesized from noise.
func GenerateHeightmap(w *world.World, p Params, src heightmap.Sampler) {
	if w.Height == nil {
		return
	}
	if src != nil {
		ImportHeightmap(w, src, p.Range)
		return
	}

	base := octave{
		noise:       opensimplex.New(p.Seed),
		frequency:   p.BaseFrequency,
		octaves:     p.BaseOctaves,
		persistence: p.Persistence,
		lacunarity:  p.Lacunarity,
	}
	ridge := octave{
		noise:       opensimplex.New(p.Seed + 1),
		frequency:   p.RidgeFrequency,
		octaves:     p.RidgeOctaves,
		persistence: p.Persistence,
		lacunarity:  p.Lacunarity,
	}
	mask := octave{noise: opensimplex.New(p.Seed + 2), frequency: p.MaskFrequency, octaves: 1}
	warp := octave{noise: opensimplex.New(p.Seed + 3), frequency: 2, octaves: 2, persistence: 0.5, lacunarity: 2}

	unsigned := p.Range.Min >= 0
	threshold := p.MountainThreshold
	for i := 0; i < w.N; i++ {
		x, y := float64(w.X[i]), float64(w.Y[i])

		h := base.fbm(x, y)
		if unsigned {
			h = (h + 1) / 2
		}
		if m := (mask.fbm(x, y) + 1) / 2; m > threshold && threshold < 1 {
			zone := (m - threshold) / (1 - threshold)
			h += ridge.ridged(x, y) * p.MountainInfluence * zone
		}
		h *= p.Scale

		if p.Island.Enabled {
			f := islandMask(x, y, p.Island, warp)
			h = float64(p.Range.Min) + (h-float64(p.Range.Min))*f
		}
		w.Height[i] = p.Range.Clamp(float32(h))
	}
}

// ImportHeightmap maps image samples into the height range.
func ImportHeightmap(w *world.World, src heightmap.Sampler, r Range) {
	if w.Height == nil || src == nil {
		return
	}
	for i := 0; i < w.N; i++ {
		g := heightmap.Sample(src, w.X[i], w.Y[i])
		w.Height[i] = r.Clamp(r.Min + g*(r.Max-r.Min))
	}
}

// islandMask returns 1 at the centre fading to 0 at the coast and within the
// edge margin.
func islandMask(x, y float64, is Island, warp octave) float64 {
	m := is.EdgeMargin
	if x < m || x > 1-m || y < m || y > 1-m {
		return 0
	}
	dx, dy := x-0.5, y-0.5
	d := math.Sqrt(dx*dx+dy*dy) / 0.5
	d += warp.fbm(x, y) * is.Distortion
	radius := is.Radius
	if radius <= 0 {
		radius = 1
	}
	falloff := is.Falloff
	if falloff <= 0 {
		falloff = 1
	}
	v := 1 - math.Pow(math.Max(d, 0)/radius, falloff)
	return smoothstep(0, 1, v)
}
