package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// octave describes a fractal sum of a single noise source.
type octave struct {
	noise       opensimplex.Noise
	frequency   float64
	octaves     int
	persistence float64
	lacunarity  float64
}

// fbm returns a normalized fractal sum in roughly [-1, 1].
func (o octave) fbm(x, y float64) float64 {
	amp, freq := 1.0, o.frequency
	var sum, norm float64
	for i := 0; i < max(o.octaves, 1); i++ {
		sum += o.noise.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= o.persistence
		freq *= o.lacunarity
	}
	return sum / norm
}

// ridged returns a ridge-shaped fractal sum in [0, 1]; sharp crests sit where
// the underlying noise crosses zero.
func (o octave) ridged(x, y float64) float64 {
	amp, freq := 1.0, o.frequency
	var sum, norm float64
	for i := 0; i < max(o.octaves, 1); i++ {
		r := 1 - math.Abs(o.noise.Eval2(x*freq, y*freq))
		sum += r * r * amp
		norm += amp
		amp *= o.persistence
		freq *= o.lacunarity
	}
	return sum / norm
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}
