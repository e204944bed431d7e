package diffuse

import (
	"cellworld/internal/graph"
	"cellworld/internal/world"
)

// Chaos spreads the chaos energy field across the neighbour graph.
type Chaos struct {
	Rate    float32
	Decay   float32
	Workers int

	shadow []float32
}

// Apply runs one fully double-buffered diffusion step over w.Chaos. Worlds
// without the chaos field are left untouched.
func (c *Chaos) Apply(w *world.World, g *graph.Graph) {
	if w.Chaos == nil || g.Len() != w.N {
		return
	}
	if len(c.shadow) != w.N {
		c.shadow = make([]float32, w.N)
	}
	Step(g, w.Chaos, c.shadow, StableRate(g, c.Rate), c.Workers)
	if c.Decay > 0 {
		keep := 1 - c.Decay
		for i := range c.shadow {
			c.shadow[i] *= keep
		}
	}
	w.Chaos, c.shadow = c.shadow, w.Chaos
}

// Inject adds energy at cell i, used by conflict events.
func Inject(w *world.World, i int, amount float32) {
	if w.Chaos == nil || i < 0 || i >= w.N {
		return
	}
	w.Chaos[i] += amount
}
