package terrain

import (
	"cellworld/internal/graph"
	"cellworld/internal/world"
)

// Erosion controls thermal relaxation.
type Erosion struct {
	Iterations int
	// Talus is the height difference below which material stays put.
	Talus float32
	// Rate is the fraction of the excess slope moved per iteration.
	Rate  float32
	Range Range
}

// DefaultErosion returns the standard relaxation settings.
func DefaultErosion() Erosion {
	return Erosion{Iterations: 10, Talus: 0.01, Rate: 0.5, Range: Range{Min: 0, Max: 1}}
}

// ApplyThermalErosion moves material from steep cells to their lower
// neighbours. Each iteration reads a snapshot of the previous iteration and
// writes a separate buffer, so the result does not depend on scan order.
//
// A donor sheds at most half of its steepest drop and a receiver takes in at
// most half of the drop from its lowest donor. Total height is conserved.
func ApplyThermalErosion(w *world.World, g *graph.Graph, e Erosion) {
	if w.Height == nil || w.N == 0 || g.Len() != w.N || e.Iterations <= 0 || e.Rate <= 0 {
		return
	}
	n := w.N
	cur := w.Height
	next := make([]float32, n)
	shed := make([]float32, n)
	inflow := make([]float32, n)
	lowest := make([]float32, n)
	for it := 0; it < e.Iterations; it++ {
		clear(inflow)
		clear(lowest)
		for i := 0; i < n; i++ {
			var total, maxDrop float32
			for _, nb := range g.Neighbors(i) {
				diff := cur[i] - cur[nb]
				if diff <= e.Talus {
					continue
				}
				total += transfer(diff, e)
				maxDrop = max(maxDrop, diff)
			}
			shed[i] = 1
			if limit := maxDrop / 2; total > limit {
				shed[i] = limit / total
			}
		}
		for i := 0; i < n; i++ {
			for _, nb := range g.Neighbors(i) {
				diff := cur[i] - cur[nb]
				if diff <= e.Talus {
					continue
				}
				inflow[nb] += transfer(diff, e) * shed[i]
				if lowest[nb] == 0 || diff < lowest[nb] {
					lowest[nb] = diff
				}
			}
		}
		copy(next, cur)
		for i := 0; i < n; i++ {
			for _, nb := range g.Neighbors(i) {
				diff := cur[i] - cur[nb]
				if diff <= e.Talus {
					continue
				}
				moved := transfer(diff, e) * shed[i]
				if limit := lowest[nb] / 2; inflow[nb] > limit {
					moved *= limit / inflow[nb]
				}
				next[i] -= moved
				next[nb] += moved
			}
		}
		for i := range next {
			next[i] = e.Range.Clamp(next[i])
		}
		cur, next = next, cur
	}
	if &cur[0] != &w.Height[0] {
		copy(w.Height, cur)
	}
}

func transfer(diff float32, e Erosion) float32 {
	amount := (diff - e.Talus) * e.Rate
	if half := diff / 2; amount > half {
		return half
	}
	return amount
}
