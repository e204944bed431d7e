package climate

import (
	"slices"

	"cellworld/internal/diffuse"
	"cellworld/internal/graph"
	"cellworld/internal/world"
)

// maxTransfer caps the share of a cell's water that leaves in one tick.
const maxTransfer = 0.8

// slopeGain converts a height drop into a transfer fraction.
const slopeGain = 5

// HydroStats summarizes the water budget of one hydrology pass.
type HydroStats struct {
	// Previous is the standing water present before the pass.
	Previous float64
	Rainfall float64
	// Drained is the water absorbed by ocean cells.
	Drained float64
	// Retained is the standing water left on land after the pass.
	Retained float64
}

// Hydrology routes standing water to the steepest-descent neighbour.
type Hydrology struct {
	// RainRate scales moisture into rainfall.
	RainRate         float32
	RainfallModifier float32
	Workers          int

	rain   []float32
	out    []float32
	target []int32
	next   []float32
}

// Apply runs one hydrology tick. Each cell receives rainfall proportional to
// its moisture, then sends a slope-dependent share of its water to its single
// lowest neighbour. Routing decisions read only the tick-start state and the
// new water buffer is swapped in after the full pass.
func (h *Hydrology) Apply(w *world.World, g *graph.Graph) HydroStats {
	var stats HydroStats
	if w.Height == nil || w.Water == nil || g.Len() != w.N {
		return stats
	}
	n := w.N
	h.rain = resize(h.rain, n)
	h.out = resize(h.out, n)
	h.next = resize(h.next, n)
	if len(h.target) != n {
		h.target = make([]int32, n)
	}
	modifier := h.RainfallModifier
	if modifier == 0 {
		modifier = 1
	}

	diffuse.Parallel(n, h.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			h.rain[i] = 0
			h.out[i] = 0
			h.target[i] = -1
			if w.IsOcean(i) {
				continue
			}
			rain := h.RainRate * modifier
			if w.Moisture != nil {
				rain *= w.Moisture[i]
			}
			h.rain[i] = rain
			low, drop := LowestNeighbor(g, w.Height, i)
			if low < 0 {
				continue
			}
			frac := min(float32(maxTransfer), drop*slopeGain)
			h.target[i] = int32(low)
			h.out[i] = (w.Water[i] + rain) * frac
		}
	})

	for i := 0; i < n; i++ {
		stats.Previous += float64(w.Water[i])
		stats.Rainfall += float64(h.rain[i])
		h.next[i] = w.Water[i] + h.rain[i] - h.out[i]
		if w.Flux != nil {
			w.Flux[i] = w.Water[i] + h.rain[i]
		}
	}
	for i := 0; i < n; i++ {
		if t := h.target[i]; t >= 0 {
			h.next[t] += h.out[i]
			if w.Flux != nil {
				w.Flux[t] += h.out[i]
			}
		}
	}
	for i := 0; i < n; i++ {
		if w.IsOcean(i) {
			stats.Drained += float64(h.next[i])
			h.next[i] = 0
			continue
		}
		stats.Retained += float64(h.next[i])
	}
	w.Water, h.next = h.next, w.Water
	return stats
}

// LowestNeighbor returns the first neighbour with the strictly lowest height
// below cell i and the height drop to it, or -1 when i is a pit.
func LowestNeighbor(g *graph.Graph, height []float32, i int) (int, float32) {
	best := -1
	lowest := height[i]
	for _, n := range g.Neighbors(i) {
		if height[n] < lowest {
			best, lowest = int(n), height[n]
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, height[i] - lowest
}

// Accumulate computes upstream flux by visiting cells from highest to lowest
// and passing each cell's total into its lowest neighbour. Every land cell
// contributes unit rainfall, scaled by moisture when present.
func Accumulate(w *world.World, g *graph.Graph, unit float32) []float32 {
	if w.Height == nil || g.Len() != w.N {
		return nil
	}
	flux := make([]float32, w.N)
	order := make([]int32, w.N)
	for i := range order {
		order[i] = int32(i)
		if w.IsOcean(i) {
			continue
		}
		flux[i] = unit
		if w.Moisture != nil {
			flux[i] *= w.Moisture[i]
		}
	}
	slices.SortStableFunc(order, func(a, b int32) int {
		ha, hb := w.Height[a], w.Height[b]
		switch {
		case ha > hb:
			return -1
		case ha < hb:
			return 1
		default:
			return 0
		}
	})
	for _, i := range order {
		if low, _ := LowestNeighbor(g, w.Height, int(i)); low >= 0 {
			flux[low] += flux[i]
		}
	}
	return flux
}

// Rivers marks cells whose accumulated flux exceeds threshold.
func Rivers(flux []float32, threshold float32) []bool {
	out := make([]bool, len(flux))
	for i, f := range flux {
		out[i] = f > threshold
	}
	return out
}

// CountRivers returns how many cells carry a river.
func CountRivers(flux []float32, threshold float32) int {
	count := 0
	for _, f := range flux {
		if f > threshold {
			count++
		}
	}
	return count
}
