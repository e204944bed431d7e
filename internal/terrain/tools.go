package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"cellworld/internal/world"
)

// BrushMode selects how a brush changes height.
type BrushMode uint8

const (
	BrushRaise BrushMode = iota
	BrushLower
	BrushFlatten
	BrushNoise
)

// BrushOp is a single point edit in normalized map coordinates.
type BrushOp struct {
	CX, CY   float32
	Radius   float32
	Strength float32
	Mode     BrushMode
	Seed     int64
}

// ApplyBrush applies a radially weighted height delta within op.Radius of the
// centre. Weight is (1 - d/r)^2.
func ApplyBrush(w *world.World, op BrushOp, r Range) {
	if w.Height == nil || op.Radius <= 0 || w.N == 0 {
		return
	}
	var target float32
	if op.Mode == BrushFlatten {
		target = w.Height[nearestCell(w, op.CX, op.CY)]
	}
	var noise opensimplex.Noise
	if op.Mode == BrushNoise {
		noise = opensimplex.New(op.Seed)
	}
	for i := 0; i < w.N; i++ {
		dx, dy := w.X[i]-op.CX, w.Y[i]-op.CY
		d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		if d > op.Radius {
			continue
		}
		k := 1 - d/op.Radius
		weight := k * k * op.Strength
		h := w.Height[i]
		switch op.Mode {
		case BrushRaise:
			h += weight
		case BrushLower:
			h -= weight
		case BrushFlatten:
			h += (target - h) * min(weight, 1)
		case BrushNoise:
			h += float32(noise.Eval2(float64(w.X[i])*16, float64(w.Y[i])*16)) * weight
		}
		w.Height[i] = r.Clamp(h)
	}
}

// LowerEdges pulls heights down linearly toward the map border, reaching the
// full amount at the edge and zero at margin.
func LowerEdges(w *world.World, margin, amount float32, r Range) {
	if w.Height == nil || margin <= 0 {
		return
	}
	for i := 0; i < w.N; i++ {
		x, y := w.X[i], w.Y[i]
		d := min(x, 1-x, y, 1-y)
		if d >= margin {
			continue
		}
		w.Height[i] = r.Clamp(w.Height[i] - amount*(1-d/margin))
	}
}

// Roughen adds high-frequency noise of the given amplitude to every cell.
func Roughen(w *world.World, amount float32, frequency float64, seed int64, r Range) {
	if w.Height == nil || amount == 0 {
		return
	}
	noise := opensimplex.New(seed)
	for i := 0; i < w.N; i++ {
		n := noise.Eval2(float64(w.X[i])*frequency, float64(w.Y[i])*frequency)
		w.Height[i] = r.Clamp(w.Height[i] + float32(n)*amount)
	}
}

func nearestCell(w *world.World, x, y float32) int {
	best, bestD := 0, float32(math.MaxFloat32)
	for i := 0; i < w.N; i++ {
		dx, dy := w.X[i]-x, w.Y[i]-y
		if d := dx*dx + dy*dy; d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
