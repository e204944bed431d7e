package terrain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellworld/internal/graph"
	"cellworld/internal/heightmap"
	"cellworld/internal/world"
)

func sum(values []float32) float64 {
	var total float64
	for _, v := range values {
		total += float64(v)
	}
	return total
}

func newTerrainWorld(w, h int) *world.World {
	wd := world.NewLattice(w, h)
	wd.Enable(world.FeatureTerrain)
	return wd
}

func TestGenerateHeightmapDeterministicAndInRange(t *testing.T) {
	p := DefaultParams()
	a := newTerrainWorld(32, 32)
	b := newTerrainWorld(32, 32)

	GenerateHeightmap(a, p, nil)
	GenerateHeightmap(b, p, nil)

	require.True(t, slices.Equal(a.Height, b.Height), "same seed must give same terrain")
	for i, h := range a.Height {
		require.GreaterOrEqual(t, h, p.Range.Min, "cell %d", i)
		require.LessOrEqual(t, h, p.Range.Max, "cell %d", i)
	}

	p.Seed++
	c := newTerrainWorld(32, 32)
	GenerateHeightmap(c, p, nil)
	assert.False(t, slices.Equal(a.Height, c.Height))
}

func TestGenerateHeightmapSignedRange(t *testing.T) {
	p := DefaultParams()
	p.Range = Range{Min: -1, Max: 1}
	w := newTerrainWorld(24, 24)

	GenerateHeightmap(w, p, nil)

	var negative bool
	for _, h := range w.Height {
		require.GreaterOrEqual(t, h, float32(-1))
		require.LessOrEqual(t, h, float32(1))
		negative = negative || h < 0
	}
	assert.True(t, negative, "signed mode should produce some sub-zero terrain")
}

func TestIslandModeZeroesEdges(t *testing.T) {
	p := DefaultParams()
	p.Island.Enabled = true
	p.Island.EdgeMargin = 0.1
	w := newTerrainWorld(40, 40)

	GenerateHeightmap(w, p, nil)

	for x := 0; x < 40; x++ {
		assert.Equal(t, p.Range.Min, w.Height[w.Index(x, 0)])
		assert.Equal(t, p.Range.Min, w.Height[w.Index(x, 39)])
	}
	assert.Greater(t, w.Height[w.Index(20, 20)], p.Range.Min)
}

func TestGenerateHeightmapFromSampler(t *testing.T) {
	src := &heightmap.Grid{W: 2, H: 1, Values: []float32{0.2, 0.8}}
	w := newTerrainWorld(4, 1)
	p := DefaultParams()

	GenerateHeightmap(w, p, src)

	assert.InDeltaSlice(t, []float32{0.2, 0.2, 0.8, 0.8}, w.Height, 1e-6)
}

func TestGenerateWithoutHeightFieldIsNoop(t *testing.T) {
	w := world.NewLattice(4, 4)

	assert.NotPanics(t, func() {
		GenerateHeightmap(w, DefaultParams(), nil)
		ApplyThermalErosion(w, graph.Lattice(4, 4, graph.Moore, false), DefaultErosion())
		ApplyBrush(w, BrushOp{CX: 0.5, CY: 0.5, Radius: 0.3, Strength: 1}, Range{Max: 1})
	})
	assert.Nil(t, w.Height)
}

func TestThermalErosionMassBounded(t *testing.T) {
	w := newTerrainWorld(16, 16)
	g := graph.Lattice(16, 16, graph.Moore, false)
	GenerateHeightmap(w, DefaultParams(), nil)
	before := sum(w.Height)

	ApplyThermalErosion(w, g, DefaultErosion())

	after := sum(w.Height)
	assert.LessOrEqual(t, after, before+1e-3)
	assert.InDelta(t, before, after, 1e-3)
}

func TestThermalErosionFlattensSpike(t *testing.T) {
	w := newTerrainWorld(5, 5)
	g := graph.Lattice(5, 5, graph.VonNeumann, false)
	centre := w.Index(2, 2)
	w.Height[centre] = 1
	e := DefaultErosion()
	e.Iterations = 1

	ApplyThermalErosion(w, g, e)

	assert.InDelta(t, 0.5, w.Height[centre], 1e-5, "a cell sheds at most half its steepest drop")
	for _, n := range g.Neighbors(centre) {
		assert.InDelta(t, 0.125, w.Height[n], 1e-5)
	}
	assert.InDelta(t, 1.0, sum(w.Height), 1e-5)
}

func TestThermalErosionPitFillsWithoutOvershoot(t *testing.T) {
	for _, r := range []Range{{Min: 0, Max: 1}, {Min: 0, Max: 10}} {
		w := world.New(5)
		w.Enable(world.FeatureTerrain)
		w.Height = []float32{0, 1, 1, 1, 1}
		g := graph.FromAdjacency([][]int32{{1, 2, 3, 4}, {0}, {0}, {0}, {0}})
		e := Erosion{Iterations: 1, Talus: 0.01, Rate: 0.5, Range: r}

		ApplyThermalErosion(w, g, e)

		assert.InDelta(t, 4.0, sum(w.Height), 1e-5, "material is moved, not lost")
		for _, donor := range w.Height[1:] {
			assert.LessOrEqual(t, w.Height[0], donor, "the pit stays below its donors")
		}
		assert.InDelta(t, 0.5, w.Height[0], 1e-5)
	}
}

func TestThermalErosionOrderIndependent(t *testing.T) {
	// A descending ramp relaxes identically whether cells are listed forwards or backwards.
	fwd := newTerrainWorld(6, 1)
	rev := newTerrainWorld(6, 1)
	for i := 0; i < 6; i++ {
		fwd.Height[i] = float32(6-i) / 6
		rev.Height[5-i] = float32(6-i) / 6
	}
	e := DefaultErosion()
	e.Iterations = 3

	ApplyThermalErosion(fwd, graph.Line(6), e)
	ApplyThermalErosion(rev, graph.Line(6), e)

	for i := 0; i < 6; i++ {
		assert.InDelta(t, fwd.Height[i], rev.Height[5-i], 1e-6)
	}
}

func TestBrushModes(t *testing.T) {
	r := Range{Min: 0, Max: 1}
	w := newTerrainWorld(9, 9)
	for i := range w.Height {
		w.Height[i] = 0.5
	}
	centre := w.Index(4, 4)
	corner := w.Index(0, 0)

	ApplyBrush(w, BrushOp{CX: 0.5, CY: 0.5, Radius: 0.3, Strength: 0.2, Mode: BrushRaise}, r)
	assert.Greater(t, w.Height[centre], float32(0.65))
	assert.InDelta(t, 0.5, w.Height[corner], 1e-6)

	ApplyBrush(w, BrushOp{CX: 0.5, CY: 0.5, Radius: 0.3, Strength: 10, Mode: BrushLower}, r)
	assert.Equal(t, float32(0), w.Height[centre], "lowering clamps at the range floor")

	w.Height[centre] = 0.9
	ApplyBrush(w, BrushOp{CX: 0.5, CY: 0.5, Radius: 0.5, Strength: 1, Mode: BrushFlatten}, r)
	assert.InDelta(t, 0.9, w.Height[centre], 1e-6)
}

func TestLowerEdgesAndRoughen(t *testing.T) {
	r := Range{Min: 0, Max: 1}
	w := newTerrainWorld(10, 10)
	for i := range w.Height {
		w.Height[i] = 0.5
	}

	LowerEdges(w, 0.2, 0.3, r)

	assert.Less(t, w.Height[w.Index(0, 5)], float32(0.5))
	assert.InDelta(t, 0.5, w.Height[w.Index(5, 5)], 1e-6)

	before := slices.Clone(w.Height)
	Roughen(w, 0.05, 8, 3, r)
	assert.False(t, slices.Equal(before, w.Height))
}
