package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLatticePositions(t *testing.T) {
	w := NewLattice(4, 2)

	require.Equal(t, 8, w.N)
	assert.True(t, w.IsLattice())
	assert.InDelta(t, 0.125, w.X[0], 1e-6)
	assert.InDelta(t, 0.25, w.Y[0], 1e-6)
	assert.InDelta(t, 0.875, w.X[w.Index(3, 1)], 1e-6)

	x, y := w.Coords(w.Index(2, 1))
	assert.Equal(t, 2, x)
	assert.Equal(t, 1, y)
}

func TestEnableAllocatesZeroedFields(t *testing.T) {
	w := New(5)
	assert.Nil(t, w.Height)
	assert.Nil(t, w.Population)

	w.Enable(FeatureBiology | FeatureChaos)

	require.Len(t, w.Population, 5)
	require.Len(t, w.Chaos, 5)
	assert.Nil(t, w.Height, "terrain was not enabled")
	for i := 0; i < w.N; i++ {
		assert.Equal(t, NoCulture, w.Culture[i])
		assert.Zero(t, w.Population[i])
	}
	assert.True(t, w.Has(FeatureBiology))
	assert.False(t, w.Has(FeatureTerrain))
}

func TestEnableIsIdempotent(t *testing.T) {
	w := New(3)
	w.Enable(FeatureTerrain)
	w.Height[1] = 0.7

	w.Enable(FeatureTerrain | FeatureClimate)

	assert.InDelta(t, 0.7, w.Height[1], 1e-6)
	assert.Len(t, w.Temperature, 3)
}

func TestValidateDetectsLengthMismatch(t *testing.T) {
	w := New(4)
	w.Enable(FeatureTerrain)
	require.NoError(t, w.Validate())

	w.Height = w.Height[:3]
	assert.ErrorIs(t, w.Validate(), ErrFieldLength)
}

func TestValidateDetectsMissingField(t *testing.T) {
	w := New(4)
	w.Enable(FeatureChaos)
	w.Chaos = nil

	assert.ErrorIs(t, w.Validate(), ErrMissingField)
}

func TestBiomeClassification(t *testing.T) {
	w := New(6)
	w.SeaLevel = 0.2
	w.Enable(FeatureClimate)
	cases := []struct {
		h, temp, moist float32
		want           Biome
	}{
		{0.1, 0.5, 0.5, BiomeOcean},
		{0.7, 0.5, 0.5, BiomeMountain},
		{0.5, 0.5, 0.5, BiomeHills},
		{0.3, 0.1, 0.5, BiomeTundra},
		{0.3, 0.8, 0.1, BiomeDesert},
		{0.3, 0.5, 0.8, BiomeForest},
	}
	for i, c := range cases {
		w.Height[i] = c.h
		w.Temperature[i] = c.temp
		w.Moisture[i] = c.moist
		assert.Equal(t, c.want, w.Biome(i), "case %d", i)
	}
}

func TestClearCellResetsCulture(t *testing.T) {
	w := New(2)
	w.Enable(FeatureBiology)
	w.Population[0] = 12
	w.Culture[0] = 3
	w.Starving[0] = true

	w.ClearCell(0)

	assert.Zero(t, w.Population[0])
	assert.Equal(t, NoCulture, w.Culture[0])
	assert.False(t, w.Starving[0])
}

func TestFeatureString(t *testing.T) {
	assert.Equal(t, "none", Feature(0).String())
	assert.Equal(t, "terrain|chaos", (FeatureTerrain | FeatureChaos).String())
	assert.Equal(t, "city", TierCity.String())
	assert.Equal(t, "quarry", BuildingQuarry.String())
}

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("climate| Hydrology,chaos")
	require.NoError(t, err)
	assert.Equal(t, FeatureClimate|FeatureHydrology|FeatureChaos, f)

	f, err = ParseFeature("all")
	require.NoError(t, err)
	assert.Equal(t, FeatureAll, f)

	f, err = ParseFeature(FeatureAll.String())
	require.NoError(t, err)
	assert.Equal(t, FeatureAll, f)

	f, err = ParseFeature("none")
	require.NoError(t, err)
	assert.Zero(t, f)

	_, err = ParseFeature("lava")
	assert.Error(t, err)
}
