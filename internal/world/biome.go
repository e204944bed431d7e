package world

// Height offsets above sea level that separate the elevated land classes.
const (
	beachBand    = 0.02
	hillsBand    = 0.25
	mountainBand = 0.45
)

// Biome classifies cell i from height, temperature and moisture. Missing
// climate fields fall back to temperate, moderately wet values.
func (w *World) Biome(i int) Biome {
	if w.Height == nil {
		return BiomePlains
	}
	h := w.Height[i]
	sea := w.SeaLevel
	if h < sea {
		return BiomeOcean
	}
	if h >= sea+mountainBand {
		return BiomeMountain
	}
	if h >= sea+hillsBand {
		return BiomeHills
	}
	temp := float32(0.5)
	if w.Temperature != nil {
		temp = w.Temperature[i]
	}
	moist := float32(0.4)
	if w.Moisture != nil {
		moist = w.Moisture[i]
	}
	switch {
	case temp < 0.2:
		return BiomeTundra
	case moist < 0.2 && temp > 0.6:
		return BiomeDesert
	case h < sea+beachBand:
		return BiomeBeach
	case moist > 0.55:
		return BiomeForest
	default:
		return BiomePlains
	}
}

// TerrainDefenseBonus is the multiplier defenders receive from their terrain.
func TerrainDefenseBonus(b Biome) float32 {
	switch b {
	case BiomeMountain:
		return 3
	case BiomeHills:
		return 1.5
	default:
		return 1
	}
}
