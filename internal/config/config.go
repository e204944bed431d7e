// Package config holds the world configuration record and its sources:
// defaults, flag-style string overrides and YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"cellworld/internal/civ"
	"cellworld/internal/climate"
	"cellworld/internal/conflict"
	"cellworld/internal/registry"
	"cellworld/internal/terrain"
	"cellworld/internal/world"
)

var (
	ErrInvalidCellCount  = errors.New("config: invalid cell count")
	ErrInvalidDimensions = errors.New("config: invalid dimensions")
	ErrInvalidParameter  = errors.New("config: invalid parameter")
)

// Noise controls procedural height synthesis.
type Noise struct {
	BaseFrequency     float64 `yaml:"base_frequency"`
	BaseOctaves       int     `yaml:"base_octaves"`
	Persistence       float64 `yaml:"persistence"`
	Lacunarity        float64 `yaml:"lacunarity"`
	RidgeFrequency    float64 `yaml:"ridge_frequency"`
	RidgeOctaves      int     `yaml:"ridge_octaves"`
	MaskFrequency     float64 `yaml:"mask_frequency"`
	MountainThreshold float64 `yaml:"mountain_threshold"`
	MountainInfluence float64 `yaml:"mountain_influence"`
	Scale             float64 `yaml:"scale"`
	// Signed selects heights in [-1,1] instead of [0,1].
	Signed bool `yaml:"signed"`
}

// Climate holds the global climate and water modifiers.
type Climate struct {
	TempModifier      float32 `yaml:"temp_modifier"`
	WindModifier      float32 `yaml:"wind_modifier"`
	RainfallModifier  float32 `yaml:"rainfall_modifier"`
	AltitudeCooling   float32 `yaml:"altitude_cooling"`
	Relax             float32 `yaml:"relax"`
	AdvectRate        float32 `yaml:"advect_rate"`
	MoistureDiffusion float32 `yaml:"moisture_diffusion"`
	RainRate          float32 `yaml:"rain_rate"`
	RiverThreshold    float32 `yaml:"river_threshold"`
}

// Erosion controls the thermal relaxation run once after generation.
type Erosion struct {
	Iterations int     `yaml:"iterations"`
	Talus      float32 `yaml:"talus"`
	Rate       float32 `yaml:"rate"`
}

// Chaos controls the chaos energy field.
type Chaos struct {
	Rate  float32 `yaml:"rate"`
	Decay float32 `yaml:"decay"`
}

// Spawn controls the initial placement of life and factions.
type Spawn struct {
	Factions int `yaml:"factions"`
	// Settlers is the starting population of each faction's home cell.
	Settlers int32   `yaml:"settlers"`
	Wealth   float32 `yaml:"wealth"`
	// Density is the chance that a suitable land cell starts with wildlife
	// of a given species, seeded with Wildlife individuals.
	Density  float64 `yaml:"density"`
	Wildlife int32   `yaml:"wildlife"`
	// Stock is the food every land cell starts with.
	Stock float32 `yaml:"stock"`
}

// Config is the complete description of a world and its engines.
type Config struct {
	// Width and Height describe a lattice world. When both are zero, Cells
	// points are scattered and linked within Radius.
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Cells  int     `yaml:"cells"`
	Radius float32 `yaml:"radius"`

	Seed     int64         `yaml:"seed"`
	Workers  int           `yaml:"workers"`
	SeaLevel float32       `yaml:"sea_level"`
	Features world.Feature `yaml:"features"`
	// Heightmap is an optional image path replacing noise generation.
	Heightmap string `yaml:"heightmap"`

	Noise      Noise                    `yaml:"noise"`
	Island     terrain.Island           `yaml:"island"`
	Climate    Climate                  `yaml:"climate"`
	Bands      [5]climate.WindBand      `yaml:"bands"`
	Erosion    Erosion                  `yaml:"erosion"`
	Population civ.Params               `yaml:"population"`
	Conflict   conflict.Params          `yaml:"conflict"`
	Logistics  conflict.LogisticsParams `yaml:"logistics"`
	Chaos      Chaos                    `yaml:"chaos"`
	Spawn      Spawn                    `yaml:"spawn"`

	// Species replaces the built-in species table when non-empty.
	Species []registry.SpeciesDef `yaml:"species"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	tp := terrain.DefaultParams()
	cp := climate.DefaultParams()
	ep := terrain.DefaultErosion()
	return Config{
		Width:    128,
		Height:   128,
		Seed:     1337,
		SeaLevel: 0.4,
		Features: world.FeatureAll,
		Noise: Noise{
			BaseFrequency:     tp.BaseFrequency,
			BaseOctaves:       tp.BaseOctaves,
			Persistence:       tp.Persistence,
			Lacunarity:        tp.Lacunarity,
			RidgeFrequency:    tp.RidgeFrequency,
			RidgeOctaves:      tp.RidgeOctaves,
			MaskFrequency:     tp.MaskFrequency,
			MountainThreshold: tp.MountainThreshold,
			MountainInfluence: tp.MountainInfluence,
			Scale:             tp.Scale,
		},
		Island: tp.Island,
		Climate: Climate{
			TempModifier:     cp.TempModifier,
			WindModifier:     cp.WindModifier,
			RainfallModifier: cp.RainfallModifier,
			AltitudeCooling:  cp.AltitudeCooling,
			Relax:            cp.Relax,
			AdvectRate:       cp.AdvectRate,
			RainRate:         0.1,
			RiverThreshold:   50,
		},
		Bands:      cp.Bands,
		Erosion:    Erosion{Iterations: ep.Iterations, Talus: ep.Talus, Rate: ep.Rate},
		Population: civ.DefaultParams(),
		Conflict:   conflict.DefaultParams(),
		Logistics:  conflict.DefaultLogistics(),
		Chaos:      Chaos{Rate: 0.1},
		Spawn: Spawn{
			Factions: 4,
			Settlers: 200,
			Wealth:   50,
			Density:  0.05,
			Wildlife: 50,
			Stock:    100,
		},
	}
}

// Lattice reports whether the config describes a rectangular grid.
func (c Config) Lattice() bool { return c.Width > 0 && c.Height > 0 }

// CellCount returns the number of cells the world will have.
func (c Config) CellCount() int {
	if c.Lattice() {
		return c.Width * c.Height
	}
	return c.Cells
}

// HeightRange returns the valid height interval.
func (c Config) HeightRange() terrain.Range {
	if c.Noise.Signed {
		return terrain.Range{Min: -1, Max: 1}
	}
	return terrain.Range{Min: 0, Max: 1}
}

// TerrainParams converts the noise and island groups for the terrain engine.
func (c Config) TerrainParams() terrain.Params {
	n := c.Noise
	return terrain.Params{
		Seed:              c.Seed,
		BaseFrequency:     n.BaseFrequency,
		BaseOctaves:       n.BaseOctaves,
		Persistence:       n.Persistence,
		Lacunarity:        n.Lacunarity,
		RidgeFrequency:    n.RidgeFrequency,
		RidgeOctaves:      n.RidgeOctaves,
		MaskFrequency:     n.MaskFrequency,
		MountainThreshold: n.MountainThreshold,
		MountainInfluence: n.MountainInfluence,
		Scale:             n.Scale,
		Range:             c.HeightRange(),
		Island:            c.Island,
	}
}

// ErosionParams converts the erosion group.
func (c Config) ErosionParams() terrain.Erosion {
	return terrain.Erosion{
		Iterations: c.Erosion.Iterations,
		Talus:      c.Erosion.Talus,
		Rate:       c.Erosion.Rate,
		Range:      c.HeightRange(),
	}
}

// ClimateParams converts the climate group and band table.
func (c Config) ClimateParams() climate.Params {
	return climate.Params{
		Bands:             c.Bands,
		TempModifier:      c.Climate.TempModifier,
		WindModifier:      c.Climate.WindModifier,
		RainfallModifier:  c.Climate.RainfallModifier,
		AltitudeCooling:   c.Climate.AltitudeCooling,
		Relax:             c.Climate.Relax,
		AdvectRate:        c.Climate.AdvectRate,
		MoistureDiffusion: c.Climate.MoistureDiffusion,
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	c := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// Validate rejects configurations no session can run.
func (c Config) Validate() error {
	if c.Width < 0 || c.Height < 0 || (c.Width > 0) != (c.Height > 0) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	if c.Lattice() {
		if c.Cells != 0 && c.Cells != c.Width*c.Height {
			return fmt.Errorf("%w: %d cells for a %dx%d lattice", ErrInvalidCellCount, c.Cells, c.Width, c.Height)
		}
	} else {
		if c.Cells <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidCellCount, c.Cells)
		}
		if c.Radius <= 0 {
			return invalid("radius", "must be positive for a free graph")
		}
	}
	if n := c.CellCount(); n > world.MaxCells {
		return fmt.Errorf("%w: %d exceeds %d", ErrInvalidCellCount, n, world.MaxCells)
	}

	checks := []struct {
		ok   bool
		name string
		why  string
	}{
		{c.Workers >= 0, "workers", "must not be negative"},
		{c.SeaLevel >= -1 && c.SeaLevel <= 1, "sea_level", "must lie in [-1,1]"},
		{c.Noise.BaseFrequency > 0 && c.Noise.RidgeFrequency > 0 && c.Noise.MaskFrequency > 0, "noise", "frequencies must be positive"},
		{c.Noise.BaseOctaves >= 1 && c.Noise.RidgeOctaves >= 1, "noise", "octaves must be at least 1"},
		{c.Noise.Scale > 0, "noise.scale", "must be positive"},
		{!c.Island.Enabled || c.Island.Radius > 0, "island.radius", "must be positive"},
		{c.Island.EdgeMargin >= 0 && c.Island.EdgeMargin < 0.5, "island.edge_margin", "must lie in [0,0.5)"},
		{c.Climate.TempModifier >= 0 && c.Climate.WindModifier >= 0 && c.Climate.RainfallModifier >= 0, "climate", "modifiers must not be negative"},
		{c.Climate.Relax >= 0 && c.Climate.Relax <= 1, "climate.relax", "must lie in [0,1]"},
		{c.Climate.RainRate >= 0, "climate.rain_rate", "must not be negative"},
		{c.Erosion.Iterations >= 0 && c.Erosion.Talus >= 0, "erosion", "iterations and talus must not be negative"},
		{c.Erosion.Rate >= 0 && c.Erosion.Rate <= 1, "erosion.rate", "must lie in [0,1]"},
		{c.Population.SpeciesCap > 0 && c.Population.CrowdingCap > 0, "population", "caps must be positive"},
		{c.Population.MigrationMargin >= 1, "population.migration_margin", "must be at least 1"},
		{prob(c.Population.GrowthChance) && prob(c.Population.StarvationDecay), "population", "chances must lie in [0,1]"},
		{prob(c.Conflict.RaidChance), "conflict.raid_chance", "must lie in [0,1]"},
		{c.Conflict.ConquestRatio > 0, "conflict.conquest_ratio", "must be positive"},
		{c.Conflict.SettlePopulation >= 0 && c.Conflict.SettlePopulation <= c.Conflict.MinPopulation, "conflict.settle_population", "must lie in [0,min_population]"},
		{c.Logistics.TradeShare >= 0 && c.Logistics.TradeShare <= 1, "logistics.trade_share", "must lie in [0,1]"},
		{c.Chaos.Rate >= 0 && c.Chaos.Decay >= 0 && c.Chaos.Decay <= 1, "chaos", "rate must not be negative and decay must lie in [0,1]"},
		{c.Spawn.Factions >= 0 && c.Spawn.Settlers >= 0 && c.Spawn.Wildlife >= 0, "spawn", "counts must not be negative"},
		{prob(c.Spawn.Density), "spawn.density", "must lie in [0,1]"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return invalid(ch.name, ch.why)
		}
	}
	if _, err := registry.FromDefs(c.Species); err != nil {
		return fmt.Errorf("%w: species: %v", ErrInvalidParameter, err)
	}
	return nil
}

func invalid(name, why string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, name, why)
}

func prob(p float64) bool { return p >= 0 && p <= 1 }
