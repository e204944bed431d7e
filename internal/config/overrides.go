package config

import (
	"fmt"
	"slices"
	"strconv"

	"cellworld/internal/world"
)

// FromMap returns the defaults with flag-style key/value overrides applied.
func FromMap(m map[string]string) (Config, error) {
	c := DefaultConfig()
	err := c.Apply(m)
	return c, err
}

// Apply overrides fields from flag-style key/value pairs. Unknown keys are
// ignored so one map can feed several consumers; malformed values are errors.
func (c *Config) Apply(m map[string]string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	setters := c.setters()
	for _, k := range keys {
		set, ok := setters[k]
		if !ok {
			continue
		}
		if err := set(m[k]); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidParameter, k, m[k], err)
		}
	}
	return nil
}

// Keys lists every override key Apply understands.
func Keys() []string {
	var c Config
	keys := make([]string, 0, 32)
	for k := range c.setters() {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (c *Config) setters() map[string]func(string) error {
	return map[string]func(string) error{
		"w":       intVar(&c.Width),
		"h":       intVar(&c.Height),
		"cells":   intVar(&c.Cells),
		"radius":  f32Var(&c.Radius),
		"seed":    i64Var(&c.Seed),
		"workers": intVar(&c.Workers),
		"features": func(v string) error {
			f, err := world.ParseFeature(v)
			if err == nil {
				c.Features = f
			}
			return err
		},
		"heightmap":          func(v string) error { c.Heightmap = v; return nil },
		"sea_level":          f32Var(&c.SeaLevel),
		"signed":             boolVar(&c.Noise.Signed),
		"noise_frequency":    f64Var(&c.Noise.BaseFrequency),
		"noise_octaves":      intVar(&c.Noise.BaseOctaves),
		"ridge_frequency":    f64Var(&c.Noise.RidgeFrequency),
		"mountain_influence": f64Var(&c.Noise.MountainInfluence),
		"island":             boolVar(&c.Island.Enabled),
		"island_radius":      f64Var(&c.Island.Radius),
		"island_margin":      f64Var(&c.Island.EdgeMargin),
		"temp_modifier":      f32Var(&c.Climate.TempModifier),
		"wind_modifier":      f32Var(&c.Climate.WindModifier),
		"rainfall_modifier":  f32Var(&c.Climate.RainfallModifier),
		"river_threshold":    f32Var(&c.Climate.RiverThreshold),
		"erosion_iterations": intVar(&c.Erosion.Iterations),
		"erosion_talus":      f32Var(&c.Erosion.Talus),
		"erosion_rate":       f32Var(&c.Erosion.Rate),
		"factions":           intVar(&c.Spawn.Factions),
		"settlers":           i32Var(&c.Spawn.Settlers),
		"wildlife_density":   f64Var(&c.Spawn.Density),
		"raid_chance":        f64Var(&c.Conflict.RaidChance),
		"trade_share":        f32Var(&c.Logistics.TradeShare),
		"chaos_rate":         f32Var(&c.Chaos.Rate),
		"chaos_decay":        f32Var(&c.Chaos.Decay),
	}
}

func intVar(dst *int) func(string) error {
	return func(v string) error {
		parsed, err := strconv.Atoi(v)
		if err == nil {
			*dst = parsed
		}
		return err
	}
}

func i32Var(dst *int32) func(string) error {
	return func(v string) error {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err == nil {
			*dst = int32(parsed)
		}
		return err
	}
}

func i64Var(dst *int64) func(string) error {
	return func(v string) error {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			*dst = parsed
		}
		return err
	}
}

func f32Var(dst *float32) func(string) error {
	return func(v string) error {
		parsed, err := strconv.ParseFloat(v, 32)
		if err == nil {
			*dst = float32(parsed)
		}
		return err
	}
}

func f64Var(dst *float64) func(string) error {
	return func(v string) error {
		parsed, err := strconv.ParseFloat(v, 64)
		if err == nil {
			*dst = parsed
		}
		return err
	}
}

func boolVar(dst *bool) func(string) error {
	return func(v string) error {
		parsed, err := strconv.ParseBool(v)
		if err == nil {
			*dst = parsed
		}
		return err
	}
}
