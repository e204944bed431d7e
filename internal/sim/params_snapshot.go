package sim

import (
	"strconv"

	"cellworld/internal/config"
	"cellworld/internal/core"
)

// Parameters reports the configuration of the running session for the HUD.
func (v *View) Parameters() core.ParameterSnapshot {
	c := v.session.cfg
	live := v.session
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", c.Width),
				intParam("h", "Height", c.Height),
				intParam("cells", "Cells", v.session.World().N),
				int64Param("seed", "Seed", c.Seed),
				intParam("workers", "Workers", live.civ.Workers),
				f32Param("sea_level", "Sea level", c.SeaLevel),
				{Key: "features", Label: "Features", Value: v.session.World().Features().String()},
			},
		},
		{
			Name: "Terrain",
			Params: []core.Parameter{
				floatParam("noise_frequency", "Noise frequency", c.Noise.BaseFrequency),
				intParam("noise_octaves", "Noise octaves", c.Noise.BaseOctaves),
				floatParam("mountain_influence", "Mountain influence", c.Noise.MountainInfluence),
				boolParam("island", "Island", c.Island.Enabled),
				intParam("erosion_iterations", "Erosion iterations", c.Erosion.Iterations),
				f32Param("erosion_talus", "Erosion talus", c.Erosion.Talus),
			},
		},
		{
			Name: "Climate",
			Params: []core.Parameter{
				f32Param("temp_modifier", "Temperature modifier", live.climate.Params.TempModifier),
				f32Param("wind_modifier", "Wind modifier", live.climate.Params.WindModifier),
				f32Param("rainfall_modifier", "Rainfall modifier", live.hydrology.RainfallModifier),
				f32Param("river_threshold", "River threshold", c.Climate.RiverThreshold),
			},
		},
		{
			Name: "Conflict",
			Params: []core.Parameter{
				floatParam("raid_chance", "Raid chance", live.conflict.Params.RaidChance),
				f32Param("trade_share", "Trade share", live.logistics.Params.TradeShare),
				f32Param("chaos_rate", "Chaos rate", live.chaos.Rate),
				f32Param("chaos_decay", "Chaos decay", live.chaos.Decay),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the values the HUD may adjust while running.
func (v *View) ParameterControls() []core.ParameterControl {
	unit := func(key, label string, step float64) core.ParameterControl {
		return core.ParameterControl{Key: key, Label: label, Type: core.ParamTypeFloat, Step: step, Min: 0, Max: 1, HasMin: true, HasMax: true}
	}
	return []core.ParameterControl{
		{Key: "temp_modifier", Label: "Temperature", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 2, HasMin: true, HasMax: true},
		{Key: "wind_modifier", Label: "Wind", Type: core.ParamTypeFloat, Step: 0.1, Min: 0, Max: 3, HasMin: true, HasMax: true},
		{Key: "rainfall_modifier", Label: "Rainfall", Type: core.ParamTypeFloat, Step: 0.1, Min: 0, Max: 3, HasMin: true, HasMax: true},
		unit("raid_chance", "Raid chance", 0.01),
		unit("trade_share", "Trade share", 0.02),
		unit("chaos_rate", "Chaos rate", 0.02),
		unit("chaos_decay", "Chaos decay", 0.01),
		{Key: "workers", Label: "Workers", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: 64, HasMin: true, HasMax: true},
	}
}

// SetFloatParameter adjusts a live engine setting. It reports whether key
// names a live setting and value is acceptable.
func (v *View) SetFloatParameter(key string, value float64) bool {
	return v.session.SetParameter(key, value)
}

// SetIntParameter adjusts the worker count of every engine.
func (v *View) SetIntParameter(key string, value int) bool {
	if key != "workers" || value < 0 {
		return false
	}
	v.session.SetWorkers(value)
	return true
}

// SaveSnapshot writes the displayed world to path.
func (v *View) SaveSnapshot(path string) error {
	return v.session.SaveSnapshot(path)
}

// LoadSnapshot replaces the displayed world with the one stored at path.
func (v *View) LoadSnapshot(path string) error {
	if err := v.session.LoadSnapshot(path); err != nil {
		return err
	}
	v.layout()
	v.refresh()
	return nil
}

// SetParameter changes a live engine setting by its override key.
func (s *Session) SetParameter(key string, value float64) bool {
	if value < 0 {
		return false
	}
	f := float32(value)
	switch key {
	case "temp_modifier":
		s.climate.Params.TempModifier = f
	case "wind_modifier":
		s.climate.Params.WindModifier = f
	case "rainfall_modifier":
		s.climate.Params.RainfallModifier = f
		s.hydrology.RainfallModifier = f
	case "raid_chance":
		if value > 1 {
			return false
		}
		s.conflict.Params.RaidChance = value
	case "trade_share":
		if value > 1 {
			return false
		}
		s.logistics.Params.TradeShare = f
	case "chaos_rate":
		s.chaos.Rate = f
	case "chaos_decay":
		if value > 1 {
			return false
		}
		s.chaos.Decay = f
	default:
		return false
	}
	s.logger.Debug("parameter changed", "key", key, "value", value)
	return true
}

// SetWorkers changes the parallelism of every engine.
func (s *Session) SetWorkers(n int) {
	s.climate.Workers = n
	s.hydrology.Workers = n
	s.civ.Workers = n
	s.logistics.Workers = n
	s.chaos.Workers = n
}

func init() {
	core.Register("cellworld", func(cfg map[string]string) core.Sim {
		c, err := config.FromMap(cfg)
		if err != nil {
			c = config.DefaultConfig()
		}
		v, err := NewView(c)
		if err != nil {
			v, _ = NewView(config.DefaultConfig())
		}
		return v
	})
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func f32Param(key, label string, value float32) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(float64(value), 'f', -1, 32),
	}
}

func boolParam(key, label string, value bool) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeBool,
		Value: strconv.FormatBool(value),
	}
}
