// Package conflict resolves territorial expansion, conquest, banditry and the
// wealth economy that feeds them.
package conflict

import "cellworld/internal/world"

// Params tunes expansion and combat.
type Params struct {
	// MinPopulation and MinWealth gate which owned cells may attack.
	MinPopulation int32   `yaml:"min_population"`
	MinWealth     float32 `yaml:"min_wealth"`

	SettlePopulation int32   `yaml:"settle_population"`
	SettleCost       float32 `yaml:"settle_cost"`

	// ConquestRatio is how much attack power must exceed the defence.
	ConquestRatio float32 `yaml:"conquest_ratio"`
	// CivilWarBonus multiplies power against a defender of the same culture.
	CivilWarBonus float32 `yaml:"civil_war_bonus"`

	// PopulationKept, WealthLooted and InfraKept shape conquest losses.
	PopulationKept float64 `yaml:"population_kept"`
	WealthLooted   float32 `yaml:"wealth_looted"`
	InfraKept      float32 `yaml:"infra_kept"`
	// GenocideAggression is the aggression above which conquerors replace
	// the defender's culture.
	GenocideAggression float32 `yaml:"genocide_aggression"`
	ConquestChaos      float32 `yaml:"conquest_chaos"`

	RaidChance     float64 `yaml:"raid_chance"`
	RaidProbes     int     `yaml:"raid_probes"`
	RaidMinWealth  float32 `yaml:"raid_min_wealth"`
	RaidMaxDefense float32 `yaml:"raid_max_defense"`
	RaidShare      float32 `yaml:"raid_share"`
	RaidChaos      float32 `yaml:"raid_chaos"`
}

// DefaultParams returns the standard conflict settings.
func DefaultParams() Params {
	return Params{
		MinPopulation:      50,
		MinWealth:          20,
		SettlePopulation:   10,
		SettleCost:         10,
		ConquestRatio:      1.5,
		CivilWarBonus:      1.5,
		PopulationKept:     0.5,
		WealthLooted:       0.5,
		InfraKept:          0.7,
		GenocideAggression: 0.7,
		ConquestChaos:      0.5,
		RaidChance:         0.02,
		RaidProbes:         32,
		RaidMinWealth:      50,
		RaidMaxDefense:     2,
		RaidShare:          0.3,
		RaidChaos:          0.3,
	}
}

// LogisticsParams tunes production, upkeep and trade.
type LogisticsParams struct {
	Forest   float32 `yaml:"forest"`
	Mountain float32 `yaml:"mountain"`
	Plains   float32 `yaml:"plains"`
	Other    float32 `yaml:"other"`

	// InfraBonus is the production gain per infrastructure level.
	InfraBonus float32 `yaml:"infra_bonus"`
	// Upkeep is the wealth consumed per head each tick.
	Upkeep float32 `yaml:"upkeep"`
	// InfraThreshold is the wealth above which InfraCost buys a level.
	InfraThreshold float32 `yaml:"infra_threshold"`
	InfraCost      float32 `yaml:"infra_cost"`
	// TradeShare is the fraction of wealth a cell sends to each richer-
	// infrastructure neighbour.
	TradeShare float32 `yaml:"trade_share"`
}

// DefaultLogistics returns the standard economy.
func DefaultLogistics() LogisticsParams {
	return LogisticsParams{
		Forest:         0.2,
		Mountain:       0.3,
		Plains:         0.15,
		Other:          0.05,
		InfraBonus:     0.1,
		Upkeep:         0.001,
		InfraThreshold: 100,
		InfraCost:      50,
		TradeShare:     0.1,
	}
}

// Production returns the base wealth a cell of biome b yields per tick.
func (p LogisticsParams) Production(b world.Biome) float32 {
	switch b {
	case world.BiomeOcean:
		return 0
	case world.BiomeForest:
		return p.Forest
	case world.BiomeMountain:
		return p.Mountain
	case world.BiomePlains:
		return p.Plains
	case world.BiomeBeach, world.BiomeHills, world.BiomeDesert, world.BiomeTundra:
		return p.Other
	default:
		return p.Other
	}
}
