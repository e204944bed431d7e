// Package civ grows, starves, moves and develops the populations living on
// each cell.
package civ

import "cellworld/internal/registry"

// Params tunes the population engine.
type Params struct {
	// CrowdingCap is the population above which desirability falls off.
	CrowdingCap int32 `yaml:"crowding_cap"`
	// SpeciesCap bounds a cell's population when the species sets no cap.
	SpeciesCap int32 `yaml:"species_cap"`

	MigrationThreshold int32 `yaml:"migration_threshold"`
	// MigrationMargin is the relative score gain a neighbour must offer.
	MigrationMargin float32 `yaml:"migration_margin"`

	StarvationDecay float64 `yaml:"starvation_decay"`
	GrowthChance    float64 `yaml:"growth_chance"`
	GrowthRate      float64 `yaml:"growth_rate"`
	// DeadlyLoss is the share of population lost per tick outside deadly bounds.
	DeadlyLoss float64 `yaml:"deadly_loss"`
	// SeedShare is the fraction of a flora parent used to seed a new cell.
	SeedShare float64 `yaml:"seed_share"`

	// ForageRate is the food that regrows on land per tick at full moisture.
	ForageRate float32 `yaml:"forage_rate"`
	ForageCap  float32 `yaml:"forage_cap"`

	// DriftRate is the monthly pull of a species' ideal temperature toward
	// the climate it actually lives in.
	DriftRate float32 `yaml:"drift_rate"`
}

// DefaultParams returns the standard population settings.
func DefaultParams() Params {
	return Params{
		CrowdingCap:        500,
		SpeciesCap:         5000,
		MigrationThreshold: 100,
		MigrationMargin:    1.10,
		StarvationDecay:    0.95,
		GrowthChance:       0.3,
		GrowthRate:         0.05,
		DeadlyLoss:         0.1,
		SeedShare:          0.1,
		ForageRate:         0.5,
		ForageCap:          200,
		DriftRate:          0.01,
	}
}

// Tier requirements. Each step needs a population floor and a reserve.
var tierRules = [...]struct {
	pop      int32
	resource int
	reserve  float32
}{
	1: {pop: 20},
	2: {pop: 100, resource: registry.Food, reserve: 50},
	3: {pop: 500, resource: registry.Stone, reserve: 100},
	4: {pop: 2000, resource: registry.Stone, reserve: 400},
}

// Building costs and yields.
const (
	strongholdStone = 80
	strongholdWood  = 40
	strongholdGuard = 5
	quarryWood      = 30
	campStone       = 10
	buildingYield   = 2
)
