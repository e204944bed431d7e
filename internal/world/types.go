package world

import (
	"fmt"
	"strings"
)

// Feature is a bitset of independently toggleable world subsystems.
type Feature uint16

const (
	FeatureTerrain Feature = 1 << iota
	FeatureClimate
	FeatureHydrology
	FeatureBiology
	FeatureFactions
	FeatureConflict
	FeatureChaos

	FeatureAll = FeatureTerrain | FeatureClimate | FeatureHydrology | FeatureBiology |
		FeatureFactions | FeatureConflict | FeatureChaos
)

var featureNames = []struct {
	f    Feature
	name string
}{
	{FeatureTerrain, "terrain"},
	{FeatureClimate, "climate"},
	{FeatureHydrology, "hydrology"},
	{FeatureBiology, "biology"},
	{FeatureFactions, "factions"},
	{FeatureConflict, "conflict"},
	{FeatureChaos, "chaos"},
}

func (f Feature) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range featureNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFeature reads a "|" or "," separated list of feature names. "all" and
// "none" are accepted as shorthands.
func ParseFeature(s string) (Feature, error) {
	var f Feature
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "", "none":
			continue
		case "all":
			f |= FeatureAll
			continue
		}
		found := false
		for _, fn := range featureNames {
			if fn.name == name {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("world: unknown feature %q", name)
		}
	}
	return f, nil
}

func (f Feature) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Feature) UnmarshalText(b []byte) error {
	parsed, err := ParseFeature(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Tier is the ordinal settlement stage of a cell. It never decreases.
type Tier uint8

const (
	TierWild Tier = iota
	TierTribe
	TierVillage
	TierTown
	TierCity
)

func (t Tier) String() string {
	switch t {
	case TierWild:
		return "wild"
	case TierTribe:
		return "tribe"
	case TierVillage:
		return "village"
	case TierTown:
		return "town"
	case TierCity:
		return "city"
	default:
		return "unknown"
	}
}

// Building identifies the single structure a cell may hold. The numeric values
// are part of the snapshot format.
type Building uint8

const (
	BuildingNone Building = iota
	BuildingStronghold
	BuildingQuarry
	BuildingLoggingCamp
)

func (b Building) String() string {
	switch b {
	case BuildingNone:
		return "none"
	case BuildingStronghold:
		return "stronghold"
	case BuildingQuarry:
		return "quarry"
	case BuildingLoggingCamp:
		return "logging_camp"
	default:
		return "unknown"
	}
}

// Biome is the derived land class of a cell.
type Biome uint8

const (
	BiomeOcean Biome = iota
	BiomeBeach
	BiomePlains
	BiomeForest
	BiomeHills
	BiomeMountain
	BiomeDesert
	BiomeTundra
)

func (b Biome) String() string {
	switch b {
	case BiomeOcean:
		return "ocean"
	case BiomeBeach:
		return "beach"
	case BiomePlains:
		return "plains"
	case BiomeForest:
		return "forest"
	case BiomeHills:
		return "hills"
	case BiomeMountain:
		return "mountain"
	case BiomeDesert:
		return "desert"
	case BiomeTundra:
		return "tundra"
	default:
		return "unknown"
	}
}
