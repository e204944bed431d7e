// Package registry holds the species, faction and resource tables that the
// simulation indexes into by id.
package registry

import (
	"fmt"
	"math"

	"cellworld/internal/world"
)

// SpeciesType selects which population rules apply to a species.
type SpeciesType uint8

const (
	Flora SpeciesType = iota
	Fauna
	Civilized
)

func (t SpeciesType) String() string {
	switch t {
	case Flora:
		return "flora"
	case Fauna:
		return "fauna"
	case Civilized:
		return "civilized"
	default:
		return "unknown"
	}
}

// UnmarshalText accepts the lowercase type names.
func (t *SpeciesType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "flora":
		*t = Flora
	case "fauna":
		*t = Fauna
	case "civilized":
		*t = Civilized
	default:
		return fmt.Errorf("registry: unknown species type %q", b)
	}
	return nil
}

// MarshalText writes the lowercase type name.
func (t SpeciesType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Species is a static registry entry. Diet and Output are indexed by resource id
// and hold the per-capita amount consumed or produced each tick.
type Species struct {
	ID   int32
	Name string
	Type SpeciesType

	IdealTemp float32
	// MinTemp and MaxTemp are the deadly bounds.
	MinTemp float32
	MaxTemp float32

	IdealMoisture float32
	// MinMoisture == MaxMoisture disables the moisture term.
	MinMoisture float32
	MaxMoisture float32

	Resilience    float32
	Aggression    float32
	Sociality     float32
	ExpansionRate float32

	Diet   world.Inventory
	Output world.Inventory

	// Cap bounds the population of a single cell. Zero uses the engine default.
	Cap int32
}

// HasMoisture reports whether the species defines moisture bounds.
func (s *Species) HasMoisture() bool { return s.MaxMoisture > s.MinMoisture }

// Deadly reports whether temp lies outside the survivable range.
func (s *Species) Deadly(temp float32) bool {
	if s.MaxTemp <= s.MinTemp {
		return false
	}
	return temp < s.MinTemp || temp > s.MaxTemp
}

// BiomeFit scores how well a cell suits the species in [0, 1]. A temperature
// difference beyond resilience makes the cell unsuitable and returns ok=false.
func (s *Species) BiomeFit(temp, moisture float32) (fit float32, ok bool) {
	res := s.Resilience
	if res <= 0 {
		res = 1e-6
	}
	diff := float32(math.Abs(float64(temp - s.IdealTemp)))
	if diff > res {
		return 0, false
	}
	fit = 1 - diff/res
	if s.HasMoisture() {
		span := (s.MaxMoisture - s.MinMoisture) / 2
		m := 1 - float32(math.Abs(float64(moisture-s.IdealMoisture)))/span
		fit = (fit + max(0, m)) / 2
	}
	return max(0, fit), true
}

// SpeciesTable is an id-indexed, read-mostly list of species.
type SpeciesTable struct {
	list []Species
}

// NewSpeciesTable assigns ids in slice order.
func NewSpeciesTable(defs []Species) *SpeciesTable {
	t := &SpeciesTable{list: make([]Species, len(defs))}
	copy(t.list, defs)
	for i := range t.list {
		t.list[i].ID = int32(i)
	}
	return t
}

// Len returns the number of species.
func (t *SpeciesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.list)
}

// Get returns the species for id. Out-of-range ids report false.
func (t *SpeciesTable) Get(id int32) (*Species, bool) {
	if t == nil || id < 0 || int(id) >= len(t.list) {
		return nil, false
	}
	return &t.list[id], true
}

// ByName looks a species up by name.
func (t *SpeciesTable) ByName(name string) (*Species, bool) {
	for i := range t.Len() {
		if t.list[i].Name == name {
			return &t.list[i], true
		}
	}
	return nil, false
}

// All returns the borrowed species list.
func (t *SpeciesTable) All() []Species {
	if t == nil {
		return nil
	}
	return t.list
}

// Drift moves the ideal temperature of species id a fraction rate toward target.
func (t *SpeciesTable) Drift(id int32, target, rate float32) {
	s, ok := t.Get(id)
	if !ok {
		return
	}
	s.IdealTemp += (target - s.IdealTemp) * rate
}

// DefaultSpecies returns the built-in roster.
func DefaultSpecies() []Species {
	return []Species{
		{
			Name: "grass", Type: Flora,
			IdealTemp: 0.5, MinTemp: 0.05, MaxTemp: 0.95,
			IdealMoisture: 0.6, MinMoisture: 0.2, MaxMoisture: 1,
			Resilience: 0.4, ExpansionRate: 0.2,
			Output: world.Inventory{Food: 0.01},
			Cap:    1000,
		},
		{
			Name: "forest", Type: Flora,
			IdealTemp: 0.45, MinTemp: 0.1, MaxTemp: 0.85,
			IdealMoisture: 0.75, MinMoisture: 0.4, MaxMoisture: 1,
			Resilience: 0.3, ExpansionRate: 0.05,
			Output: world.Inventory{Wood: 0.02},
			Cap:    500,
		},
		{
			Name: "deer", Type: Fauna,
			IdealTemp: 0.45, MinTemp: 0.05, MaxTemp: 0.9,
			Resilience: 0.35, Sociality: 0.6, ExpansionRate: 0.1,
			Diet: world.Inventory{Food: 0.001},
			Cap:  2000,
		},
		{
			Name: "humans", Type: Civilized,
			IdealTemp: 0.55, MinTemp: 0.05, MaxTemp: 0.95,
			Resilience: 0.45, Aggression: 0.5, Sociality: 0.8, ExpansionRate: 0.1,
			Diet:   world.Inventory{Food: 0.0005},
			Output: world.Inventory{Food: 0.002, Wood: 0.0005, Stone: 0.0003, Ore: 0.0001},
		},
		{
			Name: "highlanders", Type: Civilized,
			IdealTemp: 0.35, MinTemp: 0.02, MaxTemp: 0.8,
			Resilience: 0.4, Aggression: 0.8, Sociality: 0.6, ExpansionRate: 0.1,
			Diet:   world.Inventory{Food: 0.0005},
			Output: world.Inventory{Food: 0.0015, Stone: 0.0008, Ore: 0.0003},
		},
	}
}
