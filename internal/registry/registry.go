package registry

import "fmt"

// Registry bundles the tables a session borrows during a tick.
type Registry struct {
	Species   *SpeciesTable
	Factions  *Factions
	Resources Resources
}

// Default returns the built-in species and resources with no factions.
func Default() *Registry {
	return &Registry{
		Species:   NewSpeciesTable(DefaultSpecies()),
		Factions:  NewFactions(),
		Resources: DefaultResources(),
	}
}

// SpeciesDef is the file form of a species, with resources named instead of
// indexed.
type SpeciesDef struct {
	Name string      `yaml:"name"`
	Type SpeciesType `yaml:"type"`

	IdealTemp float32 `yaml:"ideal_temp"`
	MinTemp   float32 `yaml:"min_temp"`
	MaxTemp   float32 `yaml:"max_temp"`

	IdealMoisture float32 `yaml:"ideal_moisture"`
	MinMoisture   float32 `yaml:"min_moisture"`
	MaxMoisture   float32 `yaml:"max_moisture"`

	Resilience    float32 `yaml:"resilience"`
	Aggression    float32 `yaml:"aggression"`
	Sociality     float32 `yaml:"sociality"`
	ExpansionRate float32 `yaml:"expansion_rate"`

	Diet   map[string]float32 `yaml:"diet"`
	Output map[string]float32 `yaml:"output"`
	Cap    int32              `yaml:"cap"`
}

// Species resolves resource names against res.
func (d SpeciesDef) Species(res Resources) (Species, error) {
	diet, err := res.Inventory(d.Diet)
	if err != nil {
		return Species{}, fmt.Errorf("species %s diet: %w", d.Name, err)
	}
	output, err := res.Inventory(d.Output)
	if err != nil {
		return Species{}, fmt.Errorf("species %s output: %w", d.Name, err)
	}
	return Species{
		Name:          d.Name,
		Type:          d.Type,
		IdealTemp:     d.IdealTemp,
		MinTemp:       d.MinTemp,
		MaxTemp:       d.MaxTemp,
		IdealMoisture: d.IdealMoisture,
		MinMoisture:   d.MinMoisture,
		MaxMoisture:   d.MaxMoisture,
		Resilience:    d.Resilience,
		Aggression:    d.Aggression,
		Sociality:     d.Sociality,
		ExpansionRate: d.ExpansionRate,
		Diet:          diet,
		Output:        output,
		Cap:           d.Cap,
	}, nil
}

// FromDefs builds a registry from file definitions. An empty list keeps the
// built-in roster.
func FromDefs(defs []SpeciesDef) (*Registry, error) {
	r := Default()
	if len(defs) == 0 {
		return r, nil
	}
	list := make([]Species, 0, len(defs))
	for _, d := range defs {
		s, err := d.Species(r.Resources)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	r.Species = NewSpeciesTable(list)
	return r, nil
}
