package registry

import (
	"fmt"

	"cellworld/internal/world"
)

// Built-in resource ids. They index world.Inventory.
const (
	Food = iota
	Wood
	Stone
	Ore
	Gold
)

// Resources maps resource ids to names.
type Resources []string

// DefaultResources returns the names of the built-in resource ids.
func DefaultResources() Resources {
	return Resources{"food", "wood", "stone", "ore", "gold"}
}

// ID returns the id for name.
func (r Resources) ID(name string) (int, bool) {
	for i, n := range r {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Name returns the resource name for id, or "" when out of range.
func (r Resources) Name(id int) string {
	if id < 0 || id >= len(r) {
		return ""
	}
	return r[id]
}

// Inventory converts a name-keyed amount map into an id-indexed inventory.
func (r Resources) Inventory(amounts map[string]float32) (world.Inventory, error) {
	var inv world.Inventory
	for name, v := range amounts {
		id, ok := r.ID(name)
		if !ok || id >= world.MaxResources {
			return inv, fmt.Errorf("registry: unknown resource %q", name)
		}
		inv[id] = v
	}
	return inv, nil
}
