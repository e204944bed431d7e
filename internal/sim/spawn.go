package sim

import (
	"fmt"

	"cellworld/internal/config"
	"cellworld/internal/registry"
	"cellworld/internal/world"
	"cellworld/pkg/core"
)

// SpawnStats reports what SpawnCivilization placed.
type SpawnStats struct {
	Wildlife int
	Factions int
}

// suitable reports whether species s tolerates cell i.
func suitable(w *world.World, s *registry.Species, i int) bool {
	temp, moist := s.IdealTemp, s.IdealMoisture
	if w.Temperature != nil {
		temp = w.Temperature[i]
	}
	if w.Moisture != nil {
		moist = w.Moisture[i]
	}
	_, ok := s.BiomeFit(temp, moist)
	return ok && !s.Deadly(temp)
}

// SpawnCivilization stocks land with food, scatters wildlife and founds
// sp.Factions factions on random suitable land cells, cycling through the
// civilized species. Worlds without population fields are left untouched.
func SpawnCivilization(w *world.World, reg *registry.Registry, rng *core.RNG, sp config.Spawn) SpawnStats {
	var st SpawnStats
	if w.Population == nil || reg == nil {
		return st
	}
	land := make([]int, 0, w.N)
	for i := 0; i < w.N; i++ {
		if !w.IsOcean(i) {
			land = append(land, i)
		}
	}
	if len(land) == 0 {
		return st
	}

	all := reg.Species.All()
	var wild, civilized []registry.Species
	for _, s := range all {
		if s.Type == registry.Civilized {
			civilized = append(civilized, s)
		} else {
			wild = append(wild, s)
		}
	}

	for _, i := range land {
		if w.Resources != nil {
			w.Resources[i][registry.Food] = sp.Stock
		}
		if sp.Wildlife <= 0 {
			continue
		}
		for k := range wild {
			s := &wild[k]
			if !rng.Chance(sp.Density) || !suitable(w, s, i) {
				continue
			}
			w.Population[i] = sp.Wildlife
			w.Culture[i] = s.ID
			st.Wildlife++
			break
		}
	}

	if w.Faction == nil || len(civilized) == 0 {
		return st
	}
	for k := 0; k < sp.Factions; k++ {
		s := &civilized[k%len(civilized)]
		for probe := 0; probe < 256; probe++ {
			i := land[rng.IntN(len(land))]
			if w.Faction[i] != registry.Unclaimed || !suitable(w, s, i) {
				continue
			}
			f := reg.Factions.Add(registry.Faction{
				Name:       fmt.Sprintf("%s-%d", s.Name, k+1),
				Culture:    s.ID,
				Aggression: s.Aggression,
			})
			w.Faction[i] = f.ID
			w.Population[i] = sp.Settlers
			w.Culture[i] = s.ID
			if w.Wealth != nil {
				w.Wealth[i] = sp.Wealth
			}
			st.Factions++
			break
		}
	}
	return st
}
