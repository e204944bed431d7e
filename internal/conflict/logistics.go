package conflict

import (
	"cellworld/internal/diffuse"
	"cellworld/internal/graph"
	"cellworld/internal/registry"
	"cellworld/internal/world"
)

// LogisticsStats summarizes one economy pass.
type LogisticsStats struct {
	Produced   float64
	Upkeep     float64
	Traded     float64
	InfraBuilt int
}

// Logistics runs production, upkeep, infrastructure growth and trade.
type Logistics struct {
	Params   LogisticsParams
	Registry *registry.Registry
	Workers  int

	produced []float32
	upkeep   []float32
	built    []bool
	share    []float32
	delta    []float32
}

// Apply runs one economy tick.
func (l *Logistics) Apply(w *world.World, g *graph.Graph) LogisticsStats {
	var st LogisticsStats
	if w.Wealth == nil || g.Len() != w.N {
		return st
	}
	l.produce(w, &st)
	st.Traded = l.Trade(w, g)
	return st
}

// active reports whether cell i has anyone to work it.
func active(w *world.World, i int) bool {
	if w.Faction != nil && w.Faction[i] != registry.Unclaimed {
		return true
	}
	if w.Population != nil {
		return w.Population[i] > 0
	}
	return true
}

func (l *Logistics) produce(w *world.World, st *LogisticsStats) {
	n := w.N
	l.produced = resize(l.produced, n)
	l.upkeep = resize(l.upkeep, n)
	if len(l.built) != n {
		l.built = make([]bool, n)
	}
	p := l.Params
	diffuse.Parallel(n, l.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			l.produced[i], l.upkeep[i], l.built[i] = 0, 0, false
			if w.IsOcean(i) || !active(w, i) {
				continue
			}
			var infra float32
			if w.Infrastructure != nil {
				infra = w.Infrastructure[i]
			}
			gain := p.Production(w.Biome(i)) * (1 + infra*p.InfraBonus)
			var cost float32
			if w.Population != nil {
				cost = float32(w.Population[i]) * p.Upkeep
			}
			wealth := max(0, w.Wealth[i]+gain-cost)
			if w.Infrastructure != nil && p.InfraCost > 0 && wealth > p.InfraThreshold {
				wealth -= p.InfraCost
				w.Infrastructure[i]++
				l.built[i] = true
			}
			w.Wealth[i] = wealth
			l.produced[i], l.upkeep[i] = gain, cost
		}
	})
	for i := 0; i < n; i++ {
		st.Produced += float64(l.produced[i])
		st.Upkeep += float64(l.upkeep[i])
		if l.built[i] {
			st.InfraBuilt++
		}
	}
}

// speed returns the transport modifier of the faction owning cell i.
func (l *Logistics) speed(w *world.World, i int) float32 {
	if w.Faction == nil || l.Registry == nil {
		return 1
	}
	if f, ok := l.Registry.Factions.Get(w.Faction[i]); ok {
		return f.TransportSpeed
	}
	return 1
}

// Trade moves a share of each cell's wealth to every neighbour with strictly
// higher infrastructure. Flows are computed from the pre-pass wealth into a
// shadow delta and committed after the pass, so total wealth is conserved on
// symmetric graphs. It returns the total wealth moved.
func (l *Logistics) Trade(w *world.World, g *graph.Graph) float64 {
	if w.Wealth == nil || w.Infrastructure == nil || g.Len() != w.N || l.Params.TradeShare <= 0 {
		return 0
	}
	n := w.N
	l.share = resize(l.share, n)
	l.delta = resize(l.delta, n)
	infra := w.Infrastructure

	diffuse.Parallel(n, l.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			higher := 0
			for _, nb := range g.Neighbors(i) {
				if infra[nb] > infra[i] {
					higher++
				}
			}
			s := l.Params.TradeShare * l.speed(w, i)
			if higher > 0 && s*float32(higher) > 1 {
				s = 1 / float32(higher)
			}
			l.share[i] = s
		}
	})
	diffuse.Parallel(n, l.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			var d float32
			for _, nb := range g.Neighbors(i) {
				switch {
				case infra[nb] < infra[i]:
					d += w.Wealth[nb] * l.share[nb]
				case infra[nb] > infra[i]:
					d -= w.Wealth[i] * l.share[i]
				}
			}
			l.delta[i] = d
		}
	})
	var moved float64
	for i := 0; i < n; i++ {
		if l.delta[i] > 0 {
			moved += float64(l.delta[i])
		}
		w.Wealth[i] = max(0, w.Wealth[i]+l.delta[i])
	}
	return moved
}

func resize(s []float32, n int) []float32 {
	if len(s) != n {
		return make([]float32, n)
	}
	return s
}
