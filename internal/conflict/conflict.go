package conflict

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/kamstrup/intmap"

	"cellworld/internal/diffuse"
	"cellworld/internal/events"
	"cellworld/internal/graph"
	"cellworld/internal/registry"
	"cellworld/internal/world"
	"cellworld/pkg/core"
)

// Stats summarizes one expansion pass.
type Stats struct {
	Attackers int
	Settled   int
	Conquests int
	Repelled  int
	NewWars   int
	Anomalies int
}

// Tally is the territory and population held by one faction.
type Tally struct {
	Faction    int32
	Cells      int
	Population int64
	Wealth     float64
}

// Engine resolves faction expansion. Ownership is read from the tick-start
// faction field and every change is written to a shadow copy that replaces it
// once the whole scan has finished, so a conquest never chains within a pass.
type Engine struct {
	Params   Params
	Registry *registry.Registry
	Events   *events.Emitter
	Logger   *slog.Logger

	rng *core.RNG

	shadow   []int32
	captured []bool
	tallies  *intmap.Map[int32, *Tally]
}

// NewEngine returns a conflict engine drawing raid randomness from seed.
func NewEngine(p Params, reg *registry.Registry, seed int64) *Engine {
	return &Engine{
		Params:   p,
		Registry: reg,
		rng:      core.NewRNG(seed),
		tallies:  intmap.New[int32, *Tally](16),
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) faction(id int32) (*registry.Faction, bool) {
	if e.Registry == nil {
		return nil, false
	}
	return e.Registry.Factions.Get(id)
}

// AttackPower is pop*(1+wealth/100)*(0.5+aggression).
func AttackPower(pop int32, wealth, aggression float32) float32 {
	return float32(pop) * (1 + wealth/100) * (0.5 + aggression)
}

// DefenseScore is pop*(1+infrastructure*0.1)*terrain + defense for cell i.
func DefenseScore(w *world.World, i int) float32 {
	var pop, infra, guard float32
	if w.Population != nil {
		pop = float32(w.Population[i])
	}
	if w.Infrastructure != nil {
		infra = w.Infrastructure[i]
	}
	if w.Defense != nil {
		guard = w.Defense[i]
	}
	return pop*(1+infra*0.1)*world.TerrainDefenseBonus(w.Biome(i)) + guard
}

// targetScore rates cell t for an attacker of the given culture.
func (e *Engine) targetScore(w *world.World, culture int32, t int, power float32) float32 {
	var fit float32
	if e.Registry != nil {
		if s, ok := e.Registry.Species.Get(culture); ok {
			temp, moist := s.IdealTemp, s.IdealMoisture
			if w.Temperature != nil {
				temp = w.Temperature[t]
			}
			if w.Moisture != nil {
				moist = w.Moisture[t]
			}
			fit, _ = s.BiomeFit(temp, moist)
		}
	}
	var bonus float32
	if w.Resources != nil {
		for _, v := range w.Resources[t] {
			bonus += v
		}
		bonus = min(1, bonus/100)
	}
	score := fit + bonus
	if w.Chaos != nil {
		score -= w.Chaos[t] * 0.5
	}
	if w.Defense != nil && w.Defense[t] > power*0.5 && score > 0 {
		score *= 0.5
	}
	return score
}

// Expand runs one territorial pass.
func (e *Engine) Expand(w *world.World, g *graph.Graph, tick uint64) Stats {
	var st Stats
	if w.Faction == nil || w.Population == nil || w.Wealth == nil || g.Len() != w.N {
		return st
	}
	if e.rng == nil {
		e.rng = core.NewRNG(1)
	}
	n := w.N
	if len(e.shadow) != n {
		e.shadow = make([]int32, n)
		e.captured = make([]bool, n)
	}
	copy(e.shadow, w.Faction)
	clear(e.captured)
	p := e.Params

	for i := 0; i < n; i++ {
		owner := w.Faction[i]
		if owner == registry.Unclaimed || e.captured[i] {
			continue
		}
		f, ok := e.faction(owner)
		if !ok {
			st.Anomalies++
			e.logger().Warn("unknown faction on cell", "cell", i, "id", owner)
			e.Events.Emitf(tick, events.Anomaly, i, "unknown faction %d cleared", owner)
			e.shadow[i] = registry.Unclaimed
			continue
		}
		if w.Population[i] < p.MinPopulation || w.Wealth[i] < p.MinWealth {
			continue
		}
		st.Attackers++
		culture := world.NoCulture
		if w.Culture != nil {
			culture = w.Culture[i]
		}
		power := AttackPower(w.Population[i], w.Wealth[i], f.Aggression)

		best := -1
		var bestScore float32
		for _, nb := range g.Neighbors(i) {
			t := int(nb)
			if w.IsOcean(t) || w.Faction[t] == owner || e.captured[t] {
				continue
			}
			if s := e.targetScore(w, culture, t, power); best < 0 || s > bestScore {
				best, bestScore = t, s
			}
		}
		if best < 0 {
			continue
		}
		if w.Faction[best] == registry.Unclaimed {
			e.settle(w, i, best, owner, culture, tick)
			st.Settled++
			continue
		}
		e.attack(w, i, best, f, culture, power, tick, &st)
	}

	w.Faction, e.shadow = e.shadow, w.Faction
	e.tally(w)
	return st
}

func (e *Engine) settle(w *world.World, from, to int, owner, culture int32, tick uint64) {
	p := e.Params
	e.shadow[to] = owner
	e.captured[to] = true
	if w.Culture != nil && w.Culture[to] != culture {
		w.Population[to] = 0
		w.Culture[to] = culture
	}
	w.Population[to] += p.SettlePopulation
	w.Population[from] -= p.SettlePopulation
	w.Wealth[from] = max(0, w.Wealth[from]-p.SettleCost)
	e.Events.Emitf(tick, events.Settlement, to, "faction %d settles new land", owner)
}

func (e *Engine) attack(w *world.World, from, to int, f *registry.Faction, culture int32, power float32, tick uint64, st *Stats) {
	p := e.Params
	defender := w.Faction[to]
	sameCulture := w.Culture != nil && culture != world.NoCulture && w.Culture[to] == culture
	if sameCulture {
		power *= p.CivilWarBonus
	}
	if power <= p.ConquestRatio*DefenseScore(w, to) {
		st.Repelled++
		return
	}
	st.Conquests++
	e.shadow[to] = f.ID
	e.captured[to] = true

	w.Population[to] = int32(float64(w.Population[to]) * p.PopulationKept)
	loot := w.Wealth[to] * p.WealthLooted
	w.Wealth[to] -= loot
	w.Wealth[from] += loot
	if w.Infrastructure != nil {
		w.Infrastructure[to] *= p.InfraKept
	}
	if w.Culture != nil && f.Aggression > p.GenocideAggression && culture != world.NoCulture {
		w.Culture[to] = culture
	}
	if w.Population[to] < 1 && w.Culture != nil {
		w.Culture[to] = world.NoCulture
	}
	diffuse.Inject(w, to, p.ConquestChaos)

	kind := "conquers"
	if sameCulture {
		kind = "wins a civil war over"
	}
	e.Events.Emitf(tick, events.Conquest, to, "faction %d %s the land of faction %d", f.ID, kind, defender)
	if e.Registry != nil && e.Registry.Factions.DeclareWar(f.ID, defender) {
		st.NewWars++
		e.Events.Emitf(tick, events.War, to, "faction %d and faction %d are at war", f.ID, defender)
	}
}

// Raid rolls for a bandit attack on a random wealthy, poorly defended cell
// and reports the cell hit, or -1.
func (e *Engine) Raid(w *world.World, tick uint64) int {
	if w.Wealth == nil || w.N == 0 {
		return -1
	}
	if e.rng == nil {
		e.rng = core.NewRNG(1)
	}
	p := e.Params
	if !e.rng.Chance(p.RaidChance) {
		return -1
	}
	for probe := 0; probe < p.RaidProbes; probe++ {
		i := e.rng.IntN(w.N)
		if w.Wealth[i] < p.RaidMinWealth {
			continue
		}
		if w.Defense != nil && w.Defense[i] >= p.RaidMaxDefense {
			continue
		}
		stolen := w.Wealth[i] * p.RaidShare
		w.Wealth[i] -= stolen
		diffuse.Inject(w, i, p.RaidChaos)
		e.Events.Emitf(tick, events.Raid, i, "bandits steal %.1f wealth", stolen)
		return i
	}
	return -1
}

// tally refreshes per-faction territory totals.
func (e *Engine) tally(w *world.World) {
	if e.tallies == nil {
		e.tallies = intmap.New[int32, *Tally](16)
	}
	e.tallies.Clear()
	for i, id := range w.Faction {
		if id == registry.Unclaimed {
			continue
		}
		t, ok := e.tallies.Get(id)
		if !ok {
			t = &Tally{Faction: id}
			e.tallies.Put(id, t)
		}
		t.Cells++
		t.Population += int64(w.Population[i])
		t.Wealth += float64(w.Wealth[i])
	}
}

// Territory returns the tallies from the last pass ordered by faction id.
func (e *Engine) Territory() []Tally {
	if e.tallies == nil {
		return nil
	}
	out := make([]Tally, 0, e.tallies.Len())
	e.tallies.ForEach(func(_ int32, t *Tally) bool {
		out = append(out, *t)
		return true
	})
	slices.SortFunc(out, func(a, b Tally) int { return cmp.Compare(a.Faction, b.Faction) })
	return out
}

// Claim assigns cell i to faction id outside of a pass, used when spawning.
func Claim(w *world.World, i int, id int32) {
	if w.Faction == nil || i < 0 || i >= w.N {
		return
	}
	w.Faction[i] = id
}
