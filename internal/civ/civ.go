package civ

import (
	"log/slog"
	"math"

	"cellworld/internal/diffuse"
	"cellworld/internal/events"
	"cellworld/internal/graph"
	"cellworld/internal/registry"
	"cellworld/internal/world"
	"cellworld/pkg/core"
)

// Stats summarizes one population pass.
type Stats struct {
	Population  int64
	Occupied    int
	Starving    int
	Cleared     int
	Migrations  int
	Seeded      int
	Upgrades    int
	Buildings   int
	Anomalies   int
	Extinctions int
}

type move struct {
	from, to int32
	amount   int32
	culture  int32
	// seed marks flora reproduction: the parent keeps its population.
	seed bool
}

// Engine is the population and civilization pass. Metabolism and development
// update each cell in place; migration and reproduction are planned against
// the post-metabolism state and committed once the whole scan is done.
type Engine struct {
	Params   Params
	Registry *registry.Registry
	Events   *events.Emitter
	Logger   *slog.Logger
	Workers  int

	rng *core.RNG

	target  []int32
	amount  []int32
	claimed []int32
	moves   []move
	totals  []int64
	alive   []bool
}

// NewEngine returns an engine drawing randomness from seed.
func NewEngine(p Params, reg *registry.Registry, seed int64) *Engine {
	return &Engine{Params: p, Registry: reg, rng: core.NewRNG(seed)}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) species(id int32) (*registry.Species, bool) {
	if e.Registry == nil {
		return nil, false
	}
	return e.Registry.Species.Get(id)
}

func (e *Engine) capFor(s *registry.Species) int32 {
	if s.Cap > 0 {
		return s.Cap
	}
	return e.Params.SpeciesCap
}

// scale multiplies a head count and rounds down, tolerating float noise so
// that 100*0.95 is 95.
func scale(pop int32, f float64) int32 {
	return int32(math.Floor(float64(pop)*f + 1e-9))
}

func climateAt(w *world.World, s *registry.Species, i int) (temp, moist float32) {
	temp, moist = s.IdealTemp, s.IdealMoisture
	if w.Temperature != nil {
		temp = w.Temperature[i]
	}
	if w.Moisture != nil {
		moist = w.Moisture[i]
	}
	return temp, moist
}

// Desirability scores cell i for species s as if it held pop individuals:
// 2*biomeFit + foodScore - crowding. ok is false when the cell's temperature
// is beyond the species' resilience.
func (e *Engine) Desirability(w *world.World, s *registry.Species, i int, pop int32) (float32, bool) {
	temp, moist := climateAt(w, s, i)
	fit, ok := s.BiomeFit(temp, moist)
	if !ok {
		return 0, false
	}
	var food float32
	if w.Resources != nil {
		inv := &w.Resources[i]
		for r, need := range s.Diet {
			if need > 0 && inv[r] >= need*float32(pop) {
				food++
			}
		}
	}
	var crowd float32
	if limit := e.Params.CrowdingCap; limit > 0 && pop > limit {
		crowd = float32(pop-limit) / float32(limit)
	}
	return 2*fit + food - crowd, true
}

// Apply runs one population tick.
func (e *Engine) Apply(w *world.World, g *graph.Graph, tick uint64) Stats {
	var st Stats
	if w.Population == nil || w.Culture == nil || g.Len() != w.N {
		return st
	}
	if e.rng == nil {
		e.rng = core.NewRNG(1)
	}
	e.forage(w)
	for i := 0; i < w.N; i++ {
		e.metabolize(w, i, tick, &st)
	}
	e.planMigration(w, g)
	e.planSeeding(w, g)
	e.commit(w, &st)
	e.census(w, tick, &st)
	return st
}

// forage regrows wild food on land.
func (e *Engine) forage(w *world.World) {
	if w.Resources == nil || e.Params.ForageRate <= 0 {
		return
	}
	rate, limit := e.Params.ForageRate, e.Params.ForageCap
	diffuse.Parallel(w.N, e.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if w.IsOcean(i) {
				continue
			}
			grow := rate
			if w.Moisture != nil {
				grow *= w.Moisture[i]
			}
			inv := &w.Resources[i]
			if inv[registry.Food] < limit {
				inv[registry.Food] = min(limit, inv[registry.Food]+grow)
			}
		}
	})
}

func (e *Engine) metabolize(w *world.World, i int, tick uint64, st *Stats) {
	culture := w.Culture[i]
	if culture == world.NoCulture {
		if w.Population[i] != 0 {
			w.Population[i] = 0
		}
		return
	}
	s, ok := e.species(culture)
	if !ok {
		st.Anomalies++
		e.logger().Warn("unknown species on cell", "cell", i, "id", culture)
		e.Events.Emitf(tick, events.Anomaly, i, "unknown species %d cleared", culture)
		w.ClearCell(i)
		return
	}
	pop := w.Population[i]
	p := e.Params

	temp, _ := climateAt(w, s, i)
	if s.Deadly(temp) {
		pop = scale(pop, 1-p.DeadlyLoss)
	}

	starving := false
	if w.Resources != nil {
		inv := &w.Resources[i]
		for r, per := range s.Diet {
			if per > 0 && inv[r] < per*float32(pop) {
				starving = true
				break
			}
		}
		for r, per := range s.Diet {
			if per > 0 {
				inv[r] = max(0, inv[r]-per*float32(pop))
			}
		}
		if !starving {
			for r, per := range s.Output {
				if per > 0 {
					inv[r] += per * float32(pop)
				}
			}
		}
	}
	if starving {
		pop = scale(pop, p.StarvationDecay)
	} else if pop > 0 && e.rng.Chance(p.GrowthChance) {
		pop += max(1, scale(pop, p.GrowthRate))
		pop = min(pop, e.capFor(s))
	}
	if w.Starving != nil {
		w.Starving[i] = starving
	}
	if starving {
		st.Starving++
	}

	if pop < 1 {
		w.ClearCell(i)
		st.Cleared++
		return
	}
	w.Population[i] = pop

	if s.Type == registry.Civilized {
		e.develop(w, i, tick, st)
	}
}

// develop advances the settlement tier by at most one step and constructs or
// runs the cell's building.
func (e *Engine) develop(w *world.World, i int, tick uint64, st *Stats) {
	if w.Tier == nil || w.Resources == nil {
		return
	}
	inv := &w.Resources[i]
	pop := w.Population[i]
	if cur := w.Tier[i]; int(cur)+1 < len(tierRules) {
		rule := tierRules[cur+1]
		if pop >= rule.pop && inv[rule.resource] >= rule.reserve {
			next := cur + 1
			w.Tier[i] = next
			st.Upgrades++
			if next == world.TierTribe {
				e.Events.Emitf(tick, events.Settlement, i, "a %s tribe settles", e.speciesName(w.Culture[i]))
			} else {
				e.Events.Emitf(tick, events.TierUp, i, "settlement grows into a %s", next)
			}
		}
	}
	if w.Building == nil {
		return
	}
	switch w.Building[i] {
	case world.BuildingQuarry:
		inv[registry.Stone] += buildingYield
	case world.BuildingLoggingCamp:
		inv[registry.Wood] += buildingYield
	case world.BuildingNone:
		if w.Tier[i] < world.TierVillage {
			return
		}
		b := world.BuildingNone
		switch {
		case inv[registry.Stone] >= strongholdStone && inv[registry.Wood] >= strongholdWood:
			inv[registry.Stone] -= strongholdStone
			inv[registry.Wood] -= strongholdWood
			if w.Defense != nil {
				w.Defense[i] += strongholdGuard
			}
			b = world.BuildingStronghold
		case inv[registry.Wood] >= quarryWood:
			inv[registry.Wood] -= quarryWood
			b = world.BuildingQuarry
		case inv[registry.Stone] >= campStone:
			inv[registry.Stone] -= campStone
			b = world.BuildingLoggingCamp
		}
		if b != world.BuildingNone {
			w.Building[i] = b
			st.Buildings++
			e.Events.Emitf(tick, events.Building, i, "%s built", b)
		}
	case world.BuildingStronghold:
	}
}

func (e *Engine) speciesName(id int32) string {
	if s, ok := e.species(id); ok {
		return s.Name
	}
	return "nameless"
}

// candidate reports whether a population of culture may move into n.
func candidate(w *world.World, culture int32, n int) bool {
	if w.IsOcean(n) {
		return false
	}
	if c := w.Culture[n]; c != world.NoCulture && c != culture {
		return false
	}
	return true
}

// planMigration scores fauna cells above the threshold against their
// neighbours. It only reads the world, so cells are scored in parallel.
func (e *Engine) planMigration(w *world.World, g *graph.Graph) {
	n := w.N
	if len(e.target) != n {
		e.target = make([]int32, n)
		e.amount = make([]int32, n)
	}
	margin := e.Params.MigrationMargin
	diffuse.Parallel(n, e.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			e.target[i] = -1
			e.amount[i] = 0
			culture := w.Culture[i]
			pop := w.Population[i]
			if culture == world.NoCulture || pop <= e.Params.MigrationThreshold {
				continue
			}
			s, ok := e.species(culture)
			if !ok || s.Type != registry.Fauna {
				continue
			}
			cur, ok := e.Desirability(w, s, i, pop)
			if !ok {
				continue
			}
			need := cur + float32(math.Abs(float64(cur)))*(margin-1)
			best, bestScore := -1, need
			for _, nb := range g.Neighbors(i) {
				nbi := int(nb)
				if !candidate(w, culture, nbi) {
					continue
				}
				score, ok := e.Desirability(w, s, nbi, w.Population[nbi])
				if ok && score > bestScore {
					best, bestScore = nbi, score
				}
			}
			if best >= 0 {
				e.target[i] = int32(best)
				e.amount[i] = pop / 2
			}
		}
	})
	e.moves = e.moves[:0]
	for i := 0; i < n; i++ {
		if t := e.target[i]; t >= 0 && e.amount[i] > 0 {
			e.moves = append(e.moves, move{from: int32(i), to: t, amount: e.amount[i], culture: w.Culture[i]})
		}
	}
}

// planSeeding lets flora claim a random empty, suitable neighbour.
func (e *Engine) planSeeding(w *world.World, g *graph.Graph) {
	var options []int32
	for i := 0; i < w.N; i++ {
		culture := w.Culture[i]
		if culture == world.NoCulture {
			continue
		}
		s, ok := e.species(culture)
		if !ok || s.Type != registry.Flora || !e.rng.Chance(float64(s.ExpansionRate)) {
			continue
		}
		options = options[:0]
		for _, nb := range g.Neighbors(i) {
			n := int(nb)
			if w.Culture[n] != world.NoCulture || w.IsOcean(n) {
				continue
			}
			temp, moist := climateAt(w, s, n)
			if _, ok := s.BiomeFit(temp, moist); ok {
				options = append(options, nb)
			}
		}
		if len(options) == 0 {
			continue
		}
		seed := max(1, scale(w.Population[i], e.Params.SeedShare))
		e.moves = append(e.moves, move{
			from: int32(i), to: options[e.rng.IntN(len(options))],
			amount: seed, culture: culture, seed: true,
		})
	}
}

// commit applies planned moves in scan order. A cell claimed this tick by one
// culture refuses arrivals of another.
func (e *Engine) commit(w *world.World, st *Stats) {
	if len(e.claimed) != w.N {
		e.claimed = make([]int32, w.N)
	}
	for i := range e.claimed {
		e.claimed[i] = world.NoCulture
	}
	for _, m := range e.moves {
		if c := e.claimed[m.to]; c != world.NoCulture && c != m.culture {
			continue
		}
		if c := w.Culture[m.to]; c != world.NoCulture && c != m.culture {
			continue
		}
		if !m.seed {
			w.Population[m.from] -= m.amount
		}
		w.Population[m.to] += m.amount
		w.Culture[m.to] = m.culture
		e.claimed[m.to] = m.culture
		if m.seed {
			st.Seeded++
		} else {
			st.Migrations++
		}
	}
}

// census totals population per species and reports extinctions.
func (e *Engine) census(w *world.World, tick uint64, st *Stats) {
	count := 0
	if e.Registry != nil {
		count = e.Registry.Species.Len()
	}
	if len(e.totals) != count {
		e.totals = make([]int64, count)
		e.alive = make([]bool, count)
	}
	clear(e.totals)
	for i := 0; i < w.N; i++ {
		c := w.Culture[i]
		if c == world.NoCulture {
			continue
		}
		st.Occupied++
		st.Population += int64(w.Population[i])
		if int(c) < count {
			e.totals[c] += int64(w.Population[i])
		}
	}
	for id, total := range e.totals {
		if total > 0 {
			e.alive[id] = true
			continue
		}
		if e.alive[id] {
			e.alive[id] = false
			st.Extinctions++
			e.Events.Emitf(tick, events.Extinct, -1, "the %s have died out", e.speciesName(int32(id)))
		}
	}
}

// Totals returns the population per species id from the last pass.
func (e *Engine) Totals() []int64 { return e.totals }

// Drift pulls each species' ideal temperature toward the population-weighted
// mean temperature of the cells it occupies.
func (e *Engine) Drift(w *world.World) {
	if e.Registry == nil || w.Temperature == nil || w.Culture == nil {
		return
	}
	count := e.Registry.Species.Len()
	sum := make([]float64, count)
	weight := make([]float64, count)
	for i := 0; i < w.N; i++ {
		c := w.Culture[i]
		if c < 0 || int(c) >= count {
			continue
		}
		p := float64(w.Population[i])
		sum[c] += float64(w.Temperature[i]) * p
		weight[c] += p
	}
	for id := range sum {
		if weight[id] > 0 {
			e.Registry.Species.Drift(int32(id), float32(sum[id]/weight[id]), e.Params.DriftRate)
		}
	}
}
