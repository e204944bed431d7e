package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellworld/internal/diffuse"
	"cellworld/internal/events"
	"cellworld/internal/graph"
	"cellworld/internal/registry"
	"cellworld/internal/world"
)

func conflictWorld(n int) (*world.World, *graph.Graph) {
	w := world.New(n)
	w.Enable(world.FeatureBiology | world.FeatureConflict | world.FeatureChaos)
	return w, graph.Line(n)
}

func withFactions(aggression ...float32) *registry.Registry {
	reg := registry.Default()
	for _, a := range aggression {
		reg.Factions.Add(registry.Faction{Aggression: a})
	}
	return reg
}

func TestSettleUnclaimedNeighbour(t *testing.T) {
	w, g := conflictWorld(2)
	w.Faction[0], w.Population[0], w.Wealth[0], w.Culture[0] = 1, 100, 50, 3
	e := NewEngine(DefaultParams(), withFactions(0.5), 1)

	st := e.Expand(w, g, 0)

	assert.Equal(t, 1, st.Settled)
	assert.Equal(t, int32(1), w.Faction[1])
	assert.Equal(t, int32(10), w.Population[1])
	assert.Equal(t, int32(3), w.Culture[1])
	assert.Equal(t, int32(90), w.Population[0])
	assert.InDelta(t, 40, w.Wealth[0], 1e-6)
	assert.Equal(t, []Tally{{Faction: 1, Cells: 2, Population: 100, Wealth: 40}}, e.Territory())
}

func TestGatesKeepWeakCellsHome(t *testing.T) {
	w, g := conflictWorld(2)
	w.Faction[0], w.Population[0], w.Wealth[0] = 1, 40, 500
	e := NewEngine(DefaultParams(), withFactions(0.5), 1)

	st := e.Expand(w, g, 0)

	assert.Zero(t, st.Attackers)
	assert.Equal(t, registry.Unclaimed, w.Faction[1])
}

func TestConquest(t *testing.T) {
	sink := &events.MemorySink{}
	em := events.NewEmitter(sink, 16, nil)
	w, g := conflictWorld(2)
	w.Faction[0], w.Population[0], w.Wealth[0], w.Culture[0] = 1, 1000, 100, 0
	w.Faction[1], w.Population[1], w.Wealth[1], w.Culture[1] = 2, 100, 40, 1
	w.Infrastructure[1] = 2
	reg := withFactions(0.8, 0.2)
	e := NewEngine(DefaultParams(), reg, 1)
	e.Events = em

	st := e.Expand(w, g, 5)
	em.Close()

	require.Equal(t, 1, st.Conquests)
	assert.Equal(t, int32(1), w.Faction[1])
	assert.Equal(t, int32(50), w.Population[1])
	assert.InDelta(t, 20, w.Wealth[1], 1e-6)
	assert.InDelta(t, 120, w.Wealth[0], 1e-6, "half the defender's wealth is looted")
	assert.InDelta(t, 1.4, w.Infrastructure[1], 1e-6)
	assert.Equal(t, int32(0), w.Culture[1], "aggressive conquerors replace the culture")
	assert.InDelta(t, 0.5, w.Chaos[1], 1e-6)
	assert.Equal(t, registry.War, reg.Factions.Relation(1, 2))
	assert.Equal(t, 1, st.NewWars)
	assert.Equal(t, 1, sink.Count(events.Conquest))
	assert.Equal(t, 1, sink.Count(events.War))
}

func TestAssimilationKeepsCulture(t *testing.T) {
	w, g := conflictWorld(2)
	w.Faction[0], w.Population[0], w.Wealth[0], w.Culture[0] = 1, 1000, 100, 0
	w.Faction[1], w.Population[1], w.Wealth[1], w.Culture[1] = 2, 100, 40, 1
	e := NewEngine(DefaultParams(), withFactions(0.4, 0.2), 1)

	e.Expand(w, g, 0)

	assert.Equal(t, int32(1), w.Faction[1])
	assert.Equal(t, int32(1), w.Culture[1])
}

func TestMountainDefenderRepels(t *testing.T) {
	w, g := conflictWorld(2)
	w.Enable(world.FeatureTerrain)
	w.Height[0], w.Height[1] = 0.1, 0.6
	w.Faction[0], w.Population[0], w.Wealth[0] = 1, 100, 20
	w.Faction[1], w.Population[1] = 2, 50
	e := NewEngine(DefaultParams(), withFactions(0.5, 0.5), 1)

	// power 100*1.2*1.0 = 120 against 50*3 = 150 on the mountain.
	st := e.Expand(w, g, 0)

	assert.Equal(t, 1, st.Repelled)
	assert.Equal(t, int32(2), w.Faction[1])
	assert.Equal(t, int32(50), w.Population[1])

	w.Height[1] = 0.1
	st = e.Expand(w, g, 1)
	assert.Equal(t, 1, st.Conquests, "the same force takes the cell on flat ground")
}

func TestCivilWarBonus(t *testing.T) {
	w, g := conflictWorld(2)
	w.Faction[0], w.Population[0], w.Wealth[0], w.Culture[0] = 1, 100, 20, 0
	w.Faction[1], w.Population[1], w.Culture[1] = 2, 100, 0
	e := NewEngine(DefaultParams(), withFactions(0.5, 0.5), 1)

	// 120 is not above 1.5*100 = 150 without help; the 50% bonus makes it 180.
	st := e.Expand(w, g, 0)

	assert.Equal(t, 1, st.Conquests)
}

func TestCaptureAtMostOncePerPass(t *testing.T) {
	w, g := conflictWorld(3)
	w.Faction[0], w.Population[0], w.Wealth[0] = 1, 1000, 100
	w.Faction[1], w.Population[1], w.Wealth[1] = 2, 100, 40
	w.Faction[2], w.Population[2], w.Wealth[2] = 1, 1000, 100
	e := NewEngine(DefaultParams(), withFactions(0.5, 0.5), 1)

	st := e.Expand(w, g, 0)

	assert.Equal(t, 1, st.Conquests)
	assert.Equal(t, int32(50), w.Population[1], "losses apply once")
	assert.InDelta(t, 20, w.Wealth[1], 1e-6)
	assert.InDelta(t, 100, w.Wealth[2], 1e-6, "the second attacker finds no target")
}

func TestCapturedCellIsNotAForwardBase(t *testing.T) {
	w, g := conflictWorld(3)
	w.Faction[0], w.Population[0], w.Wealth[0] = 1, 10000, 100
	w.Faction[1], w.Population[1], w.Wealth[1] = 2, 200, 100
	w.Faction[2], w.Population[2], w.Wealth[2] = 3, 10, 0
	e := NewEngine(DefaultParams(), withFactions(0.9, 0.5, 0.5), 1)

	e.Expand(w, g, 0)

	assert.Equal(t, int32(1), w.Faction[1])
	assert.Equal(t, int32(3), w.Faction[2], "conquest does not chain within one pass")

	e.Expand(w, g, 1)
	assert.Equal(t, int32(1), w.Faction[2], "the next pass may push on")
}

func TestChaosAndDefenseShapeTargets(t *testing.T) {
	w, g := conflictWorld(3)
	w.Faction[1], w.Population[1], w.Wealth[1] = 1, 100, 50
	w.Chaos[0] = 1
	e := NewEngine(DefaultParams(), withFactions(0.5), 1)

	e.Expand(w, g, 0)

	assert.Equal(t, registry.Unclaimed, w.Faction[0], "chaotic land is avoided")
	assert.Equal(t, int32(1), w.Faction[2])
}

func TestUnknownFactionIsCleared(t *testing.T) {
	w, g := conflictWorld(2)
	w.Faction[0], w.Population[0], w.Wealth[0] = 9, 500, 500
	e := NewEngine(DefaultParams(), withFactions(0.5), 1)

	st := e.Expand(w, g, 0)

	assert.Equal(t, 1, st.Anomalies)
	assert.Equal(t, registry.Unclaimed, w.Faction[0])
	assert.Equal(t, registry.Unclaimed, w.Faction[1])
}

func TestRaid(t *testing.T) {
	w, _ := conflictWorld(1)
	w.Wealth[0] = 100
	p := DefaultParams()
	p.RaidChance = 1
	e := NewEngine(p, nil, 1)

	assert.Equal(t, 0, e.Raid(w, 0))
	assert.InDelta(t, 70, w.Wealth[0], 1e-5)
	assert.InDelta(t, 0.3, w.Chaos[0], 1e-6)

	w.Defense[0] = 5
	assert.Equal(t, -1, e.Raid(w, 1), "defended cells are left alone")

	p.RaidChance = 0
	e.Params = p
	w.Defense[0] = 0
	assert.Equal(t, -1, e.Raid(w, 2))
}

func TestProductionUpkeepAndInfrastructure(t *testing.T) {
	w, g := conflictWorld(2)
	w.Population[0] = 100
	l := &Logistics{Params: DefaultLogistics()}

	st := l.Apply(w, g)

	assert.InDelta(t, 0.05, w.Wealth[0], 1e-6, "plains yield 0.15 against 0.1 upkeep")
	assert.Zero(t, w.Wealth[1], "nobody works the empty cell")
	assert.InDelta(t, 0.15, st.Produced, 1e-6)

	w.Wealth[0] = 150
	st = l.Apply(w, g)
	assert.InDelta(t, 100.05, w.Wealth[0], 1e-4)
	assert.Equal(t, float32(1), w.Infrastructure[0])
	assert.Equal(t, 1, st.InfraBuilt)

	w.Wealth[0] = 0.01
	w.Population[0] = 1000
	l.Apply(w, g)
	assert.Zero(t, w.Wealth[0], "wealth never goes negative")
}

func TestTradeFlowsUpInfrastructure(t *testing.T) {
	w, g := conflictWorld(2)
	w.Infrastructure[0] = 1
	w.Wealth[1] = 100
	l := &Logistics{Params: DefaultLogistics()}

	moved := l.Trade(w, g)

	assert.InDelta(t, 10, w.Wealth[0], 1e-5)
	assert.InDelta(t, 90, w.Wealth[1], 1e-5)
	assert.InDelta(t, 10, moved, 1e-5)
}

func TestTradeConservesWealth(t *testing.T) {
	const size = 10
	w := world.NewLattice(size, size)
	w.Enable(world.FeatureConflict)
	g := graph.Lattice(size, size, graph.Moore, false)
	for i := 0; i < w.N; i++ {
		w.Infrastructure[i] = float32((i * 7) % 5)
		w.Wealth[i] = float32((i*13)%50) + 1
	}
	l := &Logistics{Params: DefaultLogistics(), Workers: 3}
	before := diffuse.Sum(w.Wealth)

	for tick := 0; tick < 10; tick++ {
		l.Trade(w, g)
	}

	assert.InDelta(t, before, diffuse.Sum(w.Wealth), 1e-2)
	for _, v := range w.Wealth {
		assert.GreaterOrEqual(t, v, float32(0))
	}
}

func TestTransportSpeedScalesTrade(t *testing.T) {
	w, g := conflictWorld(2)
	reg := registry.Default()
	reg.Factions.Add(registry.Faction{TransportSpeed: 2})
	w.Faction[1] = 1
	w.Infrastructure[0] = 1
	w.Wealth[1] = 100
	l := &Logistics{Params: DefaultLogistics(), Registry: reg}

	l.Trade(w, g)

	assert.InDelta(t, 20, w.Wealth[0], 1e-5)
}

func TestPowerAndDefense(t *testing.T) {
	assert.InDelta(t, 100*1.5*1.0, AttackPower(100, 50, 0.5), 1e-4)

	w, _ := conflictWorld(1)
	w.Population[0] = 10
	w.Infrastructure[0] = 5
	w.Defense[0] = 2
	assert.InDelta(t, 10*1.5+2, DefenseScore(w, 0), 1e-5)
}
