package civ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellworld/internal/events"
	"cellworld/internal/graph"
	"cellworld/internal/registry"
	"cellworld/internal/world"
)

func testRegistry(species ...registry.Species) *registry.Registry {
	reg := registry.Default()
	reg.Species = registry.NewSpeciesTable(species)
	return reg
}

func quietParams() Params {
	p := DefaultParams()
	p.GrowthChance = 0
	p.ForageRate = 0
	return p
}

func lineWorld(n int) (*world.World, *graph.Graph) {
	w := world.New(n)
	w.Enable(world.FeatureBiology)
	return w, graph.Line(n)
}

var deer = registry.Species{Name: "deer", Type: registry.Fauna, IdealTemp: 0.5, Resilience: 0.5}

func TestMigrationMovesHalfToBetterNeighbour(t *testing.T) {
	w, g := lineWorld(2)
	w.Population[0], w.Population[1] = 1000, 50
	w.Culture[0], w.Culture[1] = 0, 0
	e := NewEngine(quietParams(), testRegistry(deer), 1)

	st := e.Apply(w, g, 0)

	assert.Equal(t, int32(500), w.Population[0])
	assert.Equal(t, int32(550), w.Population[1])
	assert.Equal(t, 1, st.Migrations)
	assert.Equal(t, int64(1050), st.Population)
}

func TestMigrationNeedsMarginAndThreshold(t *testing.T) {
	w, g := lineWorld(2)
	w.Population[0], w.Population[1] = 90, 0
	w.Culture[0] = 0
	e := NewEngine(quietParams(), testRegistry(deer), 1)

	e.Apply(w, g, 0)
	assert.Equal(t, int32(90), w.Population[0], "below the threshold nobody moves")

	w.Population[0] = 400
	e.Apply(w, g, 1)
	assert.Equal(t, int32(400), w.Population[0], "an uncrowded cell scores the same as its empty neighbour")
}

func TestMigrationSkipsOceanAndForeignCulture(t *testing.T) {
	w, g := lineWorld(3)
	w.Enable(world.FeatureTerrain)
	w.SeaLevel = 0.2
	w.Height[0], w.Height[1], w.Height[2] = 0.5, 0.1, 0.5
	w.Population[0] = 1000
	w.Culture[0] = 0
	e := NewEngine(quietParams(), testRegistry(deer, deer), 1)

	e.Apply(w, g, 0)
	assert.Equal(t, int32(1000), w.Population[0], "ocean is never a destination")

	w2, g2 := lineWorld(2)
	w2.Population[0], w2.Population[1] = 1000, 10
	w2.Culture[0], w2.Culture[1] = 0, 1
	e.Apply(w2, g2, 0)
	assert.Equal(t, int32(1000), w2.Population[0], "a cell held by another culture is off limits")
}

func TestMigrationFirstClaimWins(t *testing.T) {
	w, g := lineWorld(3)
	w.Population[0], w.Population[2] = 1000, 1000
	w.Culture[0], w.Culture[2] = 0, 1
	e := NewEngine(quietParams(), testRegistry(deer, deer), 1)

	st := e.Apply(w, g, 0)

	assert.Equal(t, int32(500), w.Population[0])
	assert.Equal(t, int32(500), w.Population[1])
	assert.Equal(t, int32(0), w.Culture[1])
	assert.Equal(t, int32(1000), w.Population[2], "the later migrant of another culture is turned away")
	assert.Equal(t, 1, st.Migrations)
}

func TestStarvationDecaysAndClears(t *testing.T) {
	eater := registry.Species{Name: "eater", Type: registry.Fauna, IdealTemp: 0.5, Resilience: 0.5}
	eater.Diet[registry.Food] = 0.01
	w, g := lineWorld(2)
	w.Population[0], w.Culture[0] = 100, 0
	w.Resources[0][registry.Food] = 0.5
	w.Population[1], w.Culture[1] = 1, 0
	e := NewEngine(quietParams(), testRegistry(eater), 1)

	st := e.Apply(w, g, 0)

	assert.Equal(t, int32(95), w.Population[0])
	assert.True(t, w.Starving[0])
	assert.Zero(t, w.Resources[0][registry.Food], "a starving cell eats what is there")
	assert.Zero(t, w.Population[1])
	assert.Equal(t, world.NoCulture, w.Culture[1], "cleared on the same tick it drops below one")
	assert.Equal(t, 1, st.Cleared)
	assert.Equal(t, 2, st.Starving)
}

func TestFedCellProducesAndGrows(t *testing.T) {
	farmer := registry.Species{Name: "farmer", Type: registry.Fauna, IdealTemp: 0.5, Resilience: 0.5, Cap: 105}
	farmer.Diet[registry.Food] = 0.01
	farmer.Output[registry.Wood] = 0.1
	w, g := lineWorld(1)
	w.Population[0], w.Culture[0] = 100, 0
	w.Resources[0][registry.Food] = 10
	p := quietParams()
	p.GrowthChance = 1
	e := NewEngine(p, testRegistry(farmer), 1)

	e.Apply(w, g, 0)

	assert.InDelta(t, 9, w.Resources[0][registry.Food], 1e-5)
	assert.InDelta(t, 10, w.Resources[0][registry.Wood], 1e-5)
	assert.Equal(t, int32(105), w.Population[0])
	assert.False(t, w.Starving[0])

	e.Apply(w, g, 1)
	assert.Equal(t, int32(105), w.Population[0], "growth stops at the species cap")
}

func TestDeadlyTemperatureKills(t *testing.T) {
	frail := registry.Species{Name: "frail", Type: registry.Fauna, IdealTemp: 0.5, Resilience: 0.6, MinTemp: 0.1, MaxTemp: 0.9}
	w, g := lineWorld(1)
	w.Enable(world.FeatureClimate)
	w.Temperature[0] = 0.99
	w.Population[0], w.Culture[0] = 100, 0
	e := NewEngine(quietParams(), testRegistry(frail), 1)

	e.Apply(w, g, 0)

	assert.Equal(t, int32(90), w.Population[0])
}

func TestUnknownSpeciesIsAnomaly(t *testing.T) {
	sink := &events.MemorySink{}
	em := events.NewEmitter(sink, 8, nil)
	w, g := lineWorld(2)
	w.Population[0], w.Culture[0] = 40, 99
	e := NewEngine(quietParams(), testRegistry(deer), 1)
	e.Events = em

	st := e.Apply(w, g, 7)
	em.Close()

	assert.Equal(t, 1, st.Anomalies)
	assert.Zero(t, w.Population[0])
	assert.Equal(t, world.NoCulture, w.Culture[0])
	require.Equal(t, 1, sink.Count(events.Anomaly))
	assert.Equal(t, uint64(7), sink.Events()[0].Tick)
}

func TestTierAndBuildings(t *testing.T) {
	folk := registry.Species{Name: "folk", Type: registry.Civilized, IdealTemp: 0.5, Resilience: 0.5}
	sink := &events.MemorySink{}
	em := events.NewEmitter(sink, 32, nil)
	w, g := lineWorld(2)
	w.Enable(world.FeatureConflict)
	w.Population[0], w.Culture[0] = 600, 0
	w.Resources[0][registry.Food] = 60
	w.Resources[0][registry.Stone] = 150
	w.Resources[0][registry.Wood] = 50
	w.Population[1], w.Culture[1] = 50, 0
	w.Tier[1] = world.TierVillage
	w.Resources[1][registry.Wood] = 35
	e := NewEngine(quietParams(), testRegistry(folk), 1)
	e.Events = em

	e.Apply(w, g, 0)
	assert.Equal(t, world.TierTribe, w.Tier[0], "one step per tick")
	assert.Equal(t, world.BuildingNone, w.Building[0], "tribes do not build")
	assert.Equal(t, world.BuildingQuarry, w.Building[1])
	assert.InDelta(t, 5, w.Resources[1][registry.Wood], 1e-6)

	e.Apply(w, g, 1)
	assert.Equal(t, world.TierVillage, w.Tier[0])
	assert.Equal(t, world.BuildingStronghold, w.Building[0])
	assert.InDelta(t, 70, w.Resources[0][registry.Stone], 1e-6)
	assert.InDelta(t, 10, w.Resources[0][registry.Wood], 1e-6)
	assert.Equal(t, float32(5), w.Defense[0])
	assert.InDelta(t, 2, w.Resources[1][registry.Stone], 1e-6, "the quarry yields stone")

	e.Apply(w, g, 2)
	assert.Equal(t, world.TierVillage, w.Tier[0], "town needs a stone reserve")
	assert.Equal(t, world.BuildingStronghold, w.Building[0], "at most one building per cell")
	em.Close()

	assert.Equal(t, 1, sink.Count(events.Settlement))
	assert.Equal(t, 1, sink.Count(events.TierUp))
	assert.Equal(t, 2, sink.Count(events.Building))
}

func TestTierNeverDecreasesAndPopulationNeverNegative(t *testing.T) {
	folk := registry.Species{Name: "folk", Type: registry.Civilized, IdealTemp: 0.5, Resilience: 0.5}
	folk.Diet[registry.Food] = 0.002
	folk.Output[registry.Stone] = 0.01
	folk.Output[registry.Wood] = 0.01
	w := world.NewLattice(6, 6)
	w.Enable(world.FeatureBiology)
	g := graph.Lattice(6, 6, graph.Moore, false)
	for i := 0; i < w.N; i += 2 {
		w.Population[i] = int32(50 + 40*i)
		w.Culture[i] = 0
	}
	e := NewEngine(DefaultParams(), testRegistry(folk, deer), 3)
	prev := make([]world.Tier, w.N)

	for tick := uint64(0); tick < 60; tick++ {
		e.Apply(w, g, tick)
		for i := 0; i < w.N; i++ {
			require.GreaterOrEqual(t, w.Tier[i], prev[i], "cell %d tick %d", i, tick)
			require.GreaterOrEqual(t, w.Population[i], int32(0))
			if w.Population[i] == 0 {
				require.Equal(t, world.NoCulture, w.Culture[i])
			}
		}
		copy(prev, w.Tier)
	}
}

func TestFloraSeedsEmptyNeighbour(t *testing.T) {
	moss := registry.Species{Name: "moss", Type: registry.Flora, IdealTemp: 0.5, Resilience: 0.5, ExpansionRate: 1}
	w, g := lineWorld(2)
	w.Population[0], w.Culture[0] = 100, 0
	e := NewEngine(quietParams(), testRegistry(moss), 1)

	st := e.Apply(w, g, 0)

	assert.Equal(t, 1, st.Seeded)
	assert.Equal(t, int32(100), w.Population[0])
	assert.Equal(t, int32(10), w.Population[1])
	assert.Equal(t, int32(0), w.Culture[1])
}

func TestExtinctionEvent(t *testing.T) {
	eater := registry.Species{Name: "eater", Type: registry.Fauna, IdealTemp: 0.5, Resilience: 0.5}
	eater.Diet[registry.Food] = 1
	sink := &events.MemorySink{}
	em := events.NewEmitter(sink, 8, nil)
	w, g := lineWorld(1)
	w.Population[0], w.Culture[0] = 2, 0
	e := NewEngine(quietParams(), testRegistry(eater), 1)
	e.Events = em

	first := e.Apply(w, g, 0)
	second := e.Apply(w, g, 1)
	em.Close()

	assert.Zero(t, first.Extinctions)
	assert.Equal(t, 1, second.Extinctions)
	assert.Equal(t, 1, sink.Count(events.Extinct))
	assert.Equal(t, []int64{0}, e.Totals())
}

func TestDriftTowardOccupiedClimate(t *testing.T) {
	reg := testRegistry(deer)
	w, _ := lineWorld(2)
	w.Enable(world.FeatureClimate)
	w.Temperature[0], w.Temperature[1] = 0.9, 0.1
	w.Population[0], w.Culture[0] = 300, 0
	w.Population[1], w.Culture[1] = 100, 0
	e := NewEngine(DefaultParams(), reg, 1)

	e.Drift(w)

	s, _ := reg.Species.Get(0)
	assert.InDelta(t, 0.5+0.01*(0.7-0.5), s.IdealTemp, 1e-6)
}

func TestDesirability(t *testing.T) {
	eater := registry.Species{Type: registry.Fauna, IdealTemp: 0.5, Resilience: 0.5}
	eater.Diet[registry.Food] = 0.01
	w, _ := lineWorld(1)
	w.Resources[0][registry.Food] = 5
	e := NewEngine(DefaultParams(), testRegistry(eater), 1)

	score, ok := e.Desirability(w, &eater, 0, 400)
	assert.True(t, ok)
	assert.InDelta(t, 3, score, 1e-6, "full fit plus one satisfied diet entry")

	score, _ = e.Desirability(w, &eater, 0, 1000)
	assert.InDelta(t, 0+2-1, score, 1e-6, "food runs short and crowding bites")

	w.Enable(world.FeatureClimate)
	w.Temperature[0] = 1.1
	_, ok = e.Desirability(w, &eater, 0, 10)
	assert.False(t, ok)
}
