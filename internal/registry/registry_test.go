package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSpeciesTableOutOfRange(t *testing.T) {
	tbl := NewSpeciesTable(DefaultSpecies())

	s, ok := tbl.Get(0)
	require.True(t, ok)
	assert.Equal(t, int32(0), s.ID)
	assert.Equal(t, "grass", s.Name)

	_, ok = tbl.Get(-1)
	assert.False(t, ok)
	_, ok = tbl.Get(int32(tbl.Len()))
	assert.False(t, ok)

	var nilTable *SpeciesTable
	_, ok = nilTable.Get(0)
	assert.False(t, ok)
	assert.Zero(t, nilTable.Len())
}

func TestBiomeFit(t *testing.T) {
	s := Species{IdealTemp: 0.5, Resilience: 0.4}

	fit, ok := s.BiomeFit(0.5, 0)
	assert.True(t, ok)
	assert.InDelta(t, 1, fit, 1e-6)

	fit, ok = s.BiomeFit(0.7, 0)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, fit, 1e-6)

	_, ok = s.BiomeFit(0.95, 0)
	assert.False(t, ok, "difference beyond resilience is unsuitable")

	s.IdealMoisture, s.MinMoisture, s.MaxMoisture = 0.5, 0, 1
	fit, ok = s.BiomeFit(0.5, 0)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, fit, 1e-6, "moisture term averages in")
}

func TestDeadlyBounds(t *testing.T) {
	s := Species{MinTemp: 0.1, MaxTemp: 0.9}
	assert.True(t, s.Deadly(0.05))
	assert.True(t, s.Deadly(0.95))
	assert.False(t, s.Deadly(0.5))
	assert.False(t, (&Species{}).Deadly(5), "unset bounds never kill")
}

func TestDrift(t *testing.T) {
	tbl := NewSpeciesTable([]Species{{IdealTemp: 0.5}})

	tbl.Drift(0, 1, 0.01)
	tbl.Drift(7, 1, 0.01)

	s, _ := tbl.Get(0)
	assert.InDelta(t, 0.505, s.IdealTemp, 1e-6)
}

func TestFactionsAndRelations(t *testing.T) {
	fs := NewFactions()
	a := fs.Add(Faction{Name: "north", Aggression: 0.4})
	b := fs.Add(Faction{Name: "south", Aggression: 0.9})

	assert.Equal(t, int32(1), a.ID)
	assert.Equal(t, int32(2), b.ID)
	assert.Equal(t, float32(1), a.TransportSpeed)
	assert.Equal(t, []int32{1, 2}, fs.IDs())

	_, ok := fs.Get(Unclaimed)
	assert.False(t, ok)
	_, ok = fs.Get(99)
	assert.False(t, ok)
	got, ok := fs.Get(2)
	require.True(t, ok)
	assert.Equal(t, "south", got.Name)

	assert.Equal(t, Peace, fs.Relation(1, 2))
	assert.True(t, fs.DeclareWar(2, 1))
	assert.False(t, fs.DeclareWar(1, 2), "already at war")
	assert.Equal(t, War, fs.Relation(1, 2))
	assert.Equal(t, 1, fs.Wars())
	assert.False(t, fs.DeclareWar(1, Unclaimed))

	fs.MakePeace(1, 2)
	assert.Equal(t, Peace, fs.Relation(2, 1))
	assert.Zero(t, fs.Wars())
}

func TestResources(t *testing.T) {
	res := DefaultResources()
	id, ok := res.ID("stone")
	assert.True(t, ok)
	assert.Equal(t, Stone, id)
	assert.Equal(t, "gold", res.Name(Gold))
	assert.Empty(t, res.Name(42))

	inv, err := res.Inventory(map[string]float32{"wood": 2})
	require.NoError(t, err)
	assert.Equal(t, float32(2), inv[Wood])

	_, err = res.Inventory(map[string]float32{"mana": 1})
	assert.Error(t, err)
}

func TestFromDefsYAML(t *testing.T) {
	src := `
- name: moss
  type: flora
  ideal_temp: 0.3
  resilience: 0.5
  output: {food: 0.1}
- name: wolves
  type: fauna
  ideal_temp: 0.4
  resilience: 0.3
  diet: {food: 0.002}
`
	var defs []SpeciesDef
	require.NoError(t, yaml.Unmarshal([]byte(src), &defs))

	r, err := FromDefs(defs)
	require.NoError(t, err)
	require.Equal(t, 2, r.Species.Len())
	wolves, ok := r.Species.ByName("wolves")
	require.True(t, ok)
	assert.Equal(t, Fauna, wolves.Type)
	assert.Equal(t, int32(1), wolves.ID)
	assert.InDelta(t, 0.002, wolves.Diet[Food], 1e-9)

	defs[0].Type = Civilized
	defs[0].Output = map[string]float32{"mana": 1}
	_, err = FromDefs(defs)
	assert.Error(t, err)

	var bad []SpeciesDef
	assert.Error(t, yaml.Unmarshal([]byte("- type: robot"), &bad))
}
