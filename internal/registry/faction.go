package registry

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// Unclaimed is the faction id of a cell nobody owns.
const Unclaimed int32 = 0

// Faction is a civilization that owns territory.
type Faction struct {
	ID         int32
	Name       string
	Culture    int32
	Aggression float32
	// Tamed lists species ids the faction has domesticated.
	Tamed []int32
	// TransportSpeed scales how far trade reaches.
	TransportSpeed float32
}

// Relation is the diplomatic state between two factions.
type Relation uint8

const (
	Peace Relation = iota
	War
)

func (r Relation) String() string {
	if r == War {
		return "war"
	}
	return "peace"
}

// Factions is the id-keyed faction table. Ids start at 1; 0 is Unclaimed.
type Factions struct {
	byID      *intmap.Map[int32, *Faction]
	ids       []int32
	relations *intmap.Map[uint64, Relation]
	nextID    int32
}

// NewFactions returns an empty table.
func NewFactions() *Factions {
	return &Factions{
		byID:      intmap.New[int32, *Faction](16),
		relations: intmap.New[uint64, Relation](16),
		nextID:    1,
	}
}

// Add registers f under a fresh id and returns it.
func (fs *Factions) Add(f Faction) *Faction {
	f.ID = fs.nextID
	fs.nextID++
	if f.TransportSpeed == 0 {
		f.TransportSpeed = 1
	}
	p := &f
	fs.byID.Put(f.ID, p)
	fs.ids = append(fs.ids, f.ID)
	return p
}

// Get returns the faction for id. Unclaimed and unknown ids report false.
func (fs *Factions) Get(id int32) (*Faction, bool) {
	if fs == nil || id == Unclaimed {
		return nil, false
	}
	return fs.byID.Get(id)
}

// Len returns the number of factions.
func (fs *Factions) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.ids)
}

// IDs returns faction ids in creation order.
func (fs *Factions) IDs() []int32 {
	if fs == nil {
		return nil
	}
	return slices.Clone(fs.ids)
}

func pairKey(a, b int32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// Relation returns the state between a and b.
func (fs *Factions) Relation(a, b int32) Relation {
	if fs == nil || a == b {
		return Peace
	}
	r, _ := fs.relations.Get(pairKey(a, b))
	return r
}

// DeclareWar marks a and b at war and reports whether this is a new war.
func (fs *Factions) DeclareWar(a, b int32) bool {
	if fs == nil || a == b || a == Unclaimed || b == Unclaimed {
		return false
	}
	key := pairKey(a, b)
	if r, _ := fs.relations.Get(key); r == War {
		return false
	}
	fs.relations.Put(key, War)
	return true
}

// MakePeace ends any war between a and b.
func (fs *Factions) MakePeace(a, b int32) {
	if fs == nil {
		return
	}
	fs.relations.Del(pairKey(a, b))
}

// Wars returns the number of faction pairs currently at war.
func (fs *Factions) Wars() int {
	if fs == nil {
		return 0
	}
	count := 0
	fs.relations.ForEach(func(_ uint64, r Relation) bool {
		if r == War {
			count++
		}
		return true
	})
	return count
}
