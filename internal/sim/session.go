// Package sim owns a running world: it builds the grid from a configuration,
// wires every engine to it and advances them on a fixed stage order.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"cellworld/internal/civ"
	"cellworld/internal/climate"
	"cellworld/internal/config"
	"cellworld/internal/conflict"
	"cellworld/internal/diffuse"
	"cellworld/internal/events"
	"cellworld/internal/graph"
	"cellworld/internal/heightmap"
	"cellworld/internal/registry"
	"cellworld/internal/snapshot"
	"cellworld/internal/terrain"
	"cellworld/internal/world"
	"cellworld/pkg/core"
)

// ErrSessionFailed reports a session stopped by a failure inside a tick.
var ErrSessionFailed = errors.New("sim: session failed")

// Stats is the running summary of a session.
type Stats struct {
	Tick uint64

	Population int64
	Species    []SpeciesCount
	Territory  []conflict.Tally
	Rivers     int
	Raids      int
	// Anomalies counts inconsistent cells repaired since the session began.
	Anomalies int
	Wars      int

	Hydrology  climate.HydroStats
	Civ        civ.Stats
	Conflict   conflict.Stats
	Logistics  conflict.LogisticsStats
	Spawned    SpawnStats
	Scheduler  SchedulerStats
	Emitted    uint64
	Dropped    uint64
	SinkErrors uint64
}

// SpeciesCount is the living population of one species.
type SpeciesCount struct {
	Name       string
	Population int64
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger routes session logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithSink records world events to sink.
func WithSink(sink events.Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithHeightmap uses src instead of noise to build the terrain.
func WithHeightmap(src heightmap.Sampler) Option {
	return func(s *Session) { s.sampler = src }
}

// WithRunID stamps the session logs with id instead of a fresh one.
func WithRunID(id uuid.UUID) Option {
	return func(s *Session) { s.runID = id }
}

// Session is one simulated world. It is not safe for concurrent use; the
// engines parallelize internally.
type Session struct {
	cfg     config.Config
	logger  *slog.Logger
	runID   uuid.UUID
	sink    events.Sink
	sampler heightmap.Sampler

	world    *world.World
	graph    *graph.Graph
	registry *registry.Registry
	events   *events.Emitter
	sched    *Scheduler
	rng      *core.RNG

	climate   *climate.Climate
	hydrology *climate.Hydrology
	civ       *civ.Engine
	conflict  *conflict.Engine
	logistics *conflict.Logistics
	chaos     *diffuse.Chaos

	tick   uint64
	failed error
	stats  Stats
}

// NewSession validates cfg, builds the world and its terrain, seeds life and
// factions, and returns a session ready to tick.
func NewSession(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg, err := registry.FromDefs(cfg.Species)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidParameter, err)
	}
	s := &Session{cfg: cfg, registry: reg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.runID == uuid.Nil {
		s.runID = uuid.New()
	}
	s.logger = s.logger.With("run", s.runID.String())
	s.rng = core.NewRNG(cfg.Seed)

	s.world, s.graph = s.build()
	s.events = events.NewEmitter(s.sink, events.DefaultBuffer, s.logger)
	s.wire()
	s.generate()
	s.stats.Spawned = SpawnCivilization(s.world, s.registry, s.rng, cfg.Spawn)
	s.logger.Info("session ready",
		"cells", s.world.N,
		"features", s.world.Features().String(),
		"wildlife", s.stats.Spawned.Wildlife,
		"factions", s.stats.Spawned.Factions)
	return s, nil
}

// build allocates the world and its neighbour graph.
func (s *Session) build() (*world.World, *graph.Graph) {
	cfg := s.cfg
	var w *world.World
	if cfg.Lattice() {
		w = world.NewLattice(cfg.Width, cfg.Height)
	} else {
		w = world.New(cfg.Cells)
		for i := 0; i < w.N; i++ {
			w.X[i] = s.rng.Float32()
			w.Y[i] = s.rng.Float32()
		}
	}
	w.SeaLevel = cfg.SeaLevel
	w.Enable(cfg.Features)
	return w, s.graphFor(w)
}

func (s *Session) graphFor(w *world.World) *graph.Graph {
	if w.IsLattice() {
		return graph.Lattice(w.W, w.H, graph.Moore, false)
	}
	return graph.FromPoints(w.X, w.Y, s.cfg.Radius)
}

// wire creates the engines and registers their stages.
func (s *Session) wire() {
	cfg := s.cfg
	workers := cfg.Workers

	s.climate = &climate.Climate{Params: cfg.ClimateParams(), Workers: workers}
	s.hydrology = &climate.Hydrology{
		RainRate:         cfg.Climate.RainRate,
		RainfallModifier: cfg.Climate.RainfallModifier,
		Workers:          workers,
	}
	s.civ = civ.NewEngine(cfg.Population, s.registry, cfg.Seed+1)
	s.civ.Events, s.civ.Logger, s.civ.Workers = s.events, s.logger, workers
	s.conflict = conflict.NewEngine(cfg.Conflict, s.registry, cfg.Seed+2)
	s.conflict.Events, s.conflict.Logger = s.events, s.logger
	s.logistics = &conflict.Logistics{Params: cfg.Logistics, Registry: s.registry, Workers: workers}
	s.chaos = &diffuse.Chaos{Rate: cfg.Chaos.Rate, Decay: cfg.Chaos.Decay, Workers: workers}

	s.sched = NewScheduler()
	s.sched.Register("climate", 1, func(uint64) {
		s.climate.Apply(s.world, s.graph)
	})
	s.sched.Register("hydrology", 1, func(uint64) {
		s.stats.Hydrology = s.hydrology.Apply(s.world, s.graph)
	})
	s.sched.Register("population", 1, func(tick uint64) {
		s.stats.Civ = s.civ.Apply(s.world, s.graph, tick)
		s.stats.Anomalies += s.stats.Civ.Anomalies
	})
	s.sched.Register("logistics", 1, func(tick uint64) {
		s.stats.Logistics = s.logistics.Apply(s.world, s.graph)
		if s.conflict.Raid(s.world, tick) >= 0 {
			s.stats.Raids++
		}
	})
	s.sched.Register("conflict", DaysPerWeek, func(tick uint64) {
		s.stats.Conflict = s.conflict.Expand(s.world, s.graph, tick)
		s.stats.Anomalies += s.stats.Conflict.Anomalies
		s.stats.Territory = s.conflict.Territory()
	})
	s.sched.Register("chaos", 1, func(uint64) {
		s.chaos.Apply(s.world, s.graph)
	})
	s.sched.Register("drift", DaysPerMonth, func(uint64) {
		s.civ.Drift(s.world)
	})
	s.sched.Register("rivers", DaysPerMonth, func(uint64) {
		s.countRivers()
	})
}

// generate shapes the terrain once and primes the climate.
func (s *Session) generate() {
	cfg := s.cfg
	src := s.sampler
	if src == nil && cfg.Heightmap != "" {
		img, err := heightmap.Load(cfg.Heightmap)
		if err != nil {
			s.logger.Warn("heightmap unavailable, using noise", "path", cfg.Heightmap, "err", err)
		} else {
			src = img
		}
	}
	terrain.GenerateHeightmap(s.world, cfg.TerrainParams(), src)
	terrain.ApplyThermalErosion(s.world, s.graph, cfg.ErosionParams())
	s.climate.Prime(s.world, s.graph)
	s.countRivers()
}

func (s *Session) countRivers() {
	if flux := climate.Accumulate(s.world, s.graph, 1); flux != nil {
		s.stats.Rivers = climate.CountRivers(flux, s.cfg.Climate.RiverThreshold)
	}
}

// AddStage appends a custom stage after the built-in ones.
func (s *Session) AddStage(name string, every uint64, run func(tick uint64)) {
	s.sched.Register(name, every, run)
}

// Tick advances the world by one day. A panic inside a stage fails the
// session; that tick and every later one return ErrSessionFailed.
func (s *Session) Tick() (err error) {
	if s.failed != nil {
		return s.failed
	}
	defer func() {
		if r := recover(); r != nil {
			s.failed = fmt.Errorf("%w: tick %d: %v", ErrSessionFailed, s.tick, r)
			s.logger.Error("tick failed", "tick", s.tick, "err", s.failed)
			err = s.failed
		}
	}()
	s.tick++
	s.sched.Once(s.tick)
	return nil
}

// Run advances up to ticks days, checking ctx between ticks.
func (s *Session) Run(ctx context.Context, ticks int) error {
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the session summary as of the last tick.
func (s *Session) Stats() Stats {
	st := s.stats
	st.Tick = s.tick
	if s.world.Population != nil {
		st.Population = s.world.TotalPopulation()
	}
	totals := s.civ.Totals()
	for id, sp := range s.registry.Species.All() {
		var n int64
		if id < len(totals) {
			n = totals[id]
		}
		st.Species = append(st.Species, SpeciesCount{Name: sp.Name, Population: n})
	}
	st.Territory = append([]conflict.Tally(nil), s.stats.Territory...)
	st.Wars = s.registry.Factions.Wars()
	st.Scheduler = s.sched.Stats()
	st.Emitted = s.events.Emitted()
	st.Dropped = s.events.Dropped()
	st.SinkErrors = s.events.Failed()
	return st
}

// Config returns the configuration the session was built from.
func (s *Session) Config() config.Config { return s.cfg }

// World returns the live world. Callers must not hold it across LoadSnapshot.
func (s *Session) World() *world.World { return s.world }

// Graph returns the neighbour graph of the current world.
func (s *Session) Graph() *graph.Graph { return s.graph }

// Registry returns the species, faction and resource tables.
func (s *Session) Registry() *registry.Registry { return s.registry }

// RunID identifies this session in logs and the chronicle.
func (s *Session) RunID() uuid.UUID { return s.runID }

// Failed reports the error that stopped the session, if any.
func (s *Session) Failed() error { return s.failed }

// SaveSnapshot writes the current grid to path.
func (s *Session) SaveSnapshot(path string) error {
	return snapshot.Save(path, s.world)
}

// LoadSnapshot replaces the world with the one stored at path and rebuilds
// the neighbour graph. The registry is left as it is: cells owned by a faction
// it does not know are cleared and reported as anomalies.
func (s *Session) LoadSnapshot(path string) error {
	w, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	if !w.IsLattice() && s.cfg.Radius <= 0 {
		return fmt.Errorf("%w: snapshot holds a free graph but no radius is configured", config.ErrInvalidParameter)
	}
	s.world = w
	s.graph = s.graphFor(w)
	cleared := s.clearUnknownFactions()
	s.countRivers()
	s.logger.Info("snapshot loaded", "path", path, "cells", w.N, "cleared", cleared)
	return nil
}

func (s *Session) clearUnknownFactions() int {
	if s.world.Faction == nil {
		return 0
	}
	cleared := 0
	for i, id := range s.world.Faction {
		if id == registry.Unclaimed {
			continue
		}
		if _, ok := s.registry.Factions.Get(id); ok {
			continue
		}
		s.logger.Warn("unknown faction on cell", "cell", i, "id", id)
		s.events.Emitf(s.tick, events.Anomaly, i, "unknown faction %d cleared", id)
		s.world.Faction[i] = registry.Unclaimed
		cleared++
	}
	s.stats.Anomalies += cleared
	return cleared
}

// Close flushes pending events. The session must not tick afterwards.
func (s *Session) Close() {
	s.events.Close()
}
