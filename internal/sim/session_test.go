package sim

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellworld/internal/config"
	"cellworld/internal/diffuse"
	"cellworld/internal/events"
	"cellworld/internal/heightmap"
	"cellworld/internal/world"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig is a small all-land world without climate so every species finds
// its ideal conditions everywhere.
func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Width, cfg.Height = 24, 16
	cfg.SeaLevel = 0
	cfg.Features = world.FeatureAll &^ world.FeatureClimate
	cfg.Workers = 2
	cfg.Erosion.Iterations = 2
	cfg.Spawn.Factions = 3
	return cfg
}

func newTestSession(t *testing.T, cfg config.Config, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := NewSession(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Height = 0

	_, err := NewSession(cfg, WithLogger(quietLogger()))

	assert.ErrorIs(t, err, config.ErrInvalidDimensions)
}

func TestSessionRunsStagesOnCadence(t *testing.T) {
	s := newTestSession(t, testConfig())

	require.NoError(t, s.Run(context.Background(), DaysPerMonth))

	st := s.Stats()
	assert.Equal(t, uint64(DaysPerMonth), st.Tick)
	counts := map[string]int64{}
	for _, stage := range st.Scheduler.Stages {
		counts[stage.Name] = stage.ExecutionCount
	}
	assert.Equal(t, map[string]int64{
		"climate":    30,
		"hydrology":  30,
		"population": 30,
		"logistics":  30,
		"conflict":   4,
		"chaos":      30,
		"drift":      1,
		"rivers":     1,
	}, counts)
	require.NoError(t, s.World().Validate())
	for i, p := range s.World().Population {
		require.GreaterOrEqual(t, p, int32(0), "cell %d", i)
	}
	assert.Equal(t, 3, st.Spawned.Factions)
	assert.Len(t, st.Species, 5)
}

func TestSessionIsDeterministic(t *testing.T) {
	a := newTestSession(t, testConfig())
	b := newTestSession(t, testConfig())

	require.NoError(t, a.Run(context.Background(), 40))
	require.NoError(t, b.Run(context.Background(), 40))

	assert.Equal(t, a.World().Height, b.World().Height)
	assert.Equal(t, a.World().Population, b.World().Population)
	assert.Equal(t, a.World().Culture, b.World().Culture)
	assert.Equal(t, a.World().Faction, b.World().Faction)
	assert.Equal(t, a.World().Wealth, b.World().Wealth)
	assert.Equal(t, a.Stats().Raids, b.Stats().Raids)
}

func TestSessionFailureIsSticky(t *testing.T) {
	s := newTestSession(t, testConfig())
	s.AddStage("boom", 3, func(uint64) { panic("out of range") })

	require.NoError(t, s.Tick())
	require.NoError(t, s.Tick())
	err := s.Tick()
	require.ErrorIs(t, err, ErrSessionFailed)
	assert.Contains(t, err.Error(), "tick 3")

	assert.ErrorIs(t, s.Tick(), ErrSessionFailed)
	assert.ErrorIs(t, s.Run(context.Background(), 5), ErrSessionFailed)
	assert.Equal(t, uint64(3), s.Stats().Tick)
	assert.Equal(t, err, s.Failed())
}

func TestWorkerPanicFailsSession(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.Workers = 4
	s := newTestSession(t, cfg)
	s.AddStage("spread", 1, func(uint64) {
		diffuse.Parallel(s.World().N, 4, func(lo, hi int) {
			if lo > 0 {
				panic("bad cell")
			}
		})
	})

	err := s.Tick()

	require.ErrorIs(t, err, ErrSessionFailed)
	assert.Contains(t, err.Error(), "worker panic: bad cell")
	assert.ErrorIs(t, s.Tick(), ErrSessionFailed)
}

func TestCorruptNeighbourFailsSession(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.Workers = 4
	s := newTestSession(t, cfg)
	g := s.Graph()
	g.Indices[g.Offsets[3000]] = int32(s.World().N + 100)

	err := s.Tick()

	require.ErrorIs(t, err, ErrSessionFailed)
	assert.Contains(t, err.Error(), "index out of range")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	s := newTestSession(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Stats().Tick)
}

func TestMissingHeightmapFallsBackToNoise(t *testing.T) {
	cfg := testConfig()
	cfg.Heightmap = filepath.Join(t.TempDir(), "missing.png")

	s := newTestSession(t, cfg)

	var spread bool
	h := s.World().Height
	for i := range h {
		if h[i] != h[0] {
			spread = true
			break
		}
	}
	assert.True(t, spread, "noise terrain should not be flat")
}

func TestWithHeightmapUsesSampler(t *testing.T) {
	cfg := testConfig()
	cfg.Erosion.Iterations = 0
	cfg.Island.Enabled = false
	grid := &heightmap.Grid{W: 2, H: 1, Values: []float32{0.25, 0.25}}

	s := newTestSession(t, cfg, WithHeightmap(grid))

	for i, h := range s.World().Height {
		require.InDelta(t, 0.25, h, 1e-4, "cell %d", i)
	}
}

func TestWithRunID(t *testing.T) {
	id := uuid.MustParse("6f1c2a4e-8d3b-4f6a-9c1e-2b7d5a0e9f31")

	s := newTestSession(t, testConfig(), WithRunID(id))

	assert.Equal(t, id, s.RunID())
}

func TestSessionRecordsSettlements(t *testing.T) {
	sink := &events.MemorySink{}
	s, err := NewSession(testConfig(), WithLogger(quietLogger()), WithSink(sink))
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), 2))
	s.Close()

	assert.GreaterOrEqual(t, sink.Count(events.Settlement), s.Stats().Spawned.Factions)
	assert.Zero(t, s.Stats().Dropped)
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := newTestSession(t, testConfig())
	require.NoError(t, src.Run(context.Background(), 10))
	path := filepath.Join(t.TempDir(), "world.snap")
	require.NoError(t, src.SaveSnapshot(path))

	dst := newTestSession(t, testConfig())
	require.NoError(t, dst.LoadSnapshot(path))

	assert.Equal(t, src.World().Population, dst.World().Population)
	assert.Equal(t, src.World().Faction, dst.World().Faction)
	assert.Equal(t, src.World().N, dst.Graph().Len())
	assert.Zero(t, dst.Stats().Anomalies)
	assert.NoError(t, dst.Tick())
	assert.NoError(t, dst.World().Validate())
}

func TestLoadSnapshotClearsUnknownFactions(t *testing.T) {
	src := newTestSession(t, testConfig())
	require.NoError(t, src.Run(context.Background(), 10))
	path := filepath.Join(t.TempDir(), "world.snap")
	require.NoError(t, src.SaveSnapshot(path))
	owned := 0
	for _, id := range src.World().Faction {
		if id != 0 {
			owned++
		}
	}
	require.Positive(t, owned)

	cfg := testConfig()
	cfg.Spawn.Factions = 0
	sink := &events.MemorySink{}
	dst := newTestSession(t, cfg, WithSink(sink))
	require.NoError(t, dst.LoadSnapshot(path))
	dst.Close()

	assert.Zero(t, dst.Registry().Factions.Len(), "loading never registers factions")
	for i, id := range dst.World().Faction {
		require.Zero(t, id, "cell %d", i)
	}
	assert.Equal(t, src.World().Population, dst.World().Population)
	assert.Equal(t, owned, dst.Stats().Anomalies)
	assert.Equal(t, owned, sink.Count(events.Anomaly))
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	s := newTestSession(t, testConfig())
	before := s.World()

	err := s.LoadSnapshot(filepath.Join(t.TempDir(), "nope.snap"))

	assert.Error(t, err)
	assert.Same(t, before, s.World())
}

func TestFreeGraphSession(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 0, 0
	cfg.Cells = 300
	cfg.Radius = 0.1

	s := newTestSession(t, cfg)

	assert.False(t, s.World().IsLattice())
	assert.Equal(t, 300, s.Graph().Len())
	require.NoError(t, s.Run(context.Background(), DaysPerWeek))
	assert.NoError(t, s.World().Validate())
}

func TestSetParameter(t *testing.T) {
	s := newTestSession(t, testConfig())

	assert.True(t, s.SetParameter("raid_chance", 0.5))
	assert.Equal(t, 0.5, s.conflict.Params.RaidChance)
	assert.True(t, s.SetParameter("rainfall_modifier", 2))
	assert.Equal(t, float32(2), s.hydrology.RainfallModifier)
	assert.Equal(t, float32(2), s.climate.Params.RainfallModifier)

	assert.False(t, s.SetParameter("raid_chance", 1.5))
	assert.False(t, s.SetParameter("chaos_rate", -1))
	assert.False(t, s.SetParameter("seed", 3))
	assert.Equal(t, 0.5, s.conflict.Params.RaidChance)
}
