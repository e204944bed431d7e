package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsCollectsExplicitOverrides(t *testing.T) {
	opts, err := parseFlags([]string{"-w", "40", "-seed", "9", "-set", "chaos_rate=0.3", "-ticks", "12"}, io.Discard)

	require.NoError(t, err)
	assert.Equal(t, 12, opts.ticks)
	assert.Equal(t, map[string]string{"w": "40", "seed": "9", "chaos_rate": "0.3"}, opts.overrides)
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	_, err := parseFlags([]string{"-set", "nothing"}, io.Discard)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-ticks", "-1"}, io.Discard)
	assert.Error(t, err)
}

func TestLoadConfigLayersFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 30\nheight: 20\nseed: 4\n"), 0o644))

	cfg, err := loadConfig(options{configPath: path, overrides: map[string]string{"seed": "8"}})

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
	assert.Equal(t, int64(8), cfg.Seed, "flags win over the file")
}

func TestLoadConfigValidates(t *testing.T) {
	_, err := loadConfig(options{overrides: map[string]string{"w": "10", "h": "0"}})

	assert.Error(t, err)
}

func TestRunWritesReportSnapshotAndChronicle(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "world.snap")
	db := filepath.Join(dir, "chronicle.db")
	args := []string{
		"-w", "16", "-h", "12", "-seed", "3", "-ticks", "8",
		"-snapshot", snap, "-chronicle", db,
		"-set", "sea_level=0",
		"-set", "features=terrain,hydrology,biology,factions,conflict,chaos",
	}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), args, &out, io.Discard))

	report := out.String()
	assert.Contains(t, report, "=== cellworld report ===")
	assert.Contains(t, report, "days=8")
	assert.Contains(t, report, "settlement")
	assert.Contains(t, report, "conflict   every=7")
	assert.FileExists(t, snap)
	assert.FileExists(t, db)

	out.Reset()
	resume := []string{"-w", "16", "-h", "12", "-ticks", "1", "-load", snap}
	require.NoError(t, run(context.Background(), resume, &out, io.Discard))
	assert.Contains(t, out.String(), "days=1")
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	require.NoError(t, run(ctx, []string{"-w", "8", "-h", "8", "-ticks", "50"}, &out, io.Discard))

	assert.Contains(t, out.String(), "days=0")
}
