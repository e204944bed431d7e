// Command worldsim runs a world headlessly and prints a summary report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"cellworld/internal/config"
	"cellworld/internal/events"
	"cellworld/internal/sim"
)

type options struct {
	configPath string
	ticks      int
	snapshot   string
	load       string
	chronicle  string
	clip       bool
	verbose    bool
	overrides  map[string]string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line. Flags that map to configuration keys are
// only collected when given explicitly so they override the config file.
func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{overrides: map[string]string{}}
	fs := flag.NewFlagSet("worldsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.IntVar(&opts.ticks, "ticks", 365, "days to simulate")
	fs.StringVar(&opts.snapshot, "snapshot", "", "write the final grid to this file")
	fs.StringVar(&opts.load, "load", "", "start from a snapshot instead of generating")
	fs.StringVar(&opts.chronicle, "chronicle", "", "record events to this SQLite database")
	fs.BoolVar(&opts.clip, "clip", false, "copy the report to the clipboard")
	fs.BoolVar(&opts.verbose, "v", false, "log every event")
	fs.String("w", "", "lattice width")
	fs.String("h", "", "lattice height")
	fs.String("seed", "", "world seed")
	fs.String("workers", "", "goroutines per parallel pass, 0 uses every CPU")
	fs.String("heightmap", "", "grayscale image to use as terrain")
	fs.Func("set", "configuration override as key=value, repeatable", func(kv string) error {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return fmt.Errorf("want key=value, got %q", kv)
		}
		opts.overrides[strings.TrimSpace(k)] = strings.TrimSpace(v)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w", "h", "seed", "workers", "heightmap":
			opts.overrides[f.Name] = f.Value.String()
		}
	})
	if opts.ticks < 0 {
		return opts, fmt.Errorf("-ticks must be >= 0, got %d", opts.ticks)
	}
	return opts, nil
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Apply(opts.overrides); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	runID := uuid.New()

	sinks := events.Tee{events.LogSink{Logger: logger, Level: slog.LevelDebug}}
	var chron *events.Chronicle
	if opts.chronicle != "" {
		if chron, err = events.OpenChronicle(opts.chronicle, runID); err != nil {
			return err
		}
		defer chron.Close()
		sinks = append(sinks, chron)
	}

	s, err := sim.NewSession(cfg, sim.WithLogger(logger), sim.WithRunID(runID), sim.WithSink(sinks))
	if err != nil {
		return err
	}
	if opts.load != "" {
		if err := s.LoadSnapshot(opts.load); err != nil {
			s.Close()
			return err
		}
	}

	start := time.Now()
	runErr := s.Run(ctx, opts.ticks)
	elapsed := time.Since(start)
	s.Close()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		logger.Warn("interrupted", "tick", s.Stats().Tick)
	}

	if opts.snapshot != "" {
		if err := s.SaveSnapshot(opts.snapshot); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", opts.snapshot)
	}

	var counts map[events.Category]int
	if chron != nil {
		if counts, err = chron.Counts(); err != nil {
			logger.Warn("chronicle counts unavailable", "err", err)
		}
	}
	out := report(s, counts, elapsed)
	fmt.Fprint(stdout, out)
	if opts.clip {
		if err := clipboard.WriteAll(out); err != nil {
			logger.Warn("clipboard unavailable", "err", err)
		}
	}
	return nil
}

// report renders the session summary as plain text.
func report(s *sim.Session, counts map[events.Category]int, elapsed time.Duration) string {
	st := s.Stats()
	cfg := s.Config()
	var b strings.Builder

	fmt.Fprintf(&b, "=== cellworld report ===\n")
	fmt.Fprintf(&b, "run=%s seed=%d cells=%d days=%d elapsed=%s\n\n",
		s.RunID(), cfg.Seed, s.World().N, st.Tick, elapsed.Round(time.Millisecond))

	fmt.Fprintf(&b, "population %d\n", st.Population)
	for _, sp := range st.Species {
		fmt.Fprintf(&b, "  %-12s %d\n", sp.Name, sp.Population)
	}
	fmt.Fprintf(&b, "rivers=%d raids=%d wars=%d anomalies=%d\n", st.Rivers, st.Raids, st.Wars, st.Anomalies)
	fmt.Fprintf(&b, "spawned wildlife=%d factions=%d\n\n", st.Spawned.Wildlife, st.Spawned.Factions)

	if len(st.Territory) > 0 {
		fmt.Fprintf(&b, "territory\n")
		for _, t := range st.Territory {
			name := fmt.Sprintf("faction-%d", t.Faction)
			if f, ok := s.Registry().Factions.Get(t.Faction); ok && f.Name != "" {
				name = f.Name
			}
			fmt.Fprintf(&b, "  %-16s cells=%d pop=%d wealth=%.1f\n", name, t.Cells, t.Population, t.Wealth)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "events emitted=%d dropped=%d sink_errors=%d\n", st.Emitted, st.Dropped, st.SinkErrors)
	if len(counts) > 0 {
		cats := make([]string, 0, len(counts))
		for c := range counts {
			cats = append(cats, string(c))
		}
		slices.Sort(cats)
		for _, c := range cats {
			fmt.Fprintf(&b, "  %-10s %d\n", c, counts[events.Category(c)])
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "stages (%d runs)\n", st.Scheduler.TotalExecutions)
	for _, stage := range st.Scheduler.Stages {
		fmt.Fprintf(&b, "  %-10s every=%-2d runs=%-5d avg=%-10s max=%-10s total=%s\n",
			stage.Name, stage.Every, stage.ExecutionCount,
			stage.AvgDuration, stage.MaxDuration, stage.TotalDuration.Round(time.Microsecond))
	}
	return b.String()
}
