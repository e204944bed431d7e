package app

import (
	"flag"
	"fmt"
	"strings"
)

// Config holds the viewer's command-line settings.
type Config struct {
	Sim      string
	Scale    int
	TPS      int
	Seed     int64
	HUDWidth int
	Snapshot string
	// Overrides are passed to the sim factory as key=value settings.
	Overrides map[string]string
}

// NewConfig returns the viewer defaults.
func NewConfig() *Config {
	return &Config{
		Sim:       "cellworld",
		Scale:     4,
		TPS:       30,
		Seed:      1337,
		HUDWidth:  260,
		Snapshot:  "world.snap",
		Overrides: map[string]string{},
	}
}

// Bind registers the settings on fs.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "width of the control panel in pixels, 0 hides it")
	fs.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "snapshot file written with F5 and read with F9")
	fs.Func("set", "simulation setting as key=value, repeatable", c.set)
}

func (c *Config) set(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("want key=value, got %q", kv)
	}
	if c.Overrides == nil {
		c.Overrides = map[string]string{}
	}
	c.Overrides[key] = strings.TrimSpace(value)
	return nil
}
