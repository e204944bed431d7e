//go:build ebiten

package app

import (
	"image/color"
	"log/slog"
	"time"

	"cellworld/internal/core"
	"cellworld/internal/render"
	"cellworld/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type paletteProvider interface {
	Palette() []color.RGBA
}

type snapshotter interface {
	SaveSnapshot(path string) error
	LoadSnapshot(path string) error
}

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	cfg     *Config
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay
	logger  *slog.Logger

	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for sim using the viewer settings in cfg.
func New(sim core.Sim, cfg *Config) *Game {
	g := &Game{
		sim:     sim,
		cfg:     cfg,
		hud:     ui.NewHUD(sim, cfg.HUDWidth),
		overlay: ui.NewOverlay(sim, cfg.Scale),
		logger:  slog.Default().With("sim", sim.Name()),
		seed:    cfg.Seed,
	}
	g.resize()
	return g
}

// resize rebuilds the painter after the raster changed shape.
func (g *Game) resize() {
	var palette []color.RGBA
	if p, ok := g.sim.(paletteProvider); ok {
		palette = p.Palette()
	}
	size := g.sim.Size()
	if g.painter != nil {
		if w, h := g.painter.Size(); w == size.W && h == size.H {
			return
		}
	}
	g.painter = render.NewGridPainter(size.W, size.H, palette)
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
	g.resize()
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		g.paused = false
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		g.tickOnce = true
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.Reset(g.seed)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.Reset(time.Now().UnixNano())
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.snapshot(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		g.snapshot(false)
	}

	g.overlay.Update()
	g.hud.Update(g.mapWidth())

	if !g.paused || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
	}
	return nil
}

func (g *Game) snapshot(save bool) {
	s, ok := g.sim.(snapshotter)
	if !ok {
		return
	}
	path := g.cfg.Snapshot
	var err error
	if save {
		err = s.SaveSnapshot(path)
	} else {
		err = s.LoadSnapshot(path)
		g.resize()
	}
	if err != nil {
		g.logger.Error("snapshot failed", "path", path, "save", save, "err", err)
		return
	}
	g.logger.Info("snapshot", "path", path, "save", save)
}

func (g *Game) mapWidth() int { return g.sim.Size().W * g.cfg.Scale }

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Cells(), g.cfg.Scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.mapWidth(), g.cfg.Scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return g.mapWidth() + g.cfg.HUDWidth, s.H * g.cfg.Scale
}
