//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"cellworld/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

type statusProvider interface {
	StatusLines() []string
}

var (
	panelBackground = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	textBright      = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	textDim         = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	buttonOn        = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	buttonOff       = color.RGBA{R: 32, G: 34, B: 40, A: 255}
)

// HUD renders world status and the live controls to the right of the map.
type HUD struct {
	sim     core.Sim
	width   int
	panel   *ebiten.Image
	pixel   *ebiten.Image
	title   string
	offsetX int

	status   []string
	controls []control
	ints     core.IntParameterSetter
	floats   core.FloatParameterSetter
}

type control struct {
	core.ParameterControl
	value float64
	shown string
	known bool

	top         int
	minus, plus image.Rectangle
}

// NewHUD builds a panel of the given width for sim.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(0, width), title: "Controls"}
	if sim != nil && sim.Name() != "" {
		h.title = fmt.Sprintf("%s controls", sim.Name())
	}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		for _, c := range p.ParameterControls() {
			h.controls = append(h.controls, control{ParameterControl: c, shown: "--"})
		}
	}
	h.ints, _ = sim.(core.IntParameterSetter)
	h.floats, _ = sim.(core.FloatParameterSetter)
	return h
}

// Update reads the latest status and parameters and handles clicks on the
// panel, which starts at offsetX on screen.
func (h *HUD) Update(offsetX int) {
	if h == nil {
		return
	}
	h.offsetX = offsetX
	if p, ok := h.sim.(statusProvider); ok {
		h.status = p.StatusLines()
	}
	h.layout()
	h.refresh()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		h.click(mx-h.offsetX, my)
	}
}

// Draw paints the panel at offsetX next to a map drawn at scale.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(1, scale)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelBackground)

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	text.Draw(h.panel, h.title, face, panelPadding, y, textBright)
	for _, line := range h.status {
		y += statusLine
		text.Draw(h.panel, line, face, panelPadding, y, textDim)
	}
	if len(h.controls) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, y+lineHeight, textDim)
	}
	for i := range h.controls {
		c := &h.controls[i]
		text.Draw(h.panel, c.Label, face, panelPadding, c.top+labelBaseline, textBright)
		col := textBright
		if !c.known {
			col = textDim
		}
		w := text.BoundString(face, c.shown).Dx()
		text.Draw(h.panel, c.shown, face, c.minus.Min.X-buttonGap-w, c.top+labelBaseline, col)
		_, down := h.target(c, -1)
		_, up := h.target(c, 1)
		h.button(c.minus, "-", down)
		h.button(c.plus, "+", up)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

// layout places controls below the status block.
func (h *HUD) layout() {
	top := panelPadding + headerBaseline + len(h.status)*statusLine + controlsGap
	for i := range h.controls {
		c := &h.controls[i]
		c.top = top + i*lineHeight
		by := c.top + (lineHeight-buttonSize)/2
		c.plus = image.Rect(h.width-panelPadding-buttonSize, by, h.width-panelPadding, by+buttonSize)
		c.minus = image.Rect(c.plus.Min.X-buttonGap-buttonSize, by, c.plus.Min.X-buttonGap, by+buttonSize)
	}
}

func (h *HUD) refresh() {
	var snap core.ParameterSnapshot
	if p, ok := h.sim.(parameterProvider); ok {
		snap = p.Parameters()
	}
	for i := range h.controls {
		c := &h.controls[i]
		param, found := snap.Lookup(c.Key)
		v, err := strconv.ParseFloat(param.Value, 64)
		c.known = found && err == nil
		if !c.known {
			c.shown = "--"
			continue
		}
		c.value = v
		c.shown = formatControl(c.ParameterControl, v)
	}
}

func (h *HUD) click(x, y int) {
	if x < 0 {
		return
	}
	pt := image.Pt(x, y)
	for i := range h.controls {
		c := &h.controls[i]
		switch {
		case pt.In(c.minus):
			h.apply(c, -1)
			return
		case pt.In(c.plus):
			h.apply(c, 1)
			return
		}
	}
}

// target returns the value one step in direction dir and whether the control
// can move there.
func (h *HUD) target(c *control, dir int) (float64, bool) {
	if !c.known {
		return 0, false
	}
	if (c.Type == core.ParamTypeInt && h.ints == nil) || (c.Type == core.ParamTypeFloat && h.floats == nil) {
		return 0, false
	}
	return c.Next(c.value, dir)
}

func (h *HUD) apply(c *control, dir int) {
	v, ok := h.target(c, dir)
	if !ok {
		return
	}
	var accepted bool
	if c.Type == core.ParamTypeInt {
		accepted = h.ints.SetIntParameter(c.Key, int(v))
	} else {
		accepted = h.floats.SetFloatParameter(c.Key, v)
	}
	if accepted {
		c.value = v
		c.shown = formatControl(c.ParameterControl, v)
	}
}

func (h *HUD) button(r image.Rectangle, label string, enabled bool) {
	bg, fg := buttonOn, textBright
	if !enabled {
		bg, fg = buttonOff, textDim
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	text.Draw(h.panel, label, face, r.Min.X+(r.Dx()-b.Dx())/2, r.Min.Y+(r.Dy()+b.Dy())/2, fg)
}

// formatControl prints v with as many decimals as the control's step needs.
func formatControl(c core.ParameterControl, v float64) string {
	if c.Type == core.ParamTypeInt {
		return strconv.Itoa(int(v))
	}
	precision := 1
	switch {
	case c.Step < 0.001:
		precision = 4
	case c.Step < 0.01:
		precision = 3
	case c.Step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

const (
	panelPadding   = 12
	lineHeight     = 32
	statusLine     = 16
	controlsGap    = 14
	buttonSize     = 22
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 21
)
