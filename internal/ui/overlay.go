//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"cellworld/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type maskProvider interface {
	WaterMask() []float32
	ChaosMask() []float32
}

type windFieldProvider interface {
	WindVectorAt(x, y float64) (float64, float64)
}

type elevationFieldProvider interface {
	ElevationField() []int16
}

// maskLayer tints the map by a per-pixel intensity in [0,1].
type maskLayer struct {
	key   ebiten.Key
	tint  color.RGBA
	field func(maskProvider) []float32
	on    bool
}

// Overlay draws toggleable field visualizations over the map: 1 water,
// 2 chaos, 3 wind, 4 elevation.
type Overlay struct {
	sim   core.Sim
	scale int

	masks    []maskLayer
	showWind bool
	showElev bool

	img   *ebiten.Image
	buf   []byte
	pixel *ebiten.Image
}

// NewOverlay builds an overlay for sim drawn at scale.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{
		sim:   sim,
		scale: max(1, scale),
		masks: []maskLayer{
			{key: ebiten.KeyDigit1, tint: color.RGBA{R: 64, G: 164, B: 223}, field: maskProvider.WaterMask},
			{key: ebiten.KeyDigit2, tint: color.RGBA{R: 200, G: 60, B: 220}, field: maskProvider.ChaosMask},
		},
	}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles layers from the number keys.
func (o *Overlay) Update() {
	for i := range o.masks {
		if inpututil.IsKeyJustPressed(o.masks[i].key) {
			o.masks[i].on = !o.masks[i].on
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showWind = !o.showWind
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit4) {
		o.showElev = !o.showElev
	}
}

// Draw renders every enabled layer onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	total := size.W * size.H
	if total <= 0 {
		return
	}
	if o.img == nil || o.img.Bounds().Dx() != size.W || o.img.Bounds().Dy() != size.H {
		o.img = ebiten.NewImage(size.W, size.H)
		o.buf = make([]byte, 4*total)
	}

	if p, ok := o.sim.(elevationFieldProvider); ok && o.showElev {
		if o.fillElevation(p.ElevationField(), size) {
			o.blit(screen)
		}
	}
	if p, ok := o.sim.(maskProvider); ok {
		for _, m := range o.masks {
			if m.on && o.fillMask(m.field(p), m.tint) {
				o.blit(screen)
			}
		}
	}
	if p, ok := o.sim.(windFieldProvider); ok && o.showWind {
		o.drawWind(screen, p, size)
	}
}

func (o *Overlay) blit(screen *ebiten.Image) {
	o.img.WritePixels(o.buf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.img, op)
}

// fillMask writes a tinted, intensity-weighted alpha layer.
func (o *Overlay) fillMask(mask []float32, tint color.RGBA) bool {
	if len(mask)*4 != len(o.buf) {
		return false
	}
	const maxAlpha = 140.0
	for i, v := range mask {
		px := o.buf[i*4 : i*4+4]
		t := clamp01(float64(v))
		if t == 0 {
			clear(px)
			continue
		}
		glow := 0.35 + 0.65*math.Sqrt(t)
		px[0] = scaleComponent(tint.R, glow)
		px[1] = scaleComponent(tint.G, glow)
		px[2] = scaleComponent(tint.B, glow)
		px[3] = uint8(math.Round(maxAlpha * math.Pow(t, 0.75)))
	}
	return true
}

// fillElevation colours heights on a ramp and darkens flat ground so slopes
// stand out.
func (o *Overlay) fillElevation(field []int16, size core.Size) bool {
	if len(field)*4 != len(o.buf) {
		return false
	}
	lo, hi := field[0], field[0]
	for _, v := range field {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := max(1, float64(hi)-float64(lo))
	for i, v := range field {
		x := i % size.W
		slope := 0
		for _, n := range [4]int{i - 1, i + 1, i - size.W, i + size.W} {
			if n < 0 || n >= len(field) || (n == i-1 && x == 0) || (n == i+1 && x == size.W-1) {
				continue
			}
			slope = max(slope, absInt(int(v)-int(field[n])))
		}
		col := elevationColor((float64(v) - float64(lo)) / span)
		alpha := float64(col.A) * (0.55 + 0.45*clamp01(float64(slope)/span))
		px := o.buf[i*4 : i*4+4]
		px[0], px[1], px[2], px[3] = col.R, col.G, col.B, uint8(math.Round(alpha))
	}
	return true
}

// drawWind draws an arrow per sample on a grid of roughly 360 samples.
func (o *Overlay) drawWind(screen *ebiten.Image, p windFieldProvider, size core.Size) {
	const (
		calm      = 0.05
		maxSpeed  = 1.1
		headAngle = math.Pi / 6
	)
	spacing := int(math.Sqrt(float64(size.W*size.H) / 360))
	spacing = min(20, max(6, spacing))
	span := float64(spacing * o.scale)
	calmDot := color.RGBA{R: 90, G: 130, B: 170, A: 120}

	for cy := spacing / 2; cy < size.H; cy += spacing {
		for cx := spacing / 2; cx < size.W; cx += spacing {
			gx, gy := float64(cx)+0.5, float64(cy)+0.5
			sx, sy := gx*float64(o.scale), gy*float64(o.scale)
			vx, vy := p.WindVectorAt(gx, gy)
			speed := math.Hypot(vx, vy)
			if speed < calm {
				d := max(span*0.18, float64(o.scale)*0.75)
				o.line(screen, sx-d/2, sy, sx+d/2, sy, d, calmDot)
				continue
			}
			t := clamp01(speed / maxSpeed)
			length := span * (0.35 + 0.35*math.Sqrt(t))
			head := math.Min(length*0.3, float64(o.scale)*4.5)
			thick := max(1, float64(o.scale)*(0.65+0.4*t))
			col := windColor(t)

			angle := math.Atan2(vy, vx)
			nx, ny := math.Cos(angle), math.Sin(angle)
			tipX, tipY := sx+nx*length*0.6, sy+ny*length*0.6
			o.line(screen, sx-nx*length*0.4, sy-ny*length*0.4, tipX-nx*head, tipY-ny*head, thick, col)
			for _, side := range [2]float64{headAngle, -headAngle} {
				o.line(screen, tipX, tipY, tipX-math.Cos(angle+side)*head, tipY-math.Sin(angle+side)*head, thick*0.85, col)
			}
		}
	}
}

func (o *Overlay) line(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	length := math.Hypot(x2-x1, y2-y1)
	if length <= 1e-4 || thickness <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(y2-y1, x2-x1))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func windColor(t float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(80 + 70*t)),
		G: uint8(math.Round(170 + 70*t)),
		B: uint8(math.Round(230 + 20*t)),
		A: uint8(math.Round(150 + 90*t)),
	}
}

var elevationStops = []struct {
	t   float64
	col color.RGBA
}{
	{0.0, color.RGBA{R: 40, G: 60, B: 120, A: 150}},
	{0.25, color.RGBA{R: 70, G: 105, B: 160, A: 165}},
	{0.5, color.RGBA{R: 90, G: 150, B: 100, A: 185}},
	{0.75, color.RGBA{R: 190, G: 160, B: 80, A: 205}},
	{1.0, color.RGBA{R: 240, G: 235, B: 215, A: 215}},
}

func elevationColor(t float64) color.RGBA {
	t = clamp01(t)
	for i := 1; i < len(elevationStops); i++ {
		a, b := elevationStops[i-1], elevationStops[i]
		if t <= b.t {
			f := (t - a.t) / (b.t - a.t)
			return color.RGBA{
				R: lerp(a.col.R, b.col.R, f),
				G: lerp(a.col.G, b.col.G, f),
				B: lerp(a.col.B, b.col.B, f),
				A: lerp(a.col.A, b.col.A, f),
			}
		}
	}
	return elevationStops[len(elevationStops)-1].col
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func scaleComponent(v uint8, f float64) uint8 {
	return uint8(math.Round(min(255, max(0, float64(v)*f))))
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
