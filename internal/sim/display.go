package sim

import (
	"image/color"

	"cellworld/internal/registry"
	"cellworld/internal/world"
)

// Display values pack the biome, a populated flag and a faction colour slot.
const (
	displayBiomeMask     = 0x07
	displayPopulatedBit  = 0x08
	displayFactionShift  = 4
	displayFactionMask   = 0x70
	displayFactionColors = 7
)

var worldPalette = buildWorldPalette()

// Palette exposes the colours used to render display values.
func (v *View) Palette() []color.RGBA {
	return worldPalette
}

func buildWorldPalette() []color.RGBA {
	palette := make([]color.RGBA, 128)
	for i := range palette {
		biome := world.Biome(i & displayBiomeMask)
		populated := i&displayPopulatedBit != 0
		slot := (i & displayFactionMask) >> displayFactionShift
		palette[i] = toRGBA(paletteColorFor(biome, populated, slot))
	}
	return palette
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func paletteColorFor(biome world.Biome, populated bool, slot int) color.NRGBA {
	base := biomeColor(biome)
	if slot > 0 {
		base = blendColors(base, factionColor(slot), 0.55)
	}
	if populated {
		base = blendColors(base, color.NRGBA{R: 250, G: 240, B: 210, A: 255}, 0.25)
	}
	return base
}

func biomeColor(b world.Biome) color.NRGBA {
	switch b {
	case world.BiomeOcean:
		return color.NRGBA{R: 28, G: 60, B: 120, A: 255}
	case world.BiomeBeach:
		return color.NRGBA{R: 210, G: 196, B: 140, A: 255}
	case world.BiomePlains:
		return color.NRGBA{R: 110, G: 160, B: 80, A: 255}
	case world.BiomeForest:
		return color.NRGBA{R: 40, G: 100, B: 55, A: 255}
	case world.BiomeHills:
		return color.NRGBA{R: 120, G: 110, B: 70, A: 255}
	case world.BiomeMountain:
		return color.NRGBA{R: 180, G: 180, B: 200, A: 255}
	case world.BiomeDesert:
		return color.NRGBA{R: 220, G: 190, B: 110, A: 255}
	case world.BiomeTundra:
		return color.NRGBA{R: 225, G: 230, B: 235, A: 255}
	default:
		return color.NRGBA{A: 255}
	}
}

var factionColors = [displayFactionColors]color.NRGBA{
	{R: 220, G: 50, B: 47, A: 255},
	{R: 38, G: 139, B: 210, A: 255},
	{R: 211, G: 54, B: 130, A: 255},
	{R: 203, G: 75, B: 22, A: 255},
	{R: 108, G: 113, B: 196, A: 255},
	{R: 42, G: 161, B: 152, A: 255},
	{R: 181, G: 137, B: 0, A: 255},
}

func factionColor(slot int) color.NRGBA {
	return factionColors[(slot-1)%displayFactionColors]
}

func blendColors(base, overlay color.NRGBA, overlayWeight float64) color.NRGBA {
	if overlayWeight <= 0 {
		return base
	}
	if overlayWeight >= 1 {
		return overlay
	}
	br, bg, bb, ba := float64(base.R), float64(base.G), float64(base.B), float64(base.A)
	or, og, ob, oa := float64(overlay.R), float64(overlay.G), float64(overlay.B), float64(overlay.A)
	w := overlayWeight
	inv := 1 - w
	return color.NRGBA{
		R: uint8(br*inv + or*w + 0.5),
		G: uint8(bg*inv + og*w + 0.5),
		B: uint8(bb*inv + ob*w + 0.5),
		A: uint8(ba*inv + oa*w + 0.5),
	}
}

// encodeDisplayValue packs cell i of w. Factions share the seven colour slots
// by id.
func encodeDisplayValue(w *world.World, i int) uint8 {
	value := uint8(w.Biome(i)) & displayBiomeMask
	if w.Population != nil && w.Population[i] > 0 {
		value |= displayPopulatedBit
	}
	if w.Faction != nil {
		if id := w.Faction[i]; id != registry.Unclaimed && id > 0 {
			slot := uint8((id-1)%displayFactionColors) + 1
			value |= (slot << displayFactionShift) & displayFactionMask
		}
	}
	return value
}
