//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads a display buffer into a single image each frame.
type GridPainter struct {
	w, h    int
	img     *ebiten.Image
	buf     []byte
	palette []color.RGBA

	on, off color.Color
}

// NewGridPainter allocates a painter for a w*h raster. Without a palette cells
// are drawn white on black.
func NewGridPainter(w, h int, palette []color.RGBA) *GridPainter {
	return &GridPainter{
		w:       w,
		h:       h,
		img:     ebiten.NewImage(w, h),
		buf:     make([]byte, 4*w*h),
		palette: palette,
		on:      color.White,
		off:     color.Black,
	}
}

// Blit draws cells onto dst scaled by scale. Buffers of the wrong length are
// skipped.
func (gp *GridPainter) Blit(dst *ebiten.Image, cells []uint8, scale int) {
	if len(cells) != gp.w*gp.h {
		return
	}
	if gp.palette != nil {
		fillPaletteRGBA(gp.buf, cells, gp.palette)
	} else {
		fillBinaryRGBA(gp.buf, cells, gp.on, gp.off)
	}
	gp.img.WritePixels(gp.buf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the raster dimensions.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }
