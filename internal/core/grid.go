package core

// ByteGrid is a row-major raster of display values.
type ByteGrid struct {
	W, H int
	data []uint8
}

// NewByteGrid allocates a raster of at least one pixel per side.
func NewByteGrid(w, h int) *ByteGrid {
	w, h = max(1, w), max(1, h)
	return &ByteGrid{W: w, H: h, data: make([]uint8, w*h)}
}

// Size returns the raster dimensions.
func (g *ByteGrid) Size() Size { return Size{W: g.W, H: g.H} }

// Cells exposes the backing slice so callers can read/write values directly.
func (g *ByteGrid) Cells() []uint8 { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *ByteGrid) Index(x, y int) int { return y*g.W + x }

// Clamp pulls (x, y) onto the raster.
func (g *ByteGrid) Clamp(x, y int) (int, int) {
	return min(g.W-1, max(0, x)), min(g.H-1, max(0, y))
}

// Fill sets every pixel to v.
func (g *ByteGrid) Fill(v uint8) {
	for i := range g.data {
		g.data[i] = v
	}
}
