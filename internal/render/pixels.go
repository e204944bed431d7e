// Package render turns display buffers into RGBA pixels.
package render

import "image/color"

// fillBinaryRGBA paints non-zero cells with on and the rest with off.
func fillBinaryRGBA(buf []byte, cells []uint8, on, off color.Color) {
	rOn, gOn, bOn, aOn := on.RGBA()
	rOff, gOff, bOff, aOff := off.RGBA()
	lit := [4]byte{uint8(rOn >> 8), uint8(gOn >> 8), uint8(bOn >> 8), uint8(aOn >> 8)}
	dark := [4]byte{uint8(rOff >> 8), uint8(gOff >> 8), uint8(bOff >> 8), uint8(aOff >> 8)}
	for i, c := range cells {
		px := dark
		if c != 0 {
			px = lit
		}
		copy(buf[i*4:i*4+4], px[:])
	}
}

// fillPaletteRGBA looks every display value up in palette. Values past the end
// use the last entry; an empty palette clears the buffer to transparent.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}
	last := len(palette) - 1
	for i, c := range cells {
		col := palette[min(int(c), last)]
		base := i * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
