// Package heightmap adapts grayscale images into height samples.
package heightmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrEmptyImage reports an image without pixels.
var ErrEmptyImage = errors.New("heightmap: image has no pixels")

// Sampler is a 2D grayscale source with values in [0,1].
type Sampler interface {
	Size() (w, h int)
	Gray(x, y int) float32
}

// Sample returns the nearest pixel for the normalized position (u, v).
// Coordinates outside [0,1] clamp to the image edge.
func Sample(s Sampler, u, v float32) float32 {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return 0
	}
	x := clampInt(int(u*float32(w)), 0, w-1)
	y := clampInt(int(v*float32(h)), 0, h-1)
	return s.Gray(x, y)
}

// Grid is an in-memory Sampler, mostly useful for tests and generated data.
type Grid struct {
	W, H   int
	Values []float32
}

// Size implements Sampler.
func (g *Grid) Size() (int, int) { return g.W, g.H }

// Gray implements Sampler.
func (g *Grid) Gray(x, y int) float32 { return g.Values[y*g.W+x] }

// ImageSampler reads luminance from any decoded image, keeping 16-bit
// precision when the source has it.
type ImageSampler struct {
	img    image.Image
	bounds image.Rectangle
}

// FromImage wraps img.
func FromImage(img image.Image) (*ImageSampler, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	return &ImageSampler{img: img, bounds: b}, nil
}

// Size implements Sampler.
func (s *ImageSampler) Size() (int, int) { return s.bounds.Dx(), s.bounds.Dy() }

// Gray implements Sampler.
func (s *ImageSampler) Gray(x, y int) float32 {
	c := color.Gray16Model.Convert(s.img.At(s.bounds.Min.X+x, s.bounds.Min.Y+y)).(color.Gray16)
	return float32(c.Y) / 0xffff
}

// Load decodes a png, jpeg, bmp or tiff heightmap from path.
func Load(path string) (*ImageSampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open heightmap: %w", err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode heightmap %s: %w", path, err)
	}
	s, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("heightmap %s (%s): %w", path, format, err)
	}
	return s, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
