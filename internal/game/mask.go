package game

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// blockedLuminance is the averaged-RGB threshold below which a pixel is a wall.
const blockedLuminance = 128

// Mask is the walkable raster of a map. It is built once and never mutated.
type Mask struct {
	Width, Height int
	blocked       []bool
}

// NewClearMask returns a mask with no obstacles.
func NewClearMask(w, h int) *Mask {
	return &Mask{Width: w, Height: h, blocked: make([]bool, w*h)}
}

// LoadMask decodes the collision image at path and rasterizes it to w×h.
func LoadMask(path string, w, h int) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open collision mask: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode collision mask %s: %w", path, err)
	}
	return MaskFromImage(img, w, h), nil
}

// MaskFromImage rasterizes img to w×h. Images of a different size are sampled
// nearest-neighbour so the mask always matches the map.
func MaskFromImage(img image.Image, w, h int) *Mask {
	m := &Mask{Width: w, Height: h, blocked: make([]bool, w*h)}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return m
	}
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			r, g, bl, _ := img.At(sx, sy).RGBA()
			// RGBA() is 16-bit per channel
			avg := (r>>8 + g>>8 + bl>>8) / 3
			m.blocked[y*w+x] = avg < blockedLuminance
		}
	}
	return m
}

// At reports whether the pixel (x, y) is blocked. Indices outside the grid
// are blocked.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return true
	}
	idx := y*m.Width + x
	if idx >= len(m.blocked) {
		return true
	}
	return m.blocked[idx]
}

// BlockedCount returns the number of blocked pixels.
func (m *Mask) BlockedCount() int {
	n := 0
	for _, b := range m.blocked {
		if b {
			n++
		}
	}
	return n
}
