package term

import (
	"image/color"
)

const (
	PALETTE_SIZE = 258 // 256 indexed colours plus the two direct RGB slots.
	COLOR_RGB_FG = 256 // Palette slot holding a direct RGB foreground.
	COLOR_RGB_BG = 257 // Palette slot holding a direct RGB background.
	COLOR_NONE   = -1  // Default colour: use the host's ambient colour.
)

// Palette is the 256 colour table plus two direct RGB slots.
type Palette [PALETTE_SIZE]color.RGBA

var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

// DefaultPalette returns the xterm style palette:
//   - 0-7 normal and 8-15 high intensity ANSI colours,
//   - 16-231 the 6x6x6 colour cube,
//   - 232-255 the grayscale ramp,
//   - 256-257 zeroed direct RGB slots.
func DefaultPalette() (p Palette) {
	for n := range 16 {
		lo, hi := uint8(0), uint8(187)
		if n >= 8 {
			lo, hi = 68, 255
		}
		level := func(bit int) uint8 {
			if n&bit != 0 {
				return hi
			}
			return lo
		}
		p[n] = color.RGBA{R: level(1), G: level(2), B: level(4), A: 255}
	}

	for r := range 6 {
		for g := range 6 {
			for b := range 6 {
				p[16+36*r+6*g+b] = color.RGBA{R: cubeLevels[r], G: cubeLevels[g], B: cubeLevels[b], A: 255}
			}
		}
	}

	for n := range 24 {
		v := uint8(8 + 10*n)
		p[232+n] = color.RGBA{R: v, G: v, B: v, A: 255}
	}

	p[COLOR_RGB_FG] = color.RGBA{A: 255}
	p[COLOR_RGB_BG] = color.RGBA{A: 255}

	return
}

// dim lowers the intensity of a colour.
func dim(c color.RGBA) color.RGBA {
	half := func(v uint8) uint8 {
		return uint8((int(v) + 30) / 2)
	}
	return color.RGBA{R: half(c.R), G: half(c.G), B: half(c.B), A: c.A}
}
