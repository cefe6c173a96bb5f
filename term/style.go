package term

import (
	"image/color"
)

// Blink is a text blink rate.
type Blink int

const (
	BLINK_NONE = Blink(0)
	BLINK_SLOW = Blink(1)
	BLINK_FAST = Blink(2)
)

// Style is the graphic rendition state selected by SGR sequences.
type Style struct {
	Foreground    int // Palette index, or COLOR_NONE.
	Background    int // Palette index, or COLOR_NONE.
	Bold          bool
	Dim           bool
	Italic        bool
	Underline     bool
	Blink         Blink
	Inverted      bool
	Concealed     bool
	Strikethrough bool
}

// DefaultStyle is the style of a freshly reset renderer.
func DefaultStyle() Style {
	return Style{
		Foreground: COLOR_NONE,
		Background: COLOR_NONE,
	}
}

// Ambient is the host's default colour pair.
type Ambient struct {
	Foreground color.RGBA
	Background color.RGBA
}

// DefaultAmbient is light gray on black.
var DefaultAmbient = Ambient{
	Foreground: color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
	Background: color.RGBA{A: 0xff},
}

// Resolve computes the displayed foreground and background colours.
//   - Inverted swaps the foreground and background.
//   - Bold moves foreground indices 0-7 to their high intensity slots.
//   - Dim lowers both colours.
//   - Concealed makes the foreground fully transparent.
func (st Style) Resolve(palette *Palette, ambient Ambient) (fg, bg color.RGBA) {
	fgIndex, bgIndex := st.Foreground, st.Background
	fgAmbient, bgAmbient := ambient.Foreground, ambient.Background
	if st.Inverted {
		fgIndex, bgIndex = bgIndex, fgIndex
		fgAmbient, bgAmbient = bgAmbient, fgAmbient
	}

	if st.Concealed {
		fg = color.RGBA{}
	} else {
		if fgIndex == COLOR_NONE {
			fg = fgAmbient
		} else {
			if st.Bold && fgIndex >= 0 && fgIndex < 8 {
				fgIndex += 8
			}
			fg = palette[fgIndex]
		}
		if st.Dim {
			fg = dim(fg)
		}
	}

	if bgIndex == COLOR_NONE {
		bg = bgAmbient
	} else {
		bg = palette[bgIndex]
	}
	if st.Dim {
		bg = dim(bg)
	}

	return
}
