package term

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var sgrPattern = regexp.MustCompile(`^\[[;0-9]*m$`)

// parseSGR extracts the parameters of an `ESC [ params m` sequence.
// Empty parameters are 0. ok is false for any other sequence.
func parseSGR(sequence []byte) (params []int, ok bool) {
	if len(sequence) < 2 || sequence[0] != ESC {
		return
	}

	body := string(sequence[1:])
	if !sgrPattern.MatchString(body) {
		return
	}

	for _, word := range strings.Split(body[1:len(body)-1], ";") {
		value := 0
		if len(word) != 0 {
			var err error
			value, err = strconv.Atoi(word)
			if err != nil {
				// Absurdly long parameters: treat as unknown codes.
				value = -1
			}
		}
		params = append(params, value)
	}

	ok = true
	return
}

// applySGR updates a style from SGR parameters. The direct RGB codes
// store their colour in the palette.
func applySGR(st *Style, palette *Palette, params []int) {
	next := func() (value int) {
		if len(params) > 0 {
			value = params[0]
			params = params[1:]
		}
		return
	}

	extended := func(slot int) (index int, ok bool) {
		switch next() {
		case 2:
			var rgb [3]uint8
			for n := range rgb {
				rgb[n] = uint8(min(max(next(), 0), 255))
			}
			palette[slot] = color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
			return slot, true
		case 5:
			index = next()
			ok = index >= 0 && index < 256
		}
		return
	}

	for len(params) > 0 {
		p := next()
		switch {
		case p == 0:
			*st = DefaultStyle()
		case p == 1:
			st.Bold = true
		case p == 2:
			st.Dim = true
		case p == 3:
			st.Italic = true
		case p == 4, p == 21:
			st.Underline = true
		case p == 5:
			st.Blink = BLINK_SLOW
		case p == 6:
			st.Blink = BLINK_FAST
		case p == 7:
			st.Inverted = true
		case p == 8:
			st.Concealed = true
		case p == 9:
			st.Strikethrough = true
		case p == 22:
			st.Bold = false
			st.Dim = false
		case p == 23:
			st.Italic = false
		case p == 24:
			st.Underline = false
		case p == 25:
			st.Blink = BLINK_NONE
		case p == 27:
			st.Inverted = false
		case p == 28:
			st.Concealed = false
		case p == 29:
			st.Strikethrough = false
		case p >= 30 && p <= 37:
			st.Foreground = p - 30
		case p == 38:
			if index, ok := extended(COLOR_RGB_FG); ok {
				st.Foreground = index
			}
		case p == 39:
			st.Foreground = COLOR_NONE
		case p >= 40 && p <= 47:
			st.Background = p - 40
		case p == 48:
			if index, ok := extended(COLOR_RGB_BG); ok {
				st.Background = index
			}
		case p == 49:
			st.Background = COLOR_NONE
		case p >= 90 && p <= 97:
			st.Foreground = p - 90 + 8
		case p >= 100 && p <= 107:
			st.Background = p - 100 + 8
		}
	}
}
