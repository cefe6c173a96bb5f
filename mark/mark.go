// Package mark keeps named, coloured annotations over ranges of tape cells.
package mark

import (
	"image/color"
	"iter"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

const (
	CONTRAST_MINIMUM = 4.5 // Minimum contrast against black before switching to white text.
)

// Memory is the annotated address space.
type Memory interface {
	Len() int
}

// Mark is a coloured cell range [From, To).
type Mark struct {
	Name       string
	From       int
	To         int
	Color      string     // CSS colour, as given.
	Background color.RGBA // Parsed colour.
	Foreground string     // "white" or "black", whichever reads on Background.
}

// Contains returns true if index lies in the mark.
func (mk *Mark) Contains(index int) bool {
	return index >= mk.From && index < mk.To
}

// Marks is an annotation sink for the debugger.
type Marks struct {
	Memory Memory // Used to clamp marks; unclamped above if nil.

	marks map[string]*Mark
}

// NewMarks creates a sink clamping marks to memory.
func NewMarks(memory Memory) *Marks {
	return &Marks{
		Memory: memory,
		marks:  make(map[string]*Mark),
	}
}

// Reset removes every mark.
func (ms *Marks) Reset() {
	clear(ms.marks)
}

// AddMark annotates size cells starting at pos. A mark of the same name is
// replaced. Ranges are clamped to the memory; empty ranges are dropped.
func (ms *Marks) AddMark(name string, pos, size int, css string) {
	ms.RemoveMark(name)

	end := max(pos+size, 0)
	if ms.Memory != nil {
		end = min(end, ms.Memory.Len())
	}
	pos = max(pos, 0)
	if pos >= end {
		return
	}

	background, err := ParseColor(css)
	if err != nil {
		return
	}

	if ms.marks == nil {
		ms.marks = make(map[string]*Mark)
	}

	ms.marks[name] = &Mark{
		Name:       name,
		From:       pos,
		To:         end,
		Color:      css,
		Background: background,
		Foreground: Foreground(background),
	}
}

// RemoveMark removes a mark, if present.
func (ms *Marks) RemoveMark(name string) {
	delete(ms.marks, name)
}

// Get returns a mark by name.
func (ms *Marks) Get(name string) (mk *Mark, ok bool) {
	mk, ok = ms.marks[name]
	return
}

// Len returns the number of marks.
func (ms *Marks) Len() int {
	return len(ms.marks)
}

// At returns the mark covering index. When marks overlap the one with the
// lowest start, then name, wins.
func (ms *Marks) At(index int) (mk *Mark, ok bool) {
	for candidate := range ms.All() {
		if candidate.Contains(index) {
			return candidate, true
		}
	}
	return
}

// All iterates over the marks ordered by start, then name.
func (ms *Marks) All() iter.Seq[*Mark] {
	list := slices.Collect(maps.Values(ms.marks))
	slices.SortFunc(list, func(a, b *Mark) int {
		if a.From != b.From {
			return a.From - b.From
		}
		return strings.Compare(a.Name, b.Name)
	})
	return slices.Values(list)
}

// ParseColor parses a CSS colour token; '_' stands in for '-'.
func ParseColor(css string) (rgba color.RGBA, err error) {
	c, err := csscolorparser.Parse(strings.ReplaceAll(css, "_", "-"))
	if err != nil {
		return
	}

	r, g, b, a := c.RGBA255()
	rgba = color.RGBA{R: r, G: g, B: b, A: a}
	return
}

// Foreground selects black or white text for a background, using the
// WCAG relative luminance of the alpha scaled colour.
func Foreground(background color.RGBA) string {
	alpha := float64(background.A) / 255
	linear := func(v uint8) float64 {
		e := float64(v) * alpha / 255
		if e <= 0.03928 {
			return e / 12.92
		}
		return math.Pow((e+0.055)/1.055, 2.4)
	}

	l := 0.2126*linear(background.R) + 0.7152*linear(background.G) + 0.0722*linear(background.B)
	if (l+0.05)/0.05 < CONTRAST_MINIMUM {
		return "white"
	}

	return "black"
}
