package mark

import (
	"image/color"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

type memory int

func (m memory) Len() int { return int(m) }

func TestParseColor(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		css  string
		rgba color.RGBA
		ok   bool
	}){
		{"red", color.RGBA{255, 0, 0, 255}, true},
		{"#00ff00", color.RGBA{0, 255, 0, 255}, true},
		{"rgb(0,0,255)", color.RGBA{0, 0, 255, 255}, true},
		{"transparent", color.RGBA{0, 0, 0, 0}, true},
		{"not_a_colour", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}

	for _, entry := range table {
		rgba, err := ParseColor(entry.css)
		if entry.ok {
			assert.NoError(err, entry.css)
			assert.Equal(entry.rgba, rgba, entry.css)
		} else {
			assert.Error(err, entry.css)
		}
	}
}

func TestForeground(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("black", Foreground(color.RGBA{255, 255, 255, 255}))
	assert.Equal("black", Foreground(color.RGBA{255, 0, 0, 255}))
	assert.Equal("black", Foreground(color.RGBA{255, 255, 0, 255}))
	assert.Equal("white", Foreground(color.RGBA{0, 0, 0, 255}))
	assert.Equal("white", Foreground(color.RGBA{0, 0, 128, 255}))
	assert.Equal("white", Foreground(color.RGBA{255, 255, 255, 0}))
}

func TestAddRemove(t *testing.T) {
	assert := assert.New(t)

	ms := NewMarks(memory(16))

	ms.AddMark("x", 0, 4, "red")
	mk, ok := ms.Get("x")
	assert.True(ok)
	assert.Equal(0, mk.From)
	assert.Equal(4, mk.To)
	assert.Equal("black", mk.Foreground)
	assert.Equal(1, ms.Len())

	ms.RemoveMark("x")
	_, ok = ms.Get("x")
	assert.False(ok)
	assert.Equal(0, ms.Len())

	ms.RemoveMark("never")
	assert.Equal(0, ms.Len())
}

func TestClamp(t *testing.T) {
	assert := assert.New(t)

	ms := NewMarks(memory(16))

	ms.AddMark("low", -2, 4, "blue")
	mk, ok := ms.Get("low")
	assert.True(ok)
	assert.Equal(0, mk.From)
	assert.Equal(2, mk.To)

	ms.AddMark("high", 14, 10, "blue")
	mk, ok = ms.Get("high")
	assert.True(ok)
	assert.Equal(14, mk.From)
	assert.Equal(16, mk.To)

	ms.AddMark("gone", 20, 4, "blue")
	_, ok = ms.Get("gone")
	assert.False(ok)

	ms.AddMark("neg", -8, 4, "blue")
	_, ok = ms.Get("neg")
	assert.False(ok)
}

func TestReplace(t *testing.T) {
	assert := assert.New(t)

	ms := NewMarks(nil)
	ms.AddMark("a", 0, 2, "red")
	ms.AddMark("a", 8, 2, "navy")

	mk, ok := ms.Get("a")
	assert.True(ok)
	assert.Equal(8, mk.From)
	assert.Equal("white", mk.Foreground)

	// A replacement that clamps to nothing still removes the old mark.
	ms.AddMark("a", -4, 2, "red")
	_, ok = ms.Get("a")
	assert.False(ok)
}

func TestAt(t *testing.T) {
	assert := assert.New(t)

	ms := NewMarks(memory(32))
	ms.AddMark("b", 4, 8, "green")
	ms.AddMark("a", 6, 2, "yellow")

	mk, ok := ms.At(5)
	assert.True(ok)
	assert.Equal("b", mk.Name)

	mk, ok = ms.At(12)
	assert.False(ok)
	assert.Nil(mk)

	var names []string
	for mk := range ms.All() {
		names = append(names, mk.Name)
	}
	assert.Equal([]string{"b", "a"}, names)

	ms.Reset()
	assert.Equal(0, len(slices.Collect(ms.All())))
}
