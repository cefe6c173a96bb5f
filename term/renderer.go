// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package term renders program output, decoding the SGR (Select Graphic
// Rendition) escape sequences embedded in the byte stream into styled
// text segments.
package term

import (
	"image/color"
	"slices"

	"golang.org/x/text/encoding"

	bfio "github.com/ezrec/bfenv/io"
)

const (
	LF  = 0x0a // Line feed.
	ESC = 0x1b // Escape sequence introducer.
)

// Segment is a run of text sharing one style.
type Segment struct {
	Style      Style
	Foreground color.RGBA // Resolved foreground.
	Background color.RGBA // Resolved background.
	Text       string
}

// buffer is a span of output bytes, either text or an escape sequence.
type buffer struct {
	data   []byte
	escape bool
}

// Renderer turns program output bytes into segments on a Display.
//
// Bytes are queued into buffers split at line feeds and escape sequences.
// Flush drains every buffer but the one still being written, which is only
// shown provisionally, and retracted at the next flush.
type Renderer struct {
	Display  Display           // Receives the rendered segments.
	Encoding encoding.Encoding // Text encoding of the stream; UTF-8 if nil.
	Ambient  Ambient           // Host default colours.
	Palette  Palette           // Colour table; reset with the renderer.

	style       Style
	buffers     []buffer
	provisional int
	newLine     bool
}

// NewRenderer creates a reset renderer drawing on display.
func NewRenderer(display Display) (r *Renderer) {
	r = &Renderer{
		Display: display,
		Ambient: DefaultAmbient,
	}
	r.Reset()

	return
}

// Reset clears the display, the pending buffers and the style.
func (r *Renderer) Reset() {
	r.buffers = []buffer{{}}
	r.style = DefaultStyle()
	r.Palette = DefaultPalette()
	r.provisional = 0
	r.newLine = true

	r.Display.Clear()
	r.Display.Begin(r.segment())
}

// Style returns the current graphic rendition.
func (r *Renderer) Style() Style {
	return r.style
}

// IsNewLine returns true if nothing was written since the last line feed.
func (r *Renderer) IsNewLine() bool {
	return r.newLine
}

func (r *Renderer) segment() (seg Segment) {
	seg.Style = r.style
	seg.Foreground, seg.Background = r.style.Resolve(&r.Palette, r.Ambient)
	return
}

// Put queues a single output byte.
func (r *Renderer) Put(c byte) {
	r.newLine = c == LF

	if c == ESC {
		r.buffers = append(r.buffers, buffer{data: []byte{c}, escape: true})
		return
	}

	last := &r.buffers[len(r.buffers)-1]
	if last.escape {
		if c < 0x20 {
			// Control characters are not part of the escape sequence;
			// they go to the text preceding it.
			n := len(r.buffers) - 2
			if n < 0 || r.buffers[n].escape {
				r.buffers = slices.Insert(r.buffers, len(r.buffers)-1, buffer{})
				n = len(r.buffers) - 2
			}
			r.buffers[n].data = append(r.buffers[n].data, c)
			return
		}

		last.data = append(last.data, c)
		if len(last.data) == 2 && c == '[' {
			return
		}
		if c >= 0x40 {
			r.buffers = append(r.buffers, buffer{})
		}
		return
	}

	last.data = append(last.data, c)
	if c == LF {
		r.buffers = append(r.buffers, buffer{})
	}
}

// Write queues output bytes. It never fails.
func (r *Renderer) Write(data []byte) (n int, err error) {
	for _, c := range data {
		r.Put(c)
	}

	n = len(data)
	return
}

// Print queues encoded text, and flushes.
func (r *Renderer) Print(text string) {
	r.print(text)
	r.Flush()
}

// Println queues encoded text and a line feed, and flushes.
func (r *Renderer) Println(text string) {
	r.print(text)
	r.Put(LF)
	r.Flush()
}

func (r *Renderer) print(text string) {
	data, err := bfio.Encode(r.Encoding, text)
	if err != nil {
		data = []byte(text)
	}
	r.Write(data)
}

// Flush renders all completed buffers.
func (r *Renderer) Flush() {
	if r.provisional > 0 {
		r.Display.Retract(r.provisional)
		r.provisional = 0
	}

	last := len(r.buffers) - 1
	for _, buf := range r.buffers[:last] {
		if buf.escape {
			params, ok := parseSGR(buf.data)
			if !ok {
				continue
			}
			applySGR(&r.style, &r.Palette, params)
			r.Display.Begin(r.segment())
			continue
		}
		if len(buf.data) > 0 {
			r.Display.Append(bfio.Decode(r.Encoding, buf.data))
		}
	}

	tail := r.buffers[last]
	if !tail.escape && len(tail.data) > 0 {
		text := bfio.Decode(r.Encoding, tail.data)
		r.Display.Append(text)
		r.provisional = len(text)
	}

	r.buffers = append(r.buffers[:0], tail)
}
