package term

import (
	"fmt"
	"io"
	"strings"
)

// Display is the host surface segments are drawn on.
type Display interface {
	// Clear removes everything drawn.
	Clear()
	// Begin starts a new, empty, segment.
	Begin(seg Segment)
	// Append adds text to the current segment.
	Append(text string)
	// Retract removes the last n bytes of text from the current segment.
	Retract(n int)
}

// Document keeps every segment in memory.
type Document struct {
	Segments []Segment
}

var _ Display = (*Document)(nil)

func (doc *Document) Clear() {
	doc.Segments = doc.Segments[:0]
}

func (doc *Document) Begin(seg Segment) {
	seg.Text = ""
	doc.Segments = append(doc.Segments, seg)
}

func (doc *Document) Append(text string) {
	if len(doc.Segments) == 0 {
		doc.Begin(Segment{Style: DefaultStyle()})
	}
	doc.Segments[len(doc.Segments)-1].Text += text
}

func (doc *Document) Retract(n int) {
	if len(doc.Segments) == 0 {
		return
	}
	seg := &doc.Segments[len(doc.Segments)-1]
	seg.Text = seg.Text[:len(seg.Text)-min(n, len(seg.Text))]
}

// Text returns the document without styling.
func (doc *Document) Text() string {
	var sb strings.Builder
	for _, seg := range doc.Segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Terminal draws segments on a real terminal with 24-bit colour escapes.
// Retracted text is erased by redrawing the current line.
type Terminal struct {
	Writer io.Writer

	line []Segment // Styled pieces of the unterminated line.
}

var _ Display = (*Terminal)(nil)

func (tm *Terminal) Clear() {
	tm.line = nil
}

func (tm *Terminal) Begin(seg Segment) {
	seg.Text = ""
	tm.line = append(tm.line, seg)
	io.WriteString(tm.Writer, ansi(seg))
}

func (tm *Terminal) Append(text string) {
	if len(tm.line) == 0 {
		tm.Begin(Segment{Style: DefaultStyle()})
	}

	io.WriteString(tm.Writer, text)

	cur := tm.line[len(tm.line)-1]
	if index := strings.LastIndexByte(text, '\n'); index >= 0 {
		cur.Text = text[index+1:]
		tm.line = append(tm.line[:0], cur)
		return
	}
	tm.line[len(tm.line)-1].Text += text
}

func (tm *Terminal) Retract(n int) {
	for n > 0 && len(tm.line) > 0 {
		seg := &tm.line[len(tm.line)-1]
		cut := min(n, len(seg.Text))
		seg.Text = seg.Text[:len(seg.Text)-cut]
		n -= cut
		if n > 0 && len(tm.line) > 1 {
			tm.line = tm.line[:len(tm.line)-1]
		} else {
			break
		}
	}

	io.WriteString(tm.Writer, "\r\x1b[2K")
	for _, seg := range tm.line {
		io.WriteString(tm.Writer, ansi(seg))
		io.WriteString(tm.Writer, seg.Text)
	}
}

// plainColors reports whether the segment uses the ambient colours.
func plainColors(st Style) (fg, bg bool) {
	fg = st.Foreground == COLOR_NONE && !st.Inverted && !st.Dim && !st.Concealed
	bg = st.Background == COLOR_NONE && !st.Inverted && !st.Dim
	return
}

// ansi returns the SGR sequence selecting a segment's style.
func ansi(seg Segment) string {
	st := seg.Style
	codes := []string{"0"}

	if st.Bold {
		codes = append(codes, "1")
	}
	if st.Italic {
		codes = append(codes, "3")
	}
	if st.Underline {
		codes = append(codes, "4")
	}
	switch st.Blink {
	case BLINK_SLOW:
		codes = append(codes, "5")
	case BLINK_FAST:
		codes = append(codes, "6")
	}
	if st.Concealed {
		codes = append(codes, "8")
	}
	if st.Strikethrough {
		codes = append(codes, "9")
	}

	plainFg, plainBg := plainColors(st)
	if !plainFg && !st.Concealed {
		fg := seg.Foreground
		codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", fg.R, fg.G, fg.B))
	}
	if !plainBg {
		bg := seg.Background
		codes = append(codes, fmt.Sprintf("48;2;%d;%d;%d", bg.R, bg.G, bg.B))
	}

	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// Tee forwards every drawing operation to each of its displays.
type Tee []Display

var _ Display = Tee(nil)

func (tee Tee) Clear() {
	for _, d := range tee {
		d.Clear()
	}
}

func (tee Tee) Begin(seg Segment) {
	for _, d := range tee {
		d.Begin(seg)
	}
}

func (tee Tee) Append(text string) {
	for _, d := range tee {
		d.Append(text)
	}
}

func (tee Tee) Retract(n int) {
	for _, d := range tee {
		d.Retract(n)
	}
}
