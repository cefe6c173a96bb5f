package term

import (
	"fmt"
	"html"
	"image/color"
	"io"
	"strings"
)

func cssColor(c color.RGBA) string {
	if c.A == 0 {
		return "transparent"
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// css returns the inline style of a segment.
func css(seg Segment) string {
	st := seg.Style
	var rules []string

	plainFg, plainBg := plainColors(st)
	if !plainFg {
		rules = append(rules, "color:"+cssColor(seg.Foreground))
	}
	if !plainBg {
		rules = append(rules, "background-color:"+cssColor(seg.Background))
	}
	if st.Bold {
		rules = append(rules, "font-weight:bold")
	}
	if st.Italic {
		rules = append(rules, "font-style:italic")
	}

	var lines []string
	if st.Underline {
		lines = append(lines, "underline")
	}
	if st.Strikethrough {
		lines = append(lines, "line-through")
	}
	if len(lines) > 0 {
		rules = append(rules, "text-decoration-line:"+strings.Join(lines, " "))
	}

	switch st.Blink {
	case BLINK_SLOW:
		rules = append(rules, "animation:blink 250ms step-end infinite")
	case BLINK_FAST:
		rules = append(rules, "animation:blink 125ms step-end infinite")
	}

	return strings.Join(rules, ";")
}

// WriteHTML writes segments as a preformatted HTML fragment.
func WriteHTML(w io.Writer, segs []Segment) (err error) {
	var sb strings.Builder

	sb.WriteString("<pre class=\"bfenv-output\">")
	for _, seg := range segs {
		if len(seg.Text) == 0 {
			continue
		}
		text := html.EscapeString(seg.Text)
		if style := css(seg); len(style) > 0 {
			fmt.Fprintf(&sb, "<span style=\"%s\">%s</span>", style, text)
		} else {
			sb.WriteString(text)
		}
	}
	sb.WriteString("</pre>\n")

	_, err = io.WriteString(w, sb.String())
	return
}
