package bf

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ezrec/bfenv/translate"
)

var f = translate.From

var (
	ErrMessageInvalid = errors.New(f("message is not a string"))
)

// Diagnostic is a compilation error at a source position.
type Diagnostic struct {
	Position Position
	Size     int // Width of the underlined text, in runes.
	Message  string
}

func (diag Diagnostic) Error() string {
	return f("%v: %v", diag.Position, diag.Message)
}

// ErrCompile is returned when a program has diagnostics.
type ErrCompile struct {
	Source      Source
	Diagnostics []Diagnostic
}

func (err ErrCompile) Error() string {
	if len(err.Diagnostics) == 1 {
		return err.Diagnostics[0].Error()
	}
	return f("%v (and %v more errors)", err.Diagnostics[0].Error(), len(err.Diagnostics)-1)
}

func (err ErrCompile) Unwrap() (errs []error) {
	for _, diag := range err.Diagnostics {
		errs = append(errs, diag)
	}
	return
}

// Report formats the diagnostics in the style of a C compiler, with the
// source line and an underline at the offending text.
func (err ErrCompile) Report() string {
	var sb strings.Builder

	for _, diag := range err.Diagnostics {
		pos := diag.Position
		text := ""
		if err.Source != nil {
			text = err.Source.Line(pos.Line)
		}
		lineNum := fmt.Sprintf("%4d", pos.Line+1)

		fmt.Fprintf(&sb, "\x1b[1m%v: \x1b[31m%v: \x1b[39m%v\x1b[22m\n", pos, f("error"), diag.Message)
		fmt.Fprintf(&sb, " %v | %v\n", lineNum, text)
		fmt.Fprintf(&sb, " %v | \x1b[32m%v^%v\x1b[39m\n",
			strings.Repeat(" ", utf8.RuneCountInString(lineNum)),
			strings.Repeat(" ", max(pos.Ch, 0)),
			strings.Repeat("~", max(diag.Size-1, 0)))
	}

	return sb.String()
}
