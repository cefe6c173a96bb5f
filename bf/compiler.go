// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bf

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/bfenv/mark"
)

// INSTRUCTIONS are the characters that are not comments.
const INSTRUCTIONS = "><+-.,[]@!"

var wordPattern = regexp.MustCompile(`^\w+$`)

func isWord(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// argument is a directive argument, and its column.
type argument struct {
	text string
	ch   int
}

// compiler holds the scanner state of a single compilation.
type compiler struct {
	src  Source
	prog *Program

	active  bool // A pending instruction is being scanned.
	kind    Kind
	operand int
	span    Span
	loops   []int

	name string     // Directive name.
	nest int        // Directive parenthesis depth; 0 until '(' is seen.
	open Position   // Position of the opening '('.
	args []argument // Whitespace separated arguments.
	raw  argument   // Unsplit arguments.
}

// Compile scans the source into a program. If there were any diagnostics,
// they are returned as an ErrCompile as well as in the program.
func Compile(src Source) (prog *Program, err error) {
	c := &compiler{
		src:  src,
		prog: &Program{},
	}

	for line := range src.LineCount() {
		ch := 0
		for _, r := range src.Line(line) {
			c.scan(Position{Line: line, Ch: ch}, r)
			ch++
		}
	}

	c.finish()

	prog = c.prog
	if len(prog.Diagnostics) != 0 {
		err = ErrCompile{Source: src, Diagnostics: prog.Diagnostics}
		return
	}

	return
}

func (c *compiler) errorAt(pos Position, size int, message string) {
	c.prog.Diagnostics = append(c.prog.Diagnostics, Diagnostic{
		Position: pos,
		Size:     size,
		Message:  message,
	})
}

func (c *compiler) scan(pos Position, r rune) {
	if c.active && c.kind == KIND_DIRECTIVE {
		if c.scanDirective(pos, r) {
			return
		}
	}

	if !strings.ContainsRune(INSTRUCTIONS, r) {
		return
	}

	next := Position{Line: pos.Line, Ch: pos.Ch + 1}
	if c.active {
		switch {
		case c.kind == KIND_ADVANCE && (r == '>' || r == '<'):
			c.span.To = next
			c.operand += delta(r)
			return
		case c.kind == KIND_ADD && (r == '+' || r == '-'):
			c.span.To = next
			c.operand = (c.operand + delta(r)) % 256
			return
		}
	}

	c.emit()

	c.active = true
	c.span = Span{From: pos, To: next}
	c.operand = 0

	switch r {
	case '>', '<':
		c.kind = KIND_ADVANCE
		c.operand = delta(r)
	case '+', '-':
		c.kind = KIND_ADD
		c.operand = delta(r)
	case '.':
		c.kind = KIND_OUTPUT
	case ',':
		c.kind = KIND_INPUT
	case '[':
		c.kind = KIND_LOOP_BEGIN
		c.operand = UNRESOLVED
		c.loops = append(c.loops, len(c.prog.Instructions))
	case ']':
		c.kind = KIND_LOOP_END
		c.operand = UNRESOLVED
		if n := len(c.loops); n > 0 {
			begin := c.loops[n-1]
			c.loops = c.loops[:n-1]
			c.operand = begin
			c.prog.Instructions[begin].Operand = len(c.prog.Instructions)
		} else {
			c.errorAt(pos, 1, f("unmatched ']'"))
		}
	case '@':
		c.kind = KIND_BREAK
	case '!':
		c.kind = KIND_DIRECTIVE
		c.name = ""
		c.nest = 0
	}
}

func delta(r rune) int {
	switch r {
	case '>', '+':
		return 1
	case '<', '-':
		return -1
	}
	return 0
}

// emit completes the pending instruction. Directives are emitted when
// their closing parenthesis is scanned.
func (c *compiler) emit() {
	if !c.active {
		return
	}
	c.active = false

	if c.kind == KIND_DIRECTIVE {
		return
	}

	c.prog.Instructions = append(c.prog.Instructions, Instruction{
		Kind:    c.kind,
		Operand: c.operand,
		Span:    c.span,
	})
}

// lineEnd is the position just past the end of a line.
func (c *compiler) lineEnd(line int) Position {
	return Position{Line: line, Ch: len([]rune(c.src.Line(line)))}
}

// scanDirective returns true if the rune was consumed by the directive.
func (c *compiler) scanDirective(pos Position, r rune) (consumed bool) {
	from := c.span.From

	if c.nest == 0 {
		switch {
		case pos.Line != from.Line:
			c.active = false
		case r == '(' && len(c.name) > 0:
			c.nest = 1
			c.open = pos
			c.args = []argument{{ch: -1}}
			c.raw = argument{ch: pos.Ch + 1}
			consumed = true
		case isWord(r):
			c.name += string(r)
			consumed = true
		default:
			c.active = false
		}
		return
	}

	switch {
	case pos.Line != from.Line:
		c.active = false
		c.errorAt(c.lineEnd(from.Line), 1, f("expected ')'"))
		return
	case strings.ContainsRune(INSTRUCTIONS, r):
		c.active = false
		c.errorAt(pos, 1, f("expected ')'"))
		return
	case r == ')' && c.nest == 1:
		c.active = false
		c.closeDirective(pos)
		consumed = true
		return
	}

	c.raw.text += string(r)

	arg := &c.args[len(c.args)-1]
	if c.nest == 1 && unicode.IsSpace(r) {
		if len(arg.text) > 0 {
			c.args = append(c.args, argument{ch: -1})
		}
	} else {
		if len(arg.text) == 0 {
			arg.ch = pos.Ch
		}
		arg.text += string(r)
	}

	switch r {
	case '(':
		c.nest++
	case ')':
		c.nest--
	}

	consumed = true
	return
}

func (c *compiler) closeDirective(pos Position) {
	if n := len(c.args); n > 0 && len(c.args[n-1].text) == 0 {
		c.args = c.args[:n-1]
	}

	c.span.To = Position{Line: pos.Line, Ch: pos.Ch + 1}

	var dir Directive
	switch c.name {
	case "mark":
		dir = c.mark(pos)
	case "print":
		dir = c.print(pos)
	default:
		c.errorAt(c.span.From, len([]rune(c.name))+1, f("unknown command '%v'", c.name))
	}

	if dir == nil {
		return
	}

	c.prog.Instructions = append(c.prog.Instructions, Instruction{
		Kind:      KIND_DIRECTIVE,
		Span:      c.span,
		Directive: dir,
	})
}

// parseNumber parses a possibly '_' negated integer.
func parseNumber(text string) (value int, negative bool, err error) {
	if len(text) >= 2 && text[0] == '_' {
		negative = true
		text = text[1:]
	}

	var value64 int64
	value64, err = strconv.ParseInt(text, 0, 0)
	value = int(value64)
	return
}

func (c *compiler) mark(pos Position) (dir Directive) {
	at := func(arg argument) Position {
		return Position{Line: pos.Line, Ch: arg.ch}
	}
	width := func(arg argument) int {
		return len([]rune(arg.text))
	}

	switch len(c.args) {
	case 1:
		name := c.args[0]
		if !wordPattern.MatchString(name.text) {
			c.errorAt(at(name), width(name), f("!mark(name): invalid name"))
			return
		}
		dir = &Mark{Name: name.text}
	case 4:
		name, posArg, sizeArg, colorArg := c.args[0], c.args[1], c.args[2], c.args[3]
		ok := true

		if !wordPattern.MatchString(name.text) {
			ok = false
			c.errorAt(at(name), width(name), f("!mark(name pos size color): invalid name"))
		}

		text := posArg.text
		relative := strings.HasPrefix(text, "~")
		if relative {
			text = text[1:]
		}
		offset := 0
		if len(text) != 0 {
			value, negative, err := parseNumber(text)
			if err != nil {
				ok = false
				c.errorAt(at(posArg), width(posArg), f("!mark(name pos size color): invalid pos"))
			}
			offset = value
			if negative {
				offset = -value
			}
		}

		size, fromEnd, err := parseNumber(sizeArg.text)
		if err != nil {
			ok = false
			c.errorAt(at(sizeArg), width(sizeArg), f("!mark(name pos size color): invalid size"))
		}
		if fromEnd {
			offset -= size
		}

		css := strings.ReplaceAll(colorArg.text, "_", "-")
		if _, err := mark.ParseColor(css); err != nil {
			ok = false
			c.errorAt(at(colorArg), width(colorArg), f("!mark(name pos size color): invalid color"))
		}

		if !ok {
			return
		}

		dir = &Mark{
			Name:     name.text,
			Pos:      offset,
			Size:     size,
			Relative: relative,
			Color:    css,
		}
	default:
		c.errorAt(c.open, pos.Ch-c.open.Ch+1, f("expected 1 or 4 arguments to command '!mark'"))
	}

	return
}

func (c *compiler) print(pos Position) (dir Directive) {
	message, err := unescape(c.raw.text)
	if err != nil {
		c.errorAt(Position{Line: pos.Line, Ch: c.raw.ch}, len([]rune(c.raw.text)), f("!print(message): invalid message"))
		return
	}

	dir = &Print{Message: message}
	return
}

// unescape interprets text as the body of a double quoted string literal.
// Unescaped double quotes are literal, and an unknown escape stands for
// the escaped character.
func unescape(text string) (message string, err error) {
	var sb strings.Builder

	sb.WriteString(`rc="`)
	runes := []rune(text)
	for n := 0; n < len(runes); n++ {
		r := runes[n]
		switch {
		case r == '"':
			sb.WriteString(`\"`)
			continue
		case r != '\\' || n+1 == len(runes):
			sb.WriteRune(r)
			continue
		}

		n++
		rest := string(runes[n+1:])
		switch c := runes[n]; c {
		case 'b', 'f', 'n', 'r', 't', 'v', '\\', '"', '\'',
			'0', '1', '2', '3', '4', '5', '6', '7':
			sb.WriteRune('\\')
			sb.WriteRune(c)
		case 'x':
			if hex := hexPrefix(rest, 2); len(hex) == 2 && hex[0] >= '8' {
				// Starlark only takes ASCII \x escapes.
				sb.WriteString(`\u00` + hex)
				n += 2
			} else {
				sb.WriteString(`\x`)
			}
		case 'u':
			if strings.HasPrefix(rest, "{") {
				hex := hexPrefix(rest[1:], 6)
				if len(hex) > 0 && strings.HasPrefix(rest[1+len(hex):], "}") {
					sb.WriteString(`\U` + strings.Repeat("0", 8-len(hex)) + hex)
					n += len(hex) + 2
					continue
				}
			}
			sb.WriteString(`\u`)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteString("\"\n")

	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	dict, err := starlark.ExecFileOptions(&opts, &thread, "print", sb.String(), nil)
	if err != nil {
		return
	}

	value, ok := dict["rc"].(starlark.String)
	if !ok {
		err = ErrMessageInvalid
		return
	}

	message = string(value)
	return
}

// hexPrefix returns the leading hexadecimal digits of text, at most limit.
func hexPrefix(text string, limit int) string {
	end := 0
	for end < len(text) && end < limit && strings.ContainsRune("0123456789abcdefABCDEF", rune(text[end])) {
		end++
	}
	return text[:end]
}

// finish completes the final instruction, and reports unclosed loops
// and directives.
func (c *compiler) finish() {
	if c.active && c.kind == KIND_DIRECTIVE && c.nest > 0 {
		c.errorAt(c.lineEnd(c.span.From.Line), 1, f("expected ')'"))
	}

	c.emit()

	for _, index := range c.loops {
		c.errorAt(c.prog.Instructions[index].Span.From, 1, f("unmatched '['"))
	}
	c.loops = nil
}
