package bf

import (
	"fmt"
)

// Kind is the type of an instruction.
type Kind int

//go:generate go tool stringer -linecomment -type=Kind
const (
	KIND_ADVANCE    = Kind(0) // advance
	KIND_ADD        = Kind(1) // add
	KIND_OUTPUT     = Kind(2) // output
	KIND_INPUT      = Kind(3) // input
	KIND_LOOP_BEGIN = Kind(4) // loop_begin
	KIND_LOOP_END   = Kind(5) // loop_end
	KIND_BREAK      = Kind(6) // break
	KIND_DIRECTIVE  = Kind(7) // directive
)

// UNRESOLVED is the operand of a loop bracket without a partner.
const UNRESOLVED = -1

// Position is a 0-based line, and a 0-based rune column in that line.
type Position struct {
	Line int
	Ch   int
}

// String returns the 1-based 'line:column' form.
func (pos Position) String() string {
	return fmt.Sprintf("%d:%d", pos.Line+1, pos.Ch+1)
}

// Span is the source range [From, To) of an instruction.
type Span struct {
	From Position
	To   Position
}

// Directive is the payload of a KIND_DIRECTIVE instruction,
// either *Mark or *Print.
type Directive interface {
	directive()
}

// Mark annotates (or, with a zero Size, un-annotates) a range of memory.
type Mark struct {
	Name     string
	Pos      int  // First cell, offset by the pointer when Relative.
	Size     int  // Number of cells.
	Relative bool // Pos is relative to the tape pointer.
	Color    string
}

func (*Mark) directive() {}

// Print writes a message line to the output.
type Print struct {
	Message string
}

func (*Print) directive() {}

// Instruction is a single compiled instruction.
type Instruction struct {
	Kind Kind
	// Operand is the fused delta of KIND_ADVANCE and KIND_ADD, or the index of
	// the partner bracket of KIND_LOOP_BEGIN and KIND_LOOP_END.
	Operand   int
	Span      Span
	Directive Directive
}

func (insn Instruction) String() string {
	switch insn.Kind {
	case KIND_ADVANCE, KIND_ADD:
		return fmt.Sprintf("%v(%+d)", insn.Kind, insn.Operand)
	case KIND_LOOP_BEGIN, KIND_LOOP_END:
		return fmt.Sprintf("%v(%d)", insn.Kind, insn.Operand)
	case KIND_DIRECTIVE:
		switch dir := insn.Directive.(type) {
		case *Mark:
			return fmt.Sprintf("%v(mark %v)", insn.Kind, dir.Name)
		case *Print:
			return fmt.Sprintf("%v(print %q)", insn.Kind, dir.Message)
		}
	}
	return insn.Kind.String()
}
