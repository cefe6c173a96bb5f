package bf

import (
	"iter"
	"strings"
)

// Source is addressable program text.
type Source interface {
	LineCount() int
	Line(index int) string
}

// Lines is a Source held in memory.
type Lines []string

var _ Source = Lines(nil)

// NewLines splits text at line breaks.
func NewLines(text string) Lines {
	lines := strings.Split(text, "\n")
	for n, line := range lines {
		lines[n] = strings.TrimSuffix(line, "\r")
	}
	return Lines(lines)
}

func (ls Lines) LineCount() int {
	return len(ls)
}

func (ls Lines) Line(index int) string {
	if index < 0 || index >= len(ls) {
		return ""
	}
	return ls[index]
}

// Program is a compiled program.
type Program struct {
	Instructions []Instruction
	Diagnostics  []Diagnostic
}

// Len returns the number of instructions.
func (prog *Program) Len() int {
	return len(prog.Instructions)
}

// Directives iterates over the index and payload of every directive.
func (prog *Program) Directives() iter.Seq2[int, Directive] {
	return func(yield func(int, Directive) bool) {
		for index, insn := range prog.Instructions {
			if insn.Kind != KIND_DIRECTIVE {
				continue
			}
			if !yield(index, insn.Directive) {
				return
			}
		}
	}
}
