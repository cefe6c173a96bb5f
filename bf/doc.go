// Package bf compiles programs of the eight instruction pointer-and-loop
// language into a linear instruction list.
//
// Runs of pointer moves ('>' '<') and cell updates ('+' '-') are fused
// into single instructions, loop brackets are matched, and the '@'
// breakpoint and the '!mark(...)' and '!print(...)' directives are
// recognized. Any other character is a comment.
//
// Compilation never stops at the first error; every problem found is
// collected as a Diagnostic, sited at its source line and column.
package bf
