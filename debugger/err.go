package debugger

import (
	"errors"

	"github.com/ezrec/bfenv/bf"
	"github.com/ezrec/bfenv/translate"
)

var f = translate.From

var (
	ErrUnexpected = errors.New(f("unexpected error"))
)

// ErrRuntime indicates the location of a runtime fault.
type ErrRuntime struct {
	PC   int     // Index of the faulting instruction.
	Span bf.Span // Source of the faulting instruction.
	Err  error
}

func (err *ErrRuntime) Error() string {
	return f("%v: %v", err.Span.From, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
