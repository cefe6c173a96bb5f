package tape

import (
	"github.com/ezrec/bfenv/translate"
)

var f = translate.From

// ErrOutOfRange is raised when the pointer would leave the tape.
type ErrOutOfRange int

func (err ErrOutOfRange) Error() string {
	return f("pointer %d out of range", int(err))
}

func (err ErrOutOfRange) Is(target error) (ok bool) {
	_, ok = target.(ErrOutOfRange)
	return
}
