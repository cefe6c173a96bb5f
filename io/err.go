package io

import (
	"errors"

	"github.com/ezrec/bfenv/translate"
)

var f = translate.From

var (
	ErrEOFInvalid = errors.New(f("eof must be 0 or 255"))
)

// ErrEncodingUnknown names an unsupported text encoding.
type ErrEncodingUnknown string

func (err ErrEncodingUnknown) Error() string {
	return f("unknown encoding '%v'", string(err))
}
