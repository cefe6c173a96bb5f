// Package io provides the byte source feeding program input to the bfenv
// machine, and the text encodings shared with the terminal renderer.
package io

import (
	"io"

	"golang.org/x/text/encoding"
)

const (
	EOF_ZERO = 0   // EOF sentinel: zero.
	EOF_MAX  = 255 // EOF sentinel: all ones.
)

// Scanner is a byte source over a text buffer. Once exhausted every Get
// returns the EOF sentinel.
type Scanner struct {
	Text     string            // Text to scan.
	EOF      byte              // EOF sentinel, EOF_ZERO or EOF_MAX.
	Encoding encoding.Encoding // Text encoding; UTF-8 if nil.

	data  []byte
	index int
}

// NewScanner creates a scanner for text with an EOF_MAX sentinel.
func NewScanner(text string) (sc *Scanner) {
	sc = &Scanner{
		Text: text,
		EOF:  EOF_MAX,
	}
	sc.Reset()

	return
}

// SetEOF sets the EOF sentinel.
func (sc *Scanner) SetEOF(eof int) (err error) {
	if eof != EOF_ZERO && eof != EOF_MAX {
		err = ErrEOFInvalid
		return
	}

	sc.EOF = byte(eof)
	return
}

// ReadFrom replaces the text with the contents of r, and rewinds.
func (sc *Scanner) ReadFrom(r io.Reader) (n int64, err error) {
	text, err := io.ReadAll(r)
	n = int64(len(text))
	if err != nil {
		return
	}

	sc.Text = string(text)
	err = sc.Reset()
	return
}

// Reset re-encodes the text and rewinds to its start.
func (sc *Scanner) Reset() (err error) {
	sc.index = 0
	sc.data, err = Encode(sc.Encoding, sc.Text)
	return
}

// Get returns the next byte, or the EOF sentinel.
func (sc *Scanner) Get() (value byte) {
	if sc.index >= len(sc.data) {
		return sc.EOF
	}

	value = sc.data[sc.index]
	sc.index++

	return
}

// Remaining returns the count of bytes not yet read.
func (sc *Scanner) Remaining() int {
	return len(sc.data) - sc.index
}
