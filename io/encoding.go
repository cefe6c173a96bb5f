package io

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DEFAULT_ENCODING is the text encoding of program input and output.
const DEFAULT_ENCODING = "utf-8"

// LookupEncoding finds a text encoding by its WHATWG label,
// e.g. "utf-8", "shift_jis", "euc-jp" or "windows-1252".
func LookupEncoding(name string) (enc encoding.Encoding, err error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		name = DEFAULT_ENCODING
	}

	enc, err = htmlindex.Get(name)
	if err != nil {
		err = ErrEncodingUnknown(name)
		return
	}

	return
}

// Encode converts text to bytes of enc; UTF-8 if enc is nil.
func Encode(enc encoding.Encoding, text string) (data []byte, err error) {
	if enc == nil || enc == unicode.UTF8 {
		data = []byte(text)
		return
	}

	return enc.NewEncoder().Bytes([]byte(text))
}

// Decode converts bytes of enc to text; UTF-8 if enc is nil.
// Undecodable input becomes U+FFFD.
func Decode(enc encoding.Encoding, data []byte) (text string) {
	if enc == nil || enc == unicode.UTF8 {
		return strings.ToValidUTF8(string(data), "�")
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}

	return string(out)
}
