// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

// Package cesu8 implements functions and constants to support text encoded in CESU-8.
// It implements functions comparable to the unicode/utf8 package for UTF-8 de- and encoding.
package cesu8

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

const (
	// CESUMax is the maximum amount of bytes used by an CESU-8 codepoint encoding.
	CESUMax = 6

	surrSelf = 0x10000
)

/*
Unicode surrogates (0xD800 - 0xDFFF) are rejected by the unicode/utf8
functions, so the 3-byte encodings of surrogate halves used by CESU-8
need to be handled here directly.
*/

func isSurrogateEncoding(p []byte) bool {
	return len(p) >= 3 && p[0] == 0xed && p[1] >= 0xa0 && p[1] <= 0xbf && p[2] >= 0x80 && p[2] <= 0xbf
}

func decodeSurrogate(p []byte) rune {
	return rune(p[0]&0x0f)<<12 | rune(p[1]&0x3f)<<6 | rune(p[2]&0x3f)
}

func encodeSurrogate(p []byte, r rune) {
	p[0] = 0xe0 | byte(r>>12)
	p[1] = 0x80 | byte(r>>6)&0x3f
	p[2] = 0x80 | byte(r)&0x3f
}

// Size returns the amount of bytes needed to encode an UTF-8 byte slice to CESU-8.
func Size(p []byte) int {
	n := 0
	for i := 0; i < len(p); {
		r, size := utf8.DecodeRune(p[i:])
		i += size
		n += RuneLen(r)
	}
	return n
}

// StringSize is like Size with a string as parameter.
func StringSize(s string) int {
	n := 0
	for _, r := range s {
		n += RuneLen(r)
	}
	return n
}

// EncodeRune writes into p (which must be large enough) the CESU-8 encoding of the rune. It returns the number of bytes written.
func EncodeRune(p []byte, r rune) int {
	if r < surrSelf {
		return utf8.EncodeRune(p, r)
	}
	high, low := utf16.EncodeRune(r)
	encodeSurrogate(p, high)
	encodeSurrogate(p[3:], low)
	return CESUMax
}

// FullRune reports whether the bytes in p begin with a full CESU-8 encoding of a rune.
func FullRune(p []byte) bool {
	if isSurrogateEncoding(p) {
		return len(p) >= CESUMax
	}
	return utf8.FullRune(p)
}

// DecodeRune unpacks the first CESU-8 encoding in p and returns the rune and its width in bytes.
// Invalid encodings (including unpaired surrogates) yield (utf8.RuneError, 1).
func DecodeRune(p []byte) (rune, int) {
	if !isSurrogateEncoding(p) {
		return utf8.DecodeRune(p)
	}
	high := decodeSurrogate(p)
	if high < 0xdc00 && isSurrogateEncoding(p[3:]) {
		if low := decodeSurrogate(p[3:]); low >= 0xdc00 {
			return utf16.DecodeRune(high, low), CESUMax
		}
	}
	return utf8.RuneError, 1
}

// RuneLen returns the number of bytes required to encode the rune in CESU-8.
// Invalid runes are sized like the replacement character they encode to.
func RuneLen(r rune) int {
	if r < surrSelf {
		if n := utf8.RuneLen(r); n != -1 {
			return n
		}
		return utf8.RuneLen(utf8.RuneError)
	}
	return CESUMax
}

// DecodeError is raised when a transformer detects invalid encoded data.
type DecodeError struct {
	enc string // encoding
	p   int    // position of invalid rune
	v   []byte // value
}

func newDecodeError(enc string, p int, v []byte) *DecodeError {
	cv := make([]byte, len(v))
	copy(cv, v)
	return &DecodeError{enc: enc, p: p, v: cv}
}

func (e *DecodeError) Error() string { return "invalid " + e.enc + " encoding" }

// Enc returns the expected encoding of the erroneous data.
func (e *DecodeError) Enc() string { return e.enc }

// Pos returns the position of the invalid rune.
func (e *DecodeError) Pos() int { return e.p }

// Value returns the value which should be decoded.
func (e *DecodeError) Value() []byte { return e.v }

// ErrorHandler is called by a transformer on invalid encoded data.
// Returning a rune replaces the invalid data with the rune's encoding,
// returning an error stops the transformation.
type ErrorHandler func(err *DecodeError) (rune, error)

// ReplaceErrorHandler is the default error handling: invalid encodings are
// replaced by the unicode replacement character.
func ReplaceErrorHandler(err *DecodeError) (rune, error) { return utf8.RuneError, nil }

// Encoder transforms UTF-8 to CESU-8 encoded bytes.
type Encoder struct {
	transform.NopResetter
	errorHandler ErrorHandler
}

// NewEncoder creates a new transformer encoding UTF-8 to CESU-8 bytes.
// With errorHandler == nil invalid encodings are replaced by the unicode replacement character.
func NewEncoder(errorHandler ErrorHandler) *Encoder {
	if errorHandler == nil {
		errorHandler = ReplaceErrorHandler
	}
	return &Encoder{errorHandler: errorHandler}
}

// Transform implements the transform.Transformer interface.
func (e *Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	i, j := 0, 0
	for i < len(src) {
		r, n := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && n <= 1 {
			if !atEOF && !utf8.FullRune(src[i:]) {
				return j, i, transform.ErrShortSrc
			}
			if r, err = e.errorHandler(newDecodeError("UTF-8", i, src)); err != nil {
				return j, i, err
			}
			if n == 0 {
				n = 1
			}
		}
		if j+RuneLen(r) > len(dst) {
			return j, i, transform.ErrShortDst
		}
		j += EncodeRune(dst[j:], r)
		i += n
	}
	return j, i, nil
}

// Decoder transforms CESU-8 to UTF-8 encoded bytes.
type Decoder struct {
	transform.NopResetter
	errorHandler ErrorHandler
}

// NewDecoder creates a new transformer decoding CESU-8 to UTF-8 bytes.
// With errorHandler == nil invalid encodings are replaced by the unicode replacement character.
func NewDecoder(errorHandler ErrorHandler) *Decoder {
	if errorHandler == nil {
		errorHandler = ReplaceErrorHandler
	}
	return &Decoder{errorHandler: errorHandler}
}

// Transform implements the transform.Transformer interface.
func (d *Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	i, j := 0, 0
	for i < len(src) {
		r, n := DecodeRune(src[i:])
		if r == utf8.RuneError && n <= 1 {
			if !atEOF && !FullRune(src[i:]) {
				return j, i, transform.ErrShortSrc
			}
			if r, err = d.errorHandler(newDecodeError("CESU-8", i, src)); err != nil {
				return j, i, err
			}
			if n == 0 {
				n = 1
			}
		}
		if j+utf8.RuneLen(r) > len(dst) {
			return j, i, transform.ErrShortDst
		}
		j += utf8.EncodeRune(dst[j:], r)
		i += n
	}
	return j, i, nil
}
