// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"

	"golang.org/x/text/transform"
)

const writeScratchSize = 4096

// Encoder encodes hx protocol datatypes on basis of an io.Writer.
type Encoder struct {
	wr  io.Writer
	err error
	b   []byte // scratch buffer (min 8 bytes)
	tr  transform.Transformer
}

// NewEncoder creates a new Encoder instance.
func NewEncoder(wr io.Writer, encoder func() transform.Transformer) *Encoder {
	return &Encoder{
		wr: wr,
		b:  make([]byte, writeScratchSize),
		tr: encoder(),
	}
}

// Error returns the sticky writer error.
func (e *Encoder) Error() error { return e.err }

// ResetError returns and resets the writer error.
func (e *Encoder) ResetError() error {
	err := e.err
	e.err = nil
	return err
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.wr.Write(p); err != nil {
		e.err = err
	}
}

// Zeroes writes cnt zero byte values.
func (e *Encoder) Zeroes(cnt int) {
	if e.err != nil {
		return
	}

	// zero out scratch area
	l := cnt
	if l > len(e.b) {
		l = len(e.b)
	}
	for i := 0; i < l; i++ {
		e.b[i] = 0
	}

	for i := 0; i < cnt; {
		j := cnt - i
		if j > len(e.b) {
			j = len(e.b)
		}
		e.write(e.b[:j])
		if e.err != nil {
			return
		}
		i += j
	}
}

// Bytes writes a bytes slice.
func (e *Encoder) Bytes(p []byte) { e.write(p) }

// Byte writes a byte.
func (e *Encoder) Byte(b byte) {
	e.b[0] = b
	e.write(e.b[:1])
}

// Bool writes a boolean.
func (e *Encoder) Bool(v bool) {
	if v {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
}

// Int8 writes an int8.
func (e *Encoder) Int8(i int8) { e.Byte(byte(i)) }

// Int16 writes an int16.
func (e *Encoder) Int16(i int16) {
	binary.LittleEndian.PutUint16(e.b[:2], uint16(i))
	e.write(e.b[:2])
}

// Uint16 writes an uint16.
func (e *Encoder) Uint16(i uint16) {
	binary.LittleEndian.PutUint16(e.b[:2], i)
	e.write(e.b[:2])
}

// Uint16ByteOrder writes an uint16 in the given byte order.
func (e *Encoder) Uint16ByteOrder(i uint16, byteOrder binary.ByteOrder) {
	byteOrder.PutUint16(e.b[:2], i)
	e.write(e.b[:2])
}

// Int32 writes an int32.
func (e *Encoder) Int32(i int32) {
	binary.LittleEndian.PutUint32(e.b[:4], uint32(i))
	e.write(e.b[:4])
}

// Uint32 writes an uint32.
func (e *Encoder) Uint32(i uint32) {
	binary.LittleEndian.PutUint32(e.b[:4], i)
	e.write(e.b[:4])
}

// Uint32ByteOrder writes an uint32 in the given byte order.
func (e *Encoder) Uint32ByteOrder(i uint32, byteOrder binary.ByteOrder) {
	byteOrder.PutUint32(e.b[:4], i)
	e.write(e.b[:4])
}

// Int64 writes an int64.
func (e *Encoder) Int64(i int64) {
	binary.LittleEndian.PutUint64(e.b[:8], uint64(i))
	e.write(e.b[:8])
}

// Uint64 writes an uint64.
func (e *Encoder) Uint64(i uint64) {
	binary.LittleEndian.PutUint64(e.b[:8], i)
	e.write(e.b[:8])
}

// Float32 writes a float32.
func (e *Encoder) Float32(f float32) {
	binary.LittleEndian.PutUint32(e.b[:4], math.Float32bits(f))
	e.write(e.b[:4])
}

// Float64 writes a float64.
func (e *Encoder) Float64(f float64) {
	binary.LittleEndian.PutUint64(e.b[:8], math.Float64bits(f))
	e.write(e.b[:8])
}

// String writes a string.
func (e *Encoder) String(s string) { e.write([]byte(s)) }

// Fixed writes the mantissa m as size byte two's-complement little-endian
// integer. The caller guarantees that m fits into size bytes.
func (e *Encoder) Fixed(m *big.Int, size int) error {
	neg := m.Sign() == -1

	v := new(big.Int)
	if neg {
		// two's complement: 2^(size*8) + m
		v.SetBit(v, size*8, 1)
		v.Add(v, m)
	} else {
		v.Set(m)
	}

	if v.BitLen() > size*8 {
		return fmt.Errorf("mantissa %s exceeds %d byte fixed field", m, size)
	}

	bs := e.b[:size]
	for i := range bs {
		bs[i] = 0
	}
	// big.Int.Bytes is big-endian - reverse into little-endian wire order
	be := v.Bytes()
	for i, b := range be {
		bs[len(be)-1-i] = b
	}
	e.write(bs)
	return nil
}

// CESU8Bytes writes an UTF-8 byte slice as CESU-8 and returns the number of CESU-8 bytes written.
func (e *Encoder) CESU8Bytes(p []byte) int {
	if e.err != nil {
		return 0
	}
	e.tr.Reset()
	cnt := 0
	i := 0
	for i < len(p) {
		m, n, err := e.tr.Transform(e.b, p[i:], true)
		if err != nil && err != transform.ErrShortDst {
			e.err = err
			return cnt
		}
		if m == 0 {
			e.err = transform.ErrShortDst
			return cnt
		}
		e.write(e.b[:m])
		cnt += m
		i += n
	}
	return cnt
}

// CESU8String is like CESU8Bytes with an UTF-8 string as parameter.
func (e *Encoder) CESU8String(s string) int { return e.CESU8Bytes([]byte(s)) }
