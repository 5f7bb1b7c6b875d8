// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"slices"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// Field is the interface for a result or parameter field.
type Field interface {
	Name() string
	TypeName() string
	DataType() DataType
	TypeLength() (int64, bool)
	TypePrecisionScale() (int64, int64, bool)
	Nullable() bool
}

// Metadata fields reference their names by offset into a shared name block
// which trails the field list. The block holds each name once, length
// prefixed, in offset order.
type fieldNames struct {
	names map[uint32]string
}

func newFieldNames() *fieldNames { return &fieldNames{names: map[uint32]string{}} }

func (fn *fieldNames) insert(offset uint32) {
	if _, ok := fn.names[offset]; !ok {
		fn.names[offset] = ""
	}
}

func (fn *fieldNames) name(offset uint32) string { return fn.names[offset] }

func (fn *fieldNames) decode(dec *encoding.Decoder) error {
	pos := uint32(0)
	offsets := make([]uint32, 0, len(fn.names))
	for offset := range fn.names {
		offsets = append(offsets, offset)
	}
	slices.Sort(offsets)
	for _, offset := range offsets {
		if diff := int(offset - pos); diff > 0 {
			dec.Skip(diff) // ignore names not inserted
		}
		size := int(dec.Byte())
		b, err := dec.CESU8Bytes(size)
		if err != nil {
			return err
		}
		fn.names[offset] = string(b)
		pos = offset + uint32(1+size) // len byte + size
	}
	return dec.Error()
}
