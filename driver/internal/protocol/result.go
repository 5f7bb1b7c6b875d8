// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

type columnOptions int8

const (
	coMandatory columnOptions = 0x01
	coOptional  columnOptions = 0x02
)

func (o columnOptions) String() string {
	t := make([]string, 0, 2)
	if o&coMandatory != 0 {
		t = append(t, "mandatory")
	}
	if o&coOptional != 0 {
		t = append(t, "optional")
	}
	return fmt.Sprintf("%v", t)
}

// resultField contains the metadata of one resultset column.
type resultField struct {
	names                *fieldNames
	columnOptions        columnOptions
	tc                   TypeCode
	fraction             int16
	length               int16
	tablenameOfs         uint32
	schemanameOfs        uint32
	columnnameOfs        uint32
	columnDisplaynameOfs uint32
	ft                   fieldType
}

func (f *resultField) String() string {
	return fmt.Sprintf("columnsOptions %s typeCode %s fraction %d length %d tablename %s schemaname %s columnname %s columnDisplayname %s",
		f.columnOptions,
		f.tc,
		f.fraction,
		f.length,
		f.names.name(f.tablenameOfs),
		f.names.name(f.schemanameOfs),
		f.names.name(f.columnnameOfs),
		f.names.name(f.columnDisplaynameOfs),
	)
}

// Name implements the Field interface.
func (f *resultField) Name() string { return f.names.name(f.columnDisplaynameOfs) }

// TypeName implements the Field interface.
func (f *resultField) TypeName() string { return f.tc.typeName() }

// DataType implements the Field interface.
func (f *resultField) DataType() DataType { return f.tc.dataType() }

// TypeLength implements the Field interface.
func (f *resultField) TypeLength() (int64, bool) {
	if f.tc.isVariableLength() {
		return int64(f.length), true
	}
	return 0, false
}

// TypePrecisionScale implements the Field interface.
func (f *resultField) TypePrecisionScale() (int64, int64, bool) {
	if f.tc.isDecimalType() {
		return int64(f.length), int64(f.fraction), true
	}
	return 0, 0, false
}

// Nullable implements the Field interface.
func (f *resultField) Nullable() bool { return f.columnOptions == coOptional }

func (f *resultField) fieldType() (fieldType, error) {
	if f.ft == nil {
		var err error
		if f.ft, err = f.tc.fieldType(int(f.length), int(f.fraction)); err != nil {
			return nil, err
		}
	}
	return f.ft, nil
}

func (f *resultField) decodeRes(dec *encoding.Decoder) (any, error) {
	ft, err := f.fieldType()
	if err != nil {
		return nil, err
	}
	switch ft := ft.(type) {
	case resDecoder:
		return ft.decodeRes(dec)
	case commonDecoder:
		return ft.decode(dec)
	default:
		panic(fmt.Sprintf("field type %s: missing result decoder", ft)) // should never happen
	}
}

func (f *resultField) decode(dec *encoding.Decoder) {
	f.columnOptions = columnOptions(dec.Int8())
	f.tc = TypeCode(dec.Byte())
	f.fraction = dec.Int16()
	f.length = dec.Int16()
	dec.Skip(2) // filler
	f.tablenameOfs = dec.Uint32()
	f.schemanameOfs = dec.Uint32()
	f.columnnameOfs = dec.Uint32()
	f.columnDisplaynameOfs = dec.Uint32()
	f.names.insert(f.tablenameOfs)
	f.names.insert(f.schemanameOfs)
	f.names.insert(f.columnnameOfs)
	f.names.insert(f.columnDisplaynameOfs)
	f.ft = nil
}

// resultMetadata is the metadata part of a resultset.
type resultMetadata struct {
	resultFields []*resultField
}

func (r *resultMetadata) String() string {
	return fmt.Sprintf("result fields %v", r.resultFields)
}

func (r *resultMetadata) decode(dec *encoding.Decoder, ph *partHeader) error {
	names := newFieldNames()
	numArg := ph.numArg()

	r.resultFields = make([]*resultField, numArg)
	for i := 0; i < numArg; i++ {
		f := &resultField{names: names}
		f.decode(dec)
		r.resultFields[i] = f
	}
	if err := names.decode(dec); err != nil {
		return err
	}
	return dec.Error()
}

// resultset is the row data part of a reply. The column layout is defined
// by the matching result metadata part.
type resultset struct {
	resultFields []*resultField
	fieldValues  [][]any
}

func (r *resultset) String() string {
	return fmt.Sprintf("result fields %v field values %v", r.resultFields, r.fieldValues)
}

func (r *resultset) decode(dec *encoding.Decoder, ph *partHeader) error {
	numArg := ph.numArg()
	cols := len(r.resultFields)
	r.fieldValues = resizeSlice(r.fieldValues, numArg)

	for i := 0; i < numArg; i++ {
		row := make([]any, cols)
		for j, f := range r.resultFields {
			v, err := f.decodeRes(dec)
			if err != nil {
				return err
			}
			row[j] = v
		}
		r.fieldValues[i] = row
	}
	return dec.Error()
}
