// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// optType is the set of types supported as option values.
type optType interface {
	fmt.Stringer
	typeCode() TypeCode
	size(v any) int
	encode(e *encoding.Encoder, v any)
	decode(d *encoding.Decoder) any
}

var (
	optBooleanType = _optBooleanType{}
	optIntType     = _optIntType{}
	optBigintType  = _optBigintType{}
	optDoubleType  = _optDoubleType{}
	optStringType  = _optStringType{}
	optBytesType   = _optBytesType{}
)

type (
	_optBooleanType struct{}
	_optIntType     struct{}
	_optBigintType  struct{}
	_optDoubleType  struct{}
	_optStringType  struct{}
	_optBytesType   struct{}
)

var (
	_ optType = (*_optBooleanType)(nil)
	_ optType = (*_optIntType)(nil)
	_ optType = (*_optBigintType)(nil)
	_ optType = (*_optDoubleType)(nil)
	_ optType = (*_optStringType)(nil)
	_ optType = (*_optBytesType)(nil)
)

func (_optBooleanType) String() string { return "booleanType" }
func (_optIntType) String() string     { return "intType" }
func (_optBigintType) String() string  { return "bigintType" }
func (_optDoubleType) String() string  { return "doubleType" }
func (_optStringType) String() string  { return "stringType" }
func (_optBytesType) String() string   { return "bytesType" }

func (_optBooleanType) typeCode() TypeCode { return tcBoolean }
func (_optIntType) typeCode() TypeCode     { return tcInteger }
func (_optBigintType) typeCode() TypeCode  { return tcBigint }
func (_optDoubleType) typeCode() TypeCode  { return tcDouble }
func (_optStringType) typeCode() TypeCode  { return tcVarchar }
func (_optBytesType) typeCode() TypeCode   { return tcVarbinary }

func (_optBooleanType) size(any) int   { return booleanFieldSize }
func (_optIntType) size(any) int       { return integerFieldSize }
func (_optBigintType) size(any) int    { return bigintFieldSize }
func (_optDoubleType) size(any) int    { return doubleFieldSize }
func (_optStringType) size(v any) int  { return 2 + len(v.(string)) } // length int16 + string
func (_optBytesType) size(v any) int   { return 2 + len(v.([]byte)) } // length int16 + bytes

func (_optBooleanType) encode(e *encoding.Encoder, v any) { e.Bool(v.(bool)) }
func (_optIntType) encode(e *encoding.Encoder, v any)     { e.Int32(v.(int32)) }
func (_optBigintType) encode(e *encoding.Encoder, v any)  { e.Int64(v.(int64)) }
func (_optDoubleType) encode(e *encoding.Encoder, v any)  { e.Float64(v.(float64)) }
func (_optStringType) encode(e *encoding.Encoder, v any) {
	s := v.(string)
	e.Int16(int16(len(s)))
	e.String(s)
}
func (_optBytesType) encode(e *encoding.Encoder, v any) {
	b := v.([]byte)
	e.Int16(int16(len(b)))
	e.Bytes(b)
}

func (_optBooleanType) decode(d *encoding.Decoder) any { return d.Bool() }
func (_optIntType) decode(d *encoding.Decoder) any     { return d.Int32() }
func (_optBigintType) decode(d *encoding.Decoder) any  { return d.Int64() }
func (_optDoubleType) decode(d *encoding.Decoder) any  { return d.Float64() }
func (_optStringType) decode(d *encoding.Decoder) any {
	size := d.Int16()
	b := make([]byte, size)
	d.Bytes(b)
	return string(b)
}
func (_optBytesType) decode(d *encoding.Decoder) any {
	size := d.Int16()
	b := make([]byte, size)
	d.Bytes(b)
	return b
}

func getOptType(v any) optType {
	switch v.(type) {
	case bool:
		return optBooleanType
	case int32:
		return optIntType
	case int64:
		return optBigintType
	case float64:
		return optDoubleType
	case string:
		return optStringType
	case []byte:
		return optBytesType
	default:
		panic(fmt.Sprintf("type %T not supported as option value", v)) // should never happen
	}
}

// Options represents a generic option part.
type Options[K ~int8] map[K]any

func (ops Options[K]) String() string {
	s := []string{}
	for i, typ := range ops {
		s = append(s, fmt.Sprintf("%v: %v", K(i), typ))
	}
	return fmt.Sprintf("%v", s)
}

func (ops Options[K]) size() int {
	size := 2 * len(ops) // option id int8 + type code int8
	for _, v := range ops {
		size += getOptType(v).size(v)
	}
	return size
}

func (ops Options[K]) numArg() int { return len(ops) }

func (ops *Options[K]) decode(dec *encoding.Decoder, ph *partHeader) error {
	*ops = Options[K]{} // no reuse of maps - create new one

	for i := 0; i < ph.numArg(); i++ {
		k := K(dec.Int8())
		tc := TypeCode(dec.Byte())
		switch tc {
		case tcBoolean:
			(*ops)[k] = optBooleanType.decode(dec)
		case tcInteger:
			(*ops)[k] = optIntType.decode(dec)
		case tcBigint:
			(*ops)[k] = optBigintType.decode(dec)
		case tcDouble:
			(*ops)[k] = optDoubleType.decode(dec)
		case tcVarchar:
			(*ops)[k] = optStringType.decode(dec)
		case tcVarbinary:
			(*ops)[k] = optBytesType.decode(dec)
		default:
			return fmt.Errorf("decode: invalid option type code %s", tc)
		}
	}
	return dec.Error()
}

func (ops Options[K]) encode(enc *encoding.Encoder) error {
	for k, v := range ops {
		enc.Int8(int8(k))
		ot := getOptType(v)
		enc.Int8(int8(ot.typeCode()))
		ot.encode(enc, v)
	}
	return nil
}
