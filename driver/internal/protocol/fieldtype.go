// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
	"github.com/helixdb/go-helix/driver/unicode/cesu8"
)

const (
	minTinyint  = 0
	maxTinyint  = math.MaxUint8
	minSmallint = math.MinInt16
	maxSmallint = math.MaxInt16
	minInteger  = math.MinInt32
	maxInteger  = math.MaxInt32
	minBigint   = math.MinInt64
	maxBigint   = math.MaxInt64
	maxReal     = math.MaxFloat32
	maxDouble   = math.MaxFloat64
)

type locatorID uint64 // byte[locatorIDSize]

// ErrUint64OutOfRange means that a uint64 exceeds the size of a int64.
var ErrUint64OutOfRange = errors.New("uint64 values with high bit set are not supported")

// ErrIntegerOutOfRange means that an integer exceeds the size of the database integer field.
var ErrIntegerOutOfRange = errors.New("integer out of range error")

// ErrFloatOutOfRange means that a float exceeds the size of the database float field.
var ErrFloatOutOfRange = errors.New("float out of range error")

// ErrDecimalOutOfRange means that a decimal exceeds the precision of the database decimal field.
var ErrDecimalOutOfRange = errors.New("decimal out of range error")

var timeReflectType = reflect.TypeOf((*time.Time)(nil)).Elem()
var bytesReflectType = reflect.TypeOf((*[]byte)(nil)).Elem()
var stringReflectType = reflect.TypeOf((*string)(nil)).Elem()
var ratReflectType = reflect.TypeOf((*big.Rat)(nil)).Elem()

var zeroTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	booleanFieldSize    = 1
	tinyintFieldSize    = 1
	smallintFieldSize   = 2
	integerFieldSize    = 4
	bigintFieldSize     = 8
	realFieldSize       = 4
	doubleFieldSize     = 8
	daydateFieldSize    = 4
	secondtimeFieldSize = 4
	longdateFieldSize   = 8
	seconddateFieldSize = 8
	decimalFieldSize    = 16

	lobInputParametersSize = 9
)

// Converter is the interface that wraps the Convert method.
// Convert normalizes a Go value into the canonical Go type of a database field.
type Converter interface {
	Convert(any) (any, error)
}

type fieldType interface {
	Converter
	prmSize(any) int
	encodePrm(*encoding.Encoder, any) error
}

// can use decoder for parameter and result fields
type commonDecoder interface {
	decode(*encoding.Decoder) (any, error)
}

// specific parameter decoder
type prmDecoder interface {
	decodePrm(*encoding.Decoder) (any, error)
}

// specific result decoder
type resDecoder interface {
	decodeRes(*encoding.Decoder) (any, error)
}

var (
	booleanType    = _booleanType{}
	tinyintType    = _tinyintType{}
	smallintType   = _smallintType{}
	integerType    = _integerType{}
	bigintType     = _bigintType{}
	realType       = _realType{}
	doubleType     = _doubleType{}
	dateType       = _dateType{}
	timeType       = _timeType{}
	timestampType  = _timestampType{}
	seconddateType = _seconddateType{}
	varType        = _varType{}
	cesu8Type      = _cesu8Type{}
	lobVarType     = _lobVarType{}
	lobCESU8Type   = _lobCESU8Type{}
)

type _booleanType struct{}
type _tinyintType struct{}
type _smallintType struct{}
type _integerType struct{}
type _bigintType struct{}
type _realType struct{}
type _doubleType struct{}
type _dateType struct{}
type _timeType struct{}
type _timestampType struct{}
type _seconddateType struct{}
type _decimalType struct {
	prec, scale int
}
type _varType struct{}
type _cesu8Type struct{}
type _lobVarType struct{}
type _lobCESU8Type struct{}

var (
	_ fieldType = (*_booleanType)(nil)
	_ fieldType = (*_tinyintType)(nil)
	_ fieldType = (*_smallintType)(nil)
	_ fieldType = (*_integerType)(nil)
	_ fieldType = (*_bigintType)(nil)
	_ fieldType = (*_realType)(nil)
	_ fieldType = (*_doubleType)(nil)
	_ fieldType = (*_dateType)(nil)
	_ fieldType = (*_timeType)(nil)
	_ fieldType = (*_timestampType)(nil)
	_ fieldType = (*_seconddateType)(nil)
	_ fieldType = (*_decimalType)(nil)
	_ fieldType = (*_varType)(nil)
	_ fieldType = (*_cesu8Type)(nil)
	_ fieldType = (*_lobVarType)(nil)
	_ fieldType = (*_lobCESU8Type)(nil)
)

// A ConvertError is returned by conversion methods if a Go value cannot be
// converted to the database field type.
type ConvertError struct {
	err error
	ft  fieldType
	v   any
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("unsupported %[1]s conversion: %[2]T %[2]v", e.ft, e.v)
}

// Unwrap returns the nested error.
func (e *ConvertError) Unwrap() error { return e.err }
func newConvertError(ft fieldType, v any, err error) *ConvertError {
	return &ConvertError{ft: ft, v: v, err: err}
}

func (_booleanType) String() string    { return "booleanType" }
func (_tinyintType) String() string    { return "tinyintType" }
func (_smallintType) String() string   { return "smallintType" }
func (_integerType) String() string    { return "integerType" }
func (_bigintType) String() string     { return "bigintType" }
func (_realType) String() string       { return "realType" }
func (_doubleType) String() string     { return "doubleType" }
func (_dateType) String() string       { return "dateType" }
func (_timeType) String() string       { return "timeType" }
func (_timestampType) String() string  { return "timestampType" }
func (_seconddateType) String() string { return "seconddateType" }
func (ft _decimalType) String() string {
	return fmt.Sprintf("decimalType(%d,%d)", ft.prec, ft.scale)
}
func (_varType) String() string      { return "varType" }
func (_cesu8Type) String() string    { return "cesu8Type" }
func (_lobVarType) String() string   { return "lobVarType" }
func (_lobCESU8Type) String() string { return "lobCESU8Type" }

func (ft _booleanType) Convert(v any) (any, error) { return convertBool(ft, v) }

func convertBool(ft fieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, newConvertError(ft, v, nil)
		}
		return b, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Ptr:
		// indirect pointers
		if rv.IsNil() {
			return nil, nil
		}
		return convertBool(ft, rv.Elem().Interface())
	}
	return nil, newConvertError(ft, v, nil)
}

func (ft _tinyintType) Convert(v any) (any, error) {
	return convertInteger(ft, v, minTinyint, maxTinyint)
}
func (ft _smallintType) Convert(v any) (any, error) {
	return convertInteger(ft, v, minSmallint, maxSmallint)
}
func (ft _integerType) Convert(v any) (any, error) {
	return convertInteger(ft, v, minInteger, maxInteger)
}
func (ft _bigintType) Convert(v any) (any, error) {
	return convertInteger(ft, v, minBigint, maxBigint)
}

// integer types
func convertInteger(ft fieldType, v any, min, max int64) (any, error) {
	if v == nil {
		return v, nil
	}
	i64, err := convertToInt64(ft, v)
	if err != nil {
		return nil, err
	}
	if i64 > max || i64 < min {
		return nil, newConvertError(ft, v, ErrIntegerOutOfRange)
	}
	return i64, nil
}

func convertToInt64(ft fieldType, v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u64 := rv.Uint()
		if u64 >= 1<<63 {
			return 0, newConvertError(ft, v, ErrUint64OutOfRange)
		}
		return int64(u64), nil
	case reflect.Float32, reflect.Float64:
		f64 := rv.Float()
		i64 := int64(f64)
		if f64 != float64(i64) { // covers overflow, NaN, +-INF as well
			return 0, newConvertError(ft, v, nil)
		}
		return i64, nil
	case reflect.String:
		i64, err := strconv.ParseInt(rv.String(), 10, 64)
		if err != nil {
			return 0, newConvertError(ft, v, nil)
		}
		return i64, nil
	case reflect.Ptr:
		// indirect pointers
		if rv.IsNil() {
			return 0, nil
		}
		return convertToInt64(ft, rv.Elem().Interface())
	}

	if rv.Type().ConvertibleTo(stringReflectType) {
		return convertToInt64(ft, rv.Convert(stringReflectType).Interface())
	}

	return 0, newConvertError(ft, v, nil)
}

func (ft _realType) Convert(v any) (any, error)   { return convertFloat(ft, v, maxReal) }
func (ft _doubleType) Convert(v any) (any, error) { return convertFloat(ft, v, maxDouble) }

// float types
func convertFloat(ft fieldType, v any, max float64) (any, error) {
	if v == nil {
		return v, nil
	}
	f64, err := convertToFloat64(ft, v)
	if err != nil {
		return nil, err
	}
	if math.Abs(f64) > max {
		return nil, newConvertError(ft, v, ErrFloatOutOfRange)
	}
	return f64, nil
}

func convertToFloat64(ft fieldType, v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {

	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		f64, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return 0, newConvertError(ft, v, nil)
		}
		return f64, nil
	case reflect.Ptr:
		// indirect pointers
		if rv.IsNil() {
			return 0, nil
		}
		return convertToFloat64(ft, rv.Elem().Interface())
	}

	if rv.Type().ConvertibleTo(stringReflectType) {
		return convertToFloat64(ft, rv.Convert(stringReflectType).Interface())
	}

	return 0, newConvertError(ft, v, nil)
}

func (ft _dateType) Convert(v any) (any, error)       { return convertTime(ft, v) }
func (ft _timeType) Convert(v any) (any, error)       { return convertTime(ft, v) }
func (ft _timestampType) Convert(v any) (any, error)  { return convertTime(ft, v) }
func (ft _seconddateType) Convert(v any) (any, error) { return convertTime(ft, v) }

// time
func convertTime(ft fieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case time.Time:
		return v, nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Ptr:
		// indirect pointers
		if rv.IsNil() {
			return nil, nil
		}
		return convertTime(ft, rv.Elem().Interface())
	}

	if rv.Type().ConvertibleTo(timeReflectType) {
		tv := rv.Convert(timeReflectType)
		return tv.Interface().(time.Time), nil
	}
	return nil, newConvertError(ft, v, nil)
}

func (ft _decimalType) Convert(v any) (any, error) { return convertDecimal(ft, v) }

// decimal
func convertDecimal(ft fieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case *big.Rat:
		return v, nil
	case big.Rat:
		return new(big.Rat).Set(&v), nil
	case string:
		r, ok := new(big.Rat).SetString(v)
		if !ok {
			return nil, newConvertError(ft, v, nil)
		}
		return r, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return new(big.Rat).SetInt64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u64 := rv.Uint()
		if u64 >= 1<<63 {
			return nil, newConvertError(ft, v, ErrUint64OutOfRange)
		}
		return new(big.Rat).SetInt64(int64(u64)), nil
	case reflect.Float32, reflect.Float64:
		r := new(big.Rat).SetFloat64(rv.Float())
		if r == nil { // NaN, +-INF
			return nil, newConvertError(ft, v, nil)
		}
		return r, nil
	case reflect.Ptr:
		// indirect pointers
		if rv.IsNil() {
			return nil, nil
		}
		return convertDecimal(ft, rv.Elem().Interface())
	}

	if rv.Type().ConvertibleTo(ratReflectType) {
		r := rv.Convert(ratReflectType).Interface().(big.Rat)
		return new(big.Rat).Set(&r), nil
	}
	return nil, newConvertError(ft, v, nil)
}

func (ft _varType) Convert(v any) (any, error)   { return convertBytes(ft, v) }
func (ft _cesu8Type) Convert(v any) (any, error) { return convertBytes(ft, v) }

// bytes
func convertBytes(ft fieldType, v any) (any, error) {
	if v == nil {
		return v, nil
	}

	switch v := v.(type) {
	case string, []byte:
		return v, nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {

	case reflect.String:
		return rv.String(), nil

	case reflect.Slice:
		if rv.Type() == bytesReflectType {
			return rv.Bytes(), nil
		}

	case reflect.Ptr:
		// indirect pointers
		if rv.IsNil() {
			return nil, nil
		}
		return convertBytes(ft, rv.Elem().Interface())
	}

	if rv.Type().ConvertibleTo(bytesReflectType) {
		bv := rv.Convert(bytesReflectType)
		return bv.Interface().([]byte), nil
	}
	return nil, newConvertError(ft, v, nil)
}

func (ft _lobVarType) Convert(v any) (any, error)   { return convertLob(ft, v) }
func (ft _lobCESU8Type) Convert(v any) (any, error) { return convertLob(ft, v) }

// ReadProvider is the interface wrapping the Reader method which provides an io.Reader.
type ReadProvider interface {
	Reader() io.Reader
}

// Lob
func convertLob(ft fieldType, v any) (any, error) {
	if v == nil {
		return v, nil
	}

	switch v := v.(type) {
	case io.Reader:
		return v, nil
	case ReadProvider:
		return v.Reader(), nil
	case string:
		return strings.NewReader(v), nil
	case []byte:
		return bytes.NewReader(v), nil
	default:
		return nil, newConvertError(ft, v, nil)
	}
}

func (_booleanType) prmSize(any) int    { return booleanFieldSize }
func (_tinyintType) prmSize(any) int    { return tinyintFieldSize }
func (_smallintType) prmSize(any) int   { return smallintFieldSize }
func (_integerType) prmSize(any) int    { return integerFieldSize }
func (_bigintType) prmSize(any) int     { return bigintFieldSize }
func (_realType) prmSize(any) int       { return realFieldSize }
func (_doubleType) prmSize(any) int     { return doubleFieldSize }
func (_dateType) prmSize(any) int       { return daydateFieldSize }
func (_timeType) prmSize(any) int       { return secondtimeFieldSize }
func (_timestampType) prmSize(any) int  { return longdateFieldSize }
func (_seconddateType) prmSize(any) int { return seconddateFieldSize }
func (_decimalType) prmSize(any) int    { return decimalFieldSize }
func (_lobVarType) prmSize(v any) int   { return lobInputParametersSize }
func (_lobCESU8Type) prmSize(v any) int { return lobInputParametersSize }

func (ft _varType) prmSize(v any) int {
	switch v := v.(type) {
	case []byte:
		return varBytesSize(len(v))
	case string:
		return varBytesSize(len(v))
	default:
		return -1
	}
}
func (ft _cesu8Type) prmSize(v any) int {
	switch v := v.(type) {
	case []byte:
		return varBytesSize(cesu8.Size(v))
	case string:
		return varBytesSize(cesu8.StringSize(v))
	default:
		return -1
	}
}

func varBytesSize(size int) int {
	switch {
	default:
		return -1
	case size <= int(bytesLenIndSmall):
		return size + 1
	case size <= math.MaxInt16:
		return size + 3
	case size <= math.MaxInt32:
		return size + 5
	}
}

func (ft _booleanType) encodePrm(e *encoding.Encoder, v any) error {
	if v == nil { // in-band null value
		e.Byte(booleanNullValue)
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return newConvertError(ft, v, nil)
	}
	if b {
		e.Byte(booleanTrueValue)
	} else {
		e.Byte(booleanFalseValue)
	}
	return nil
}

func (ft _tinyintType) encodePrm(e *encoding.Encoder, v any) error {
	i, err := asInt64(ft, v)
	if err != nil {
		return err
	}
	e.Byte(byte(i))
	return nil
}
func (ft _smallintType) encodePrm(e *encoding.Encoder, v any) error {
	i, err := asInt64(ft, v)
	if err != nil {
		return err
	}
	e.Int16(int16(i))
	return nil
}
func (ft _integerType) encodePrm(e *encoding.Encoder, v any) error {
	i, err := asInt64(ft, v)
	if err != nil {
		return err
	}
	e.Int32(int32(i))
	return nil
}
func (ft _bigintType) encodePrm(e *encoding.Encoder, v any) error {
	i, err := asInt64(ft, v)
	if err != nil {
		return err
	}
	e.Int64(i)
	return nil
}

func asInt64(ft fieldType, v any) (int64, error) {
	switch v := v.(type) {
	default:
		return 0, newConvertError(ft, v, nil)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int64:
		return v, nil
	}
}

func (ft _realType) encodePrm(e *encoding.Encoder, v any) error {
	switch v := v.(type) {
	case float64:
		e.Float32(float32(v))
		return nil
	default:
		return newConvertError(ft, v, nil)
	}
}
func (ft _doubleType) encodePrm(e *encoding.Encoder, v any) error {
	switch v := v.(type) {
	case float64:
		e.Float64(v)
		return nil
	default:
		return newConvertError(ft, v, nil)
	}
}

func (ft _dateType) encodePrm(e *encoding.Encoder, v any) error {
	t, err := asTime(ft, v)
	if err != nil {
		return err
	}
	e.Int32(int32(convertTimeToDaydate(t)))
	return nil
}
func (ft _timeType) encodePrm(e *encoding.Encoder, v any) error {
	t, err := asTime(ft, v)
	if err != nil {
		return err
	}
	e.Int32(int32(convertTimeToSecondtime(t)))
	return nil
}
func (ft _timestampType) encodePrm(e *encoding.Encoder, v any) error {
	t, err := asTime(ft, v)
	if err != nil {
		return err
	}
	e.Int64(convertTimeToLongdate(t))
	return nil
}
func (ft _seconddateType) encodePrm(e *encoding.Encoder, v any) error {
	t, err := asTime(ft, v)
	if err != nil {
		return err
	}
	e.Int64(convertTimeToSeconddate(t))
	return nil
}

func asTime(ft fieldType, v any) (time.Time, error) {
	t, ok := v.(time.Time)
	if !ok {
		return zeroTime, newConvertError(ft, v, nil)
	}
	// store in utc
	return t.UTC(), nil
}

func (ft _decimalType) encodePrm(e *encoding.Encoder, v any) error {
	r, ok := v.(*big.Rat)
	if !ok {
		return newConvertError(ft, v, nil)
	}
	m, err := ft.ratToFixed(r)
	if err != nil {
		return newConvertError(ft, v, err)
	}
	return e.Fixed(m, decimalFieldSize)
}

// ratToFixed scales r by 10^scale and checks that the result is an integer
// with at most prec digits.
func (ft _decimalType) ratToFixed(r *big.Rat) (*big.Int, error) {
	m := new(big.Int).Mul(r.Num(), exp10(ft.scale))
	rem := new(big.Int)
	m.QuoRem(m, r.Denom(), rem)
	if rem.Sign() != 0 {
		return nil, ErrDecimalOutOfRange
	}
	if m.CmpAbs(exp10(ft.prec)) >= 0 {
		return nil, ErrDecimalOutOfRange
	}
	return m, nil
}

var natTen = big.NewInt(10)

func exp10(n int) *big.Int {
	return new(big.Int).Exp(natTen, big.NewInt(int64(n)), nil)
}

func (ft _varType) encodePrm(e *encoding.Encoder, v any) error {
	switch v := v.(type) {
	case []byte:
		return encodeVarBytes(e, v)
	case string:
		return encodeVarString(e, v)
	default:
		return newConvertError(ft, v, nil)
	}
}

func encodeVarBytesSize(e *encoding.Encoder, size int) error {
	switch {
	default:
		return fmt.Errorf("max argument length %d of string exceeded", size)
	case size <= int(bytesLenIndSmall):
		e.Byte(byte(size))
	case size <= math.MaxInt16:
		e.Byte(bytesLenIndMedium)
		e.Int16(int16(size))
	case size <= math.MaxInt32:
		e.Byte(bytesLenIndBig)
		e.Int32(int32(size))
	}
	return nil
}

func encodeVarBytes(e *encoding.Encoder, p []byte) error {
	if err := encodeVarBytesSize(e, len(p)); err != nil {
		return err
	}
	e.Bytes(p)
	return nil
}

func encodeVarString(e *encoding.Encoder, s string) error {
	if err := encodeVarBytesSize(e, len(s)); err != nil {
		return err
	}
	e.String(s)
	return nil
}

func (ft _cesu8Type) encodePrm(e *encoding.Encoder, v any) error {
	switch v := v.(type) {
	case []byte:
		return encodeCESU8Bytes(e, v)
	case string:
		return encodeCESU8String(e, v)
	default:
		return newConvertError(ft, v, nil)
	}
}

func encodeCESU8Bytes(e *encoding.Encoder, p []byte) error {
	size := cesu8.Size(p)
	if err := encodeVarBytesSize(e, size); err != nil {
		return err
	}
	e.CESU8Bytes(p)
	return nil
}

func encodeCESU8String(e *encoding.Encoder, s string) error {
	size := cesu8.StringSize(s)
	if err := encodeVarBytesSize(e, size); err != nil {
		return err
	}
	e.CESU8String(s)
	return nil
}

func (ft _lobVarType) encodePrm(e *encoding.Encoder, v any) error {
	descr, ok := v.(*lobInDescr)
	if !ok {
		return newConvertError(ft, v, nil)
	}
	return encodeLobPrm(e, descr)
}

func (ft _lobCESU8Type) encodePrm(e *encoding.Encoder, v any) error {
	descr, ok := v.(*lobInDescr)
	if !ok {
		return newConvertError(ft, v, nil)
	}
	return encodeLobPrm(e, descr)
}

func encodeLobPrm(e *encoding.Encoder, descr *lobInDescr) error {
	e.Byte(byte(descr.opt))
	e.Int32(descr.size)
	e.Int32(descr.pos)
	return nil
}

func (_booleanType) decode(d *encoding.Decoder) (any, error) {
	switch d.Byte() {
	case booleanFalseValue:
		return false, nil
	case booleanNullValue:
		return nil, nil
	default:
		return true, nil
	}
}

func (_tinyintType) decodePrm(d *encoding.Decoder) (any, error)  { return int64(d.Byte()), nil }
func (_smallintType) decodePrm(d *encoding.Decoder) (any, error) { return int64(d.Int16()), nil }
func (_integerType) decodePrm(d *encoding.Decoder) (any, error)  { return int64(d.Int32()), nil }
func (_bigintType) decodePrm(d *encoding.Decoder) (any, error)   { return d.Int64(), nil }

func (ft _tinyintType) decodeRes(d *encoding.Decoder) (any, error) {
	if !d.Bool() { // null value
		return nil, nil
	}
	return ft.decodePrm(d)
}
func (ft _smallintType) decodeRes(d *encoding.Decoder) (any, error) {
	if !d.Bool() { // null value
		return nil, nil
	}
	return ft.decodePrm(d)
}
func (ft _integerType) decodeRes(d *encoding.Decoder) (any, error) {
	if !d.Bool() { // null value
		return nil, nil
	}
	return ft.decodePrm(d)
}
func (ft _bigintType) decodeRes(d *encoding.Decoder) (any, error) {
	if !d.Bool() { // null value
		return nil, nil
	}
	return ft.decodePrm(d)
}

func (_realType) decode(d *encoding.Decoder) (any, error) {
	v := d.Uint32()
	if v == realNullValue {
		return nil, nil
	}
	return float64(math.Float32frombits(v)), nil
}
func (_doubleType) decode(d *encoding.Decoder) (any, error) {
	v := d.Uint64()
	if v == doubleNullValue {
		return nil, nil
	}
	return math.Float64frombits(v), nil
}

func (_dateType) decode(d *encoding.Decoder) (any, error) {
	daydate := d.Int32()
	if daydate == daydateNullValue {
		return nil, nil
	}
	return convertDaydateToTime(int64(daydate)), nil
}
func (_timeType) decode(d *encoding.Decoder) (any, error) {
	secondtime := d.Int32()
	if secondtime == secondtimeNullValue {
		return nil, nil
	}
	return convertSecondtimeToTime(int(secondtime)), nil
}
func (_timestampType) decode(d *encoding.Decoder) (any, error) {
	longdate := d.Int64()
	if longdate == longdateNullValue {
		return nil, nil
	}
	return convertLongdateToTime(longdate), nil
}
func (_seconddateType) decode(d *encoding.Decoder) (any, error) {
	seconddate := d.Int64()
	if seconddate == seconddateNullValue {
		return nil, nil
	}
	return convertSeconddateToTime(seconddate), nil
}

func (ft _decimalType) decodePrm(d *encoding.Decoder) (any, error) {
	m := d.Fixed(decimalFieldSize)
	return new(big.Rat).SetFrac(m, exp10(ft.scale)), nil
}
func (ft _decimalType) decodeRes(d *encoding.Decoder) (any, error) {
	if !d.Bool() { // null value
		return nil, nil
	}
	return ft.decodePrm(d)
}

func (_varType) decode(d *encoding.Decoder) (any, error) {
	size, null := decodeVarBytesSize(d)
	if null {
		return nil, nil
	}
	b := make([]byte, size)
	d.Bytes(b)
	return b, nil
}
func (_cesu8Type) decode(d *encoding.Decoder) (any, error) {
	size, null := decodeVarBytesSize(d)
	if null {
		return nil, nil
	}
	b, err := d.CESU8Bytes(size)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeVarBytesSize(d *encoding.Decoder) (int, bool) {
	ind := d.Byte() // length indicator
	switch {
	default:
		return 0, false
	case ind == bytesLenIndNullValue:
		return 0, true
	case ind <= bytesLenIndSmall:
		return int(ind), false
	case ind == bytesLenIndMedium:
		return int(d.Int16()), false
	case ind == bytesLenIndBig:
		return int(d.Int32()), false
	}
}

func decodeLobPrm(d *encoding.Decoder) (any, error) {
	descr := &lobInDescr{}
	descr.opt = lobOptions(d.Byte())
	descr.size = d.Int32()
	descr.pos = d.Int32()
	return descr, nil
}

// sniffer
func (_lobVarType) decodePrm(d *encoding.Decoder) (any, error)   { return decodeLobPrm(d) }
func (_lobCESU8Type) decodePrm(d *encoding.Decoder) (any, error) { return decodeLobPrm(d) }

func decodeLobRes(d *encoding.Decoder, isCharBased bool) (any, error) {
	descr := &LobDescr{isCharBased: isCharBased}
	descr.ltc = lobTypecode(d.Int8())
	descr.opt = lobOptions(d.Int8())
	if descr.opt.isNull() {
		return nil, nil
	}
	d.Skip(2)
	descr.numChar = d.Int64()
	descr.numByte = d.Int64()
	descr.id = locatorID(d.Uint64())
	size := int(d.Int32())
	descr.b = make([]byte, size)
	d.Bytes(descr.b)
	return descr, nil
}

func (_lobVarType) decodeRes(d *encoding.Decoder) (any, error) { return decodeLobRes(d, false) }
func (_lobCESU8Type) decodeRes(d *encoding.Decoder) (any, error) {
	return decodeLobRes(d, true)
}
