// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strings"
)

// TypeCode identifies the type of a field transferred to or from the database.
type TypeCode byte

// TypeCode constants.
const (
	tcBoolean    TypeCode = 0x01
	tcTinyint    TypeCode = 0x02
	tcSmallint   TypeCode = 0x03
	tcInteger    TypeCode = 0x04
	tcBigint     TypeCode = 0x05
	tcReal       TypeCode = 0x06
	tcDouble     TypeCode = 0x07
	tcDecimal    TypeCode = 0x08
	tcChar       TypeCode = 0x09
	tcVarchar    TypeCode = 0x0a
	tcBinary     TypeCode = 0x0b
	tcVarbinary  TypeCode = 0x0c
	tcDate       TypeCode = 0x0d
	tcTime       TypeCode = 0x0e
	tcTimestamp  TypeCode = 0x0f
	tcSeconddate TypeCode = 0x10
	tcClob       TypeCode = 0x11
	tcNclob      TypeCode = 0x12
	tcBlob       TypeCode = 0x13
	tcText       TypeCode = 0x14

	// decoded but not supported (see UnsupportedTypeError)
	tcStPoint    TypeCode = 0x20
	tcStGeometry TypeCode = 0x21
)

var typeCodeText = map[TypeCode]string{
	tcBoolean:    "boolean",
	tcTinyint:    "tinyint",
	tcSmallint:   "smallint",
	tcInteger:    "integer",
	tcBigint:     "bigint",
	tcReal:       "real",
	tcDouble:     "double",
	tcDecimal:    "decimal",
	tcChar:       "char",
	tcVarchar:    "varchar",
	tcBinary:     "binary",
	tcVarbinary:  "varbinary",
	tcDate:       "date",
	tcTime:       "time",
	tcTimestamp:  "timestamp",
	tcSeconddate: "seconddate",
	tcClob:       "clob",
	tcNclob:      "nclob",
	tcBlob:       "blob",
	tcText:       "text",
	tcStPoint:    "stPoint",
	tcStGeometry: "stGeometry",
}

func (tc TypeCode) String() string {
	if s, ok := typeCodeText[tc]; ok {
		return s
	}
	return fmt.Sprintf("typeCode(0x%x)", byte(tc))
}

// IsLob returns true if the TypeCode represents a Lob, false otherwise.
func (tc TypeCode) IsLob() bool {
	return tc == tcClob || tc == tcNclob || tc == tcBlob || tc == tcText
}

func (tc TypeCode) isCharBased() bool {
	return tc == tcNclob || tc == tcText || tc == tcClob
}

func (tc TypeCode) isVariableLength() bool {
	return tc == tcChar || tc == tcVarchar || tc == tcBinary || tc == tcVarbinary
}

func (tc TypeCode) isDecimalType() bool { return tc == tcDecimal }

func (tc TypeCode) supportNullValue() bool {
	// boolean values: false =:= 0; null =:= 1; true =:= 2
	return tc != tcBoolean
}

// nullValue returns the type code used to flag a null parameter value.
func (tc TypeCode) nullValue() TypeCode {
	return tc | 0x80 // type code null value: set high bit
}

// UnsupportedTypeError is returned if a result or parameter field uses a
// type code the driver does not support.
type UnsupportedTypeError struct {
	tc TypeCode
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported database type %s", e.tc)
}

// TypeCode returns the wire type code of the unsupported type.
func (e *UnsupportedTypeError) TypeCode() byte { return byte(e.tc) }

// DataType is the driver representation of a database type.
type DataType byte

// DataType constants.
const (
	DtUnknown DataType = iota // unknown data type
	DtBoolean
	DtTinyint
	DtSmallint
	DtInteger
	DtBigint
	DtReal
	DtDouble
	DtDecimal
	DtString
	DtBytes
	DtTime
	DtLob
)

var dataTypeText = map[DataType]string{
	DtUnknown:  "unknown",
	DtBoolean:  "boolean",
	DtTinyint:  "tinyint",
	DtSmallint: "smallint",
	DtInteger:  "integer",
	DtBigint:   "bigint",
	DtReal:     "real",
	DtDouble:   "double",
	DtDecimal:  "decimal",
	DtString:   "string",
	DtBytes:    "bytes",
	DtTime:     "time",
	DtLob:      "lob",
}

func (dt DataType) String() string {
	if s, ok := dataTypeText[dt]; ok {
		return s
	}
	return fmt.Sprintf("dataType(%d)", byte(dt))
}

func (tc TypeCode) dataType() DataType {
	// performance: use switch instead of map
	switch tc {
	case tcBoolean:
		return DtBoolean
	case tcTinyint:
		return DtTinyint
	case tcSmallint:
		return DtSmallint
	case tcInteger:
		return DtInteger
	case tcBigint:
		return DtBigint
	case tcReal:
		return DtReal
	case tcDouble:
		return DtDouble
	case tcDecimal:
		return DtDecimal
	case tcChar, tcVarchar:
		return DtString
	case tcBinary, tcVarbinary:
		return DtBytes
	case tcDate, tcTime, tcTimestamp, tcSeconddate:
		return DtTime
	case tcClob, tcNclob, tcBlob, tcText:
		return DtLob
	default:
		return DtUnknown
	}
}

// typeName returns the database type name.
func (tc TypeCode) typeName() string {
	if s, ok := typeCodeText[tc]; ok {
		return strings.ToUpper(s)
	}
	return "UNKNOWN"
}

func (tc TypeCode) fieldType(length, fraction int) (fieldType, error) {
	// performance: use switch instead of map
	switch tc {
	case tcBoolean:
		return booleanType, nil
	case tcTinyint:
		return tinyintType, nil
	case tcSmallint:
		return smallintType, nil
	case tcInteger:
		return integerType, nil
	case tcBigint:
		return bigintType, nil
	case tcReal:
		return realType, nil
	case tcDouble:
		return doubleType, nil
	case tcDecimal:
		return _decimalType{prec: length, scale: fraction}, nil
	case tcChar, tcVarchar:
		return cesu8Type, nil
	case tcBinary, tcVarbinary:
		return varType, nil
	case tcDate:
		return dateType, nil
	case tcTime:
		return timeType, nil
	case tcTimestamp:
		return timestampType, nil
	case tcSeconddate:
		return seconddateType, nil
	case tcBlob:
		return lobVarType, nil
	case tcClob, tcNclob, tcText:
		return lobCESU8Type, nil
	default:
		return nil, &UnsupportedTypeError{tc: tc}
	}
}
