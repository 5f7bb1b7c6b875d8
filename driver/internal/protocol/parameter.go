// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

type parameterOptions int8

const (
	poMandatory parameterOptions = 0x01
	poOptional  parameterOptions = 0x02
	poDefault   parameterOptions = 0x04
)

var parameterOptionsText = map[parameterOptions]string{
	poMandatory: "mandatory",
	poOptional:  "optional",
	poDefault:   "default",
}

func (o parameterOptions) String() string {
	t := make([]string, 0, 3)
	for ov, s := range parameterOptionsText {
		if o&ov != 0 {
			t = append(t, s)
		}
	}
	return fmt.Sprintf("%v", t)
}

// ParameterMode is the input/output mode of a statement parameter.
type ParameterMode int8

// ParameterMode constants.
const (
	PmIn    ParameterMode = 0x01
	PmInout ParameterMode = 0x02
	PmOut   ParameterMode = 0x04
)

var parameterModeText = map[ParameterMode]string{
	PmIn:    "in",
	PmInout: "inout",
	PmOut:   "out",
}

func (m ParameterMode) String() string {
	t := make([]string, 0, 3)
	for mv, s := range parameterModeText {
		if m&mv != 0 {
			t = append(t, s)
		}
	}
	return fmt.Sprintf("%v", t)
}

// In returns true if the parameter accepts input.
func (m ParameterMode) In() bool { return m&(PmIn|PmInout) != 0 }

// Out returns true if the parameter delivers output.
func (m ParameterMode) Out() bool { return m&(PmOut|PmInout) != 0 }

// parameterField contains the metadata of one statement parameter.
type parameterField struct {
	names            *fieldNames
	parameterOptions parameterOptions
	tc               TypeCode
	mode             ParameterMode
	nameOfs          uint32
	length           int16
	fraction         int16
	ft               fieldType
}

func (f *parameterField) String() string {
	return fmt.Sprintf("parameterOptions %s typeCode %s mode %s fraction %d length %d name %s",
		f.parameterOptions,
		f.tc,
		f.mode,
		f.fraction,
		f.length,
		f.Name(),
	)
}

// Name implements the Field interface.
func (f *parameterField) Name() string { return f.names.name(f.nameOfs) }

// TypeName implements the Field interface.
func (f *parameterField) TypeName() string { return f.tc.typeName() }

// DataType implements the Field interface.
func (f *parameterField) DataType() DataType { return f.tc.dataType() }

// TypeLength implements the Field interface.
func (f *parameterField) TypeLength() (int64, bool) {
	if f.tc.isVariableLength() {
		return int64(f.length), true
	}
	return 0, false
}

// TypePrecisionScale implements the Field interface.
func (f *parameterField) TypePrecisionScale() (int64, int64, bool) {
	if f.tc.isDecimalType() {
		return int64(f.length), int64(f.fraction), true
	}
	return 0, 0, false
}

// Nullable implements the Field interface.
func (f *parameterField) Nullable() bool { return f.parameterOptions&poOptional != 0 }

// Mode returns the parameter mode.
func (f *parameterField) Mode() ParameterMode { return f.mode }

func (f *parameterField) fieldType() (fieldType, error) {
	if f.ft == nil {
		var err error
		if f.ft, err = f.tc.fieldType(int(f.length), int(f.fraction)); err != nil {
			return nil, err
		}
	}
	return f.ft, nil
}

// convert converts a statement argument into its wire representation.
// Lob arguments are read in full, as the lob content is sent inline
// with the execute request.
func (f *parameterField) convert(v any) (any, error) {
	ft, err := f.fieldType()
	if err != nil {
		return nil, err
	}
	cv, err := ft.Convert(v)
	if err != nil {
		return nil, err
	}
	if descr, ok := cv.(*lobInDescr); ok {
		if err := descr.fetch(); err != nil {
			return nil, err
		}
	}
	return cv, nil
}

func (f *parameterField) prmSize(v any) int {
	if v == nil && f.tc.supportNullValue() {
		return 1 // null indicator in type code byte
	}
	ft, err := f.fieldType()
	if err != nil {
		return 0
	}
	return ft.prmSize(v)
}

func (f *parameterField) encodePrm(enc *encoding.Encoder, v any) error {
	if v == nil && f.tc.supportNullValue() {
		enc.Byte(byte(f.tc.nullValue())) // type code null value, high bit set
		return nil
	}
	ft, err := f.fieldType()
	if err != nil {
		return err
	}
	return ft.encodePrm(enc, v)
}

func (f *parameterField) decodePrm(dec *encoding.Decoder) (any, error) {
	ft, err := f.fieldType()
	if err != nil {
		return nil, err
	}
	switch ft := ft.(type) {
	case prmDecoder:
		return ft.decodePrm(dec)
	case commonDecoder:
		return ft.decode(dec)
	default:
		panic(fmt.Sprintf("field type %s: missing parameter decoder", ft)) // should never happen
	}
}

func (f *parameterField) decode(dec *encoding.Decoder) {
	f.parameterOptions = parameterOptions(dec.Int8())
	f.tc = TypeCode(dec.Byte())
	f.mode = ParameterMode(dec.Int8())
	dec.Skip(1) // filler
	f.nameOfs = dec.Uint32()
	f.length = dec.Int16()
	f.fraction = dec.Int16()
	dec.Skip(4) // filler
	f.names.insert(f.nameOfs)
	f.ft = nil
}

// parameterMetadata is the parameter metadata part of a prepare reply.
type parameterMetadata struct {
	parameterFields []*parameterField
}

func (m *parameterMetadata) String() string {
	return fmt.Sprintf("parameter fields %v", m.parameterFields)
}

func (m *parameterMetadata) decode(dec *encoding.Decoder, ph *partHeader) error {
	names := newFieldNames()
	numArg := ph.numArg()

	m.parameterFields = make([]*parameterField, numArg)
	for i := 0; i < numArg; i++ {
		f := &parameterField{names: names}
		f.decode(dec)
		m.parameterFields[i] = f
	}
	if err := names.decode(dec); err != nil {
		return err
	}
	return dec.Error()
}

// inputParameters holds the arguments of an execute request. args contains
// the converted values row by row (len(args) is a multiple of the number of
// input fields).
type inputParameters struct {
	inputFields []*parameterField
	args        []any
}

func newInputParameters(inputFields []*parameterField, args []any) (*inputParameters, error) {
	if len(inputFields) == 0 || len(args)%len(inputFields) != 0 {
		return nil, fmt.Errorf("invalid number of arguments %d for %d input fields", len(args), len(inputFields))
	}
	return &inputParameters{inputFields: inputFields, args: args}, nil
}

func (p *inputParameters) String() string {
	return fmt.Sprintf("parameters %v", p.args)
}

func (p *inputParameters) size() int {
	size := 0
	lobs := []*lobInDescr{}
	for i, arg := range p.args {
		f := p.inputFields[i%len(p.inputFields)]
		size += f.prmSize(arg)
		if descr, ok := arg.(*lobInDescr); ok {
			lobs = append(lobs, descr)
		}
	}
	// lob content is appended after the parameter rows, positions are
	// relative to the part start.
	for _, descr := range lobs {
		descr.setPos(size)
		size += len(descr.b)
	}
	return size
}

func (p *inputParameters) numArg() int { return len(p.args) / len(p.inputFields) }

func (p *inputParameters) encode(enc *encoding.Encoder) error {
	lobs := []*lobInDescr{}
	for i, arg := range p.args {
		f := p.inputFields[i%len(p.inputFields)]
		if err := f.encodePrm(enc, arg); err != nil {
			return err
		}
		if descr, ok := arg.(*lobInDescr); ok {
			lobs = append(lobs, descr)
		}
	}
	for _, descr := range lobs {
		descr.writeData(enc)
	}
	return nil
}

// outputParameters is the output parameter part of a procedure call reply.
type outputParameters struct {
	outputFields []*parameterField
	fieldValues  []any
}

func (p *outputParameters) String() string {
	return fmt.Sprintf("fields %v values %v", p.outputFields, p.fieldValues)
}

func (p *outputParameters) decode(dec *encoding.Decoder, ph *partHeader) error {
	numArg := ph.numArg()
	cols := len(p.outputFields)
	p.fieldValues = resizeSlice(p.fieldValues, numArg*cols)

	for i := 0; i < numArg; i++ {
		for j, f := range p.outputFields {
			v, err := f.decodeRes(dec)
			if err != nil {
				return err
			}
			p.fieldValues[i*cols+j] = v
		}
	}
	return dec.Error()
}

func (f *parameterField) decodeRes(dec *encoding.Decoder) (any, error) {
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
