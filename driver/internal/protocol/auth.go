// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
	"github.com/helixdb/go-helix/driver/unicode/cesu8"
)

// Authentication method names.
const (
	MnSCRAMSHA256       = "SCRAMSHA256"
	MnSCRAMPBKDF2SHA256 = "SCRAMPBKDF2SHA256"
)

const (
	int16Size  = 2
	uint32Size = 4
)

const (
	smallPrmMaxSize = 245 // maximum size of an authentication parameter with one byte length prefix
	bigPrmInd       = 255 // indicator: size in following big endian uint16
)

func authPrmSize(size int) int {
	if size > smallPrmMaxSize {
		return size + 3
	}
	return size + 1
}

func authEncodePrmSize(e *encoding.Encoder, size int) {
	if size > smallPrmMaxSize {
		e.Byte(bigPrmInd)
		e.Uint16ByteOrder(uint16(size), binary.BigEndian)
	} else {
		e.Byte(byte(size))
	}
}

func authDecodePrmSize(d *encoding.Decoder) int {
	size := int(d.Byte())
	if size == bigPrmInd {
		size = int(d.Uint16ByteOrder(binary.BigEndian))
	}
	return size
}

type authCESU8String string

// authPrms represents the parameter block of an authentication part. A
// parameter is either a byte slice, a cesu8 encoded string or a nested
// parameter block.
type authPrms struct {
	prms []any
}

func (p *authPrms) addBytes(b []byte)       { p.prms = append(p.prms, b) }
func (p *authPrms) addString(s string)      { p.prms = append(p.prms, []byte(s)) } // treat as bytes to avoid allocations on encode
func (p *authPrms) addCESU8String(s string) { p.prms = append(p.prms, authCESU8String(s)) }
func (p *authPrms) addEmpty()               { p.prms = append(p.prms, []byte{}) }
func (p *authPrms) addPrms() *authPrms {
	prms := &authPrms{}
	p.prms = append(p.prms, prms)
	return prms
}

func (p *authPrms) size() int {
	size := int16Size // no of parameters
	for _, prm := range p.prms {
		switch v := prm.(type) {
		case []byte:
			size += authPrmSize(len(v))
		case authCESU8String:
			size += authPrmSize(cesu8.StringSize(string(v)))
		case *authPrms:
			size += authPrmSize(v.size())
		default:
			panic(fmt.Sprintf("invalid parameter type %T", prm)) // should never happen
		}
	}
	return size
}

func (p *authPrms) encode(e *encoding.Encoder) error {
	numPrms := len(p.prms)
	if numPrms > math.MaxInt16 {
		return fmt.Errorf("invalid number of parameters %d - maximum %d", numPrms, math.MaxInt16)
	}
	e.Int16(int16(numPrms))

	for _, prm := range p.prms {
		switch v := prm.(type) {
		case []byte:
			authEncodePrmSize(e, len(v))
			e.Bytes(v)
		case authCESU8String:
			authEncodePrmSize(e, cesu8.StringSize(string(v)))
			e.CESU8String(string(v))
		case *authPrms:
			authEncodePrmSize(e, v.size())
			if err := v.encode(e); err != nil {
				return err
			}
		default:
			panic(fmt.Sprintf("invalid parameter type %T", prm)) // should never happen
		}
	}
	return nil
}

// authDecoder decodes the parameter block of an authentication reply.
type authDecoder struct {
	dec *encoding.Decoder
}

func newAuthDecoder(dec *encoding.Decoder) *authDecoder { return &authDecoder{dec: dec} }

func (d *authDecoder) numPrm(expected int) error {
	numPrm := int(d.dec.Int16())
	if numPrm != expected {
		return fmt.Errorf("invalid number of parameters %d - expected %d", numPrm, expected)
	}
	return nil
}

func (d *authDecoder) bytes() ([]byte, error) {
	size := authDecodePrmSize(d.dec)
	b := make([]byte, size)
	d.dec.Bytes(b)
	return b, d.dec.Error()
}

func (d *authDecoder) string() (string, error) {
	b, err := d.bytes()
	return string(b), err
}

func (d *authDecoder) cesu8String() (string, error) {
	size := authDecodePrmSize(d.dec)
	b, err := d.dec.CESU8Bytes(size)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *authDecoder) bigUint32() (uint32, error) {
	size := d.dec.Byte()
	if size != uint32Size {
		return 0, fmt.Errorf("invalid parameter size %d - expected %d", size, uint32Size)
	}
	return d.dec.Uint32ByteOrder(binary.BigEndian), nil
}

// subSize announces the size of a nested parameter block which the caller
// decodes via the returned function.
func (d *authDecoder) subSize() int { return authDecodePrmSize(d.dec) }

// authMethod is the interface of an authentication method.
type authMethod interface {
	fmt.Stringer
	methodName() string
	prepareInitReq(prms *authPrms)
	initRepDecode(d *authDecoder) error
	prepareFinalReq(prms *authPrms) error
	finalRepDecode(d *authDecoder) error
}

// auth implements the authentication handshake. The client offers its
// methods within the init request, the server picks one and the handshake
// continues with the selected method only.
type auth struct {
	logonname string
	methods   []authMethod
	method    authMethod
}

func newAuth(logonname string) *auth { return &auth{logonname: logonname} }

func (a *auth) add(method authMethod) { a.methods = append(a.methods, method) }

func (a *auth) addSCRAMSHA256(username, password string) {
	a.add(newAuthSCRAMSHA256(username, password))
}

func (a *auth) addSCRAMPBKDF2SHA256(username, password string) {
	a.add(newAuthSCRAMPBKDF2SHA256(username, password))
}

func (a *auth) setMethod(methodName string) error {
	for _, method := range a.methods {
		if method.methodName() == methodName {
			a.method = method
			return nil
		}
	}
	return fmt.Errorf("invalid or not supported authentication method %s", methodName)
}

// authInitReq is the authentication part of the authenticate request.
type authInitReq struct {
	a *auth
}

func (r authInitReq) String() string { return fmt.Sprintf("logonname %s", r.a.logonname) }

func (r authInitReq) size() int {
	prms := &authPrms{}
	prms.addCESU8String(r.a.logonname)
	for _, method := range r.a.methods {
		prms.addString(method.methodName())
		method.prepareInitReq(prms)
	}
	return prms.size()
}

func (r authInitReq) encode(enc *encoding.Encoder) error {
	prms := &authPrms{}
	prms.addCESU8String(r.a.logonname)
	for _, method := range r.a.methods {
		prms.addString(method.methodName())
		method.prepareInitReq(prms)
	}
	return prms.encode(enc)
}

// authInitRep is the authentication part of the authenticate reply.
type authInitRep struct {
	a *auth
}

func (r *authInitRep) String() string { return fmt.Sprintf("method %v", r.a.method) }

func (r *authInitRep) decode(dec *encoding.Decoder, ph *partHeader) error {
	d := newAuthDecoder(dec)

	if err := d.numPrm(2); err != nil {
		return err
	}
	methodName, err := d.string()
	if err != nil {
		return err
	}
	if err := r.a.setMethod(methodName); err != nil {
		return err
	}
	return r.a.method.initRepDecode(d)
}

// authFinalReq is the authentication part of the connect request.
type authFinalReq struct {
	a *auth
}

func (r authFinalReq) String() string { return fmt.Sprintf("method %v", r.a.method) }

func (r authFinalReq) size() int {
	prms := &authPrms{}
	prms.addCESU8String(r.a.logonname)
	prms.addString(r.a.method.methodName())
	if err := r.a.method.prepareFinalReq(prms); err != nil {
		return 0
	}
	return prms.size()
}

func (r authFinalReq) encode(enc *encoding.Encoder) error {
	prms := &authPrms{}
	prms.addCESU8String(r.a.logonname)
	prms.addString(r.a.method.methodName())
	if err := r.a.method.prepareFinalReq(prms); err != nil {
		return err
	}
	return prms.encode(enc)
}

// authFinalRep is the authentication part of the connect reply.
type authFinalRep struct {
	a *auth
}

func (r *authFinalRep) String() string { return fmt.Sprintf("method %v", r.a.method) }

func (r *authFinalRep) decode(dec *encoding.Decoder, ph *partHeader) error {
	d := newAuthDecoder(dec)

	if err := d.numPrm(2); err != nil {
		return err
	}
	methodName, err := d.string()
	if err != nil {
		return err
	}
	if methodName != r.a.method.methodName() {
		return fmt.Errorf("connect reply: invalid authentication method %s - expected %s", methodName, r.a.method.methodName())
	}
	return r.a.method.finalRepDecode(d)
}
