// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// The init handshake is exchanged on a fresh connection before the first
// message. It is not part of the message framing.
const (
	initRequestFillerSize = 4
	initRequestSize       = 14
	initReplySize         = 8
)

const initRequestFiller uint32 = 0xffffffff

type endianess int8

const (
	bigEndian    endianess = 0
	littleEndian endianess = 1
)

func (e endianess) String() string {
	switch e {
	case bigEndian:
		return "big endian"
	case littleEndian:
		return "little endian"
	default:
		return fmt.Sprintf("endianess(%d)", int(e))
	}
}

type version struct {
	major int8
	minor int16
}

func (v version) String() string { return fmt.Sprintf("%d.%d", v.major, v.minor) }

type initRequest struct {
	product  version
	protocol version
	numOpt   int8
	endian   endianess
}

func (r *initRequest) String() string {
	return fmt.Sprintf("init request: product version %s protocol version %s endianess %s", r.product, r.protocol, r.endian)
}

func (r *initRequest) encode(enc *encoding.Encoder) error {
	enc.Uint32(initRequestFiller)
	enc.Int8(r.product.major)
	enc.Int16(r.product.minor)
	enc.Int8(r.protocol.major)
	enc.Int16(r.protocol.minor)
	enc.Int8(r.numOpt)
	enc.Int8(1) // option id: swap kind
	enc.Int8(int8(r.endian))
	enc.Zeroes(1) // filler
	return nil
}

func (r *initRequest) decode(dec *encoding.Decoder) error {
	dec.Skip(initRequestFillerSize)
	r.product.major = dec.Int8()
	r.product.minor = dec.Int16()
	r.protocol.major = dec.Int8()
	r.protocol.minor = dec.Int16()
	r.numOpt = dec.Int8()
	dec.Skip(1) // option id
	r.endian = endianess(dec.Int8())
	dec.Skip(1) // filler
	return dec.Error()
}

type initReply struct {
	product  version
	protocol version
}

func (r *initReply) String() string {
	return fmt.Sprintf("init reply: product version %s protocol version %s", r.product, r.protocol)
}

func (r *initReply) encode(enc *encoding.Encoder) error {
	enc.Int8(r.product.major)
	enc.Int16(r.product.minor)
	enc.Int8(r.protocol.major)
	enc.Int16(r.protocol.minor)
	enc.Zeroes(2) // filler
	return nil
}

func (r *initReply) decode(dec *encoding.Decoder) error {
	r.product.major = dec.Int8()
	r.product.minor = dec.Int16()
	r.protocol.major = dec.Int8()
	r.protocol.minor = dec.Int16()
	dec.Skip(2) // filler
	return dec.Error()
}
