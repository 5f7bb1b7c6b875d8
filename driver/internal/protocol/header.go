// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"math"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

const (
	segmentHeaderSize = 32
	partHeaderSize    = 16
	maxPartNum        = math.MaxInt16
)

// segment header
// A message consists of exactly one segment carrying noOfParts parts.
// varPartLength counts all bytes following the segment header.
type segmentHeader struct {
	sessionID     int64
	packetCount   int32
	varPartLength uint32
	segmentKind   segmentKind
	messageType   MessageType
	functionCode  FunctionCode
	commit        bool
	noOfParts     int16
}

func (h *segmentHeader) String() string {
	return fmt.Sprintf("session id %d packetCount %d varPartLength %d kind %s messageType %s functionCode %s commit %t noOfParts %d",
		h.sessionID,
		h.packetCount,
		h.varPartLength,
		h.segmentKind,
		h.messageType,
		h.functionCode,
		h.commit,
		h.noOfParts,
	)
}

func (h *segmentHeader) encode(enc *encoding.Encoder) error {
	enc.Int64(h.sessionID)
	enc.Int32(h.packetCount)
	enc.Uint32(h.varPartLength)
	enc.Int8(int8(h.segmentKind))
	enc.Int8(int8(h.messageType))
	enc.Int16(int16(h.functionCode))
	enc.Bool(h.commit)
	enc.Int16(h.noOfParts)
	enc.Zeroes(9) // segmentHeaderSize
	return nil
}

func (h *segmentHeader) decode(dec *encoding.Decoder) error {
	h.sessionID = dec.Int64()
	h.packetCount = dec.Int32()
	h.varPartLength = dec.Uint32()
	h.segmentKind = segmentKind(dec.Int8())
	h.messageType = MessageType(dec.Int8())
	h.functionCode = FunctionCode(dec.Int16())
	h.commit = dec.Bool()
	h.noOfParts = dec.Int16()
	dec.Skip(9) // segmentHeaderSize
	return dec.Error()
}

type partAttributes int8

const (
	paLastPacket      partAttributes = 0x01
	paNextPacket      partAttributes = 0x02
	paFirstPacket     partAttributes = 0x04
	paRowNotFound     partAttributes = 0x08
	paResultsetClosed partAttributes = 0x10
)

var partAttributesText = map[partAttributes]string{
	paLastPacket:      "lastPacket",
	paNextPacket:      "nextPacket",
	paFirstPacket:     "firstPacket",
	paRowNotFound:     "rowNotFound",
	paResultsetClosed: "resultsetClosed",
}

func (k partAttributes) String() string {
	t := make([]string, 0, len(partAttributesText))

	for attr, text := range partAttributesText {
		if (k & attr) != 0 {
			t = append(t, text)
		}
	}
	return fmt.Sprintf("%v", t)
}

func (k partAttributes) ResultsetClosed() bool {
	return (k & paResultsetClosed) == paResultsetClosed
}

func (k partAttributes) LastPacket() bool {
	return (k & paLastPacket) == paLastPacket
}

func (k partAttributes) NoRows() bool {
	attrs := paLastPacket | paRowNotFound
	return (k & attrs) == attrs
}

// part header
type partHeader struct {
	partKind         PartKind
	partAttributes   partAttributes
	argumentCount    int16
	bigArgumentCount int32
	bufferLength     int32
	bufferSize       int32
}

func (h *partHeader) String() string {
	return fmt.Sprintf("kind %s partAttributes %s argumentCount %d bigArgumentCount %d bufferLength %d bufferSize %d",
		h.partKind,
		h.partAttributes,
		h.argumentCount,
		h.bigArgumentCount,
		h.bufferLength,
		h.bufferSize,
	)
}

func (h *partHeader) setNumArg(numArg int) error {
	if numArg > maxPartNum {
		return fmt.Errorf("maximum number of arguments %d exceeded", numArg)
	}
	h.argumentCount = int16(numArg)
	h.bigArgumentCount = 0
	return nil
}

func (h *partHeader) numArg() int {
	if h.bigArgumentCount != 0 {
		panic("part header: bigArgumentCount is set")
	}
	return int(h.argumentCount)
}

func (h *partHeader) encode(enc *encoding.Encoder) error {
	enc.Int8(int8(h.partKind))
	enc.Int8(int8(h.partAttributes))
	enc.Int16(h.argumentCount)
	enc.Int32(h.bigArgumentCount)
	enc.Int32(h.bufferLength)
	enc.Int32(h.bufferSize)
	// no filler
	return nil
}

func (h *partHeader) decode(dec *encoding.Decoder) error {
	h.partKind = PartKind(dec.Int8())
	h.partAttributes = partAttributes(dec.Int8())
	h.argumentCount = dec.Int16()
	h.bigArgumentCount = dec.Int32()
	h.bufferLength = dec.Int32()
	h.bufferSize = dec.Int32()
	// no filler
	return dec.Error()
}
