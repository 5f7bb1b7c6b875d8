// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"io"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// lob options
type lobOptions int8

const (
	loNullindicator lobOptions = 0x01
	loDataincluded  lobOptions = 0x02
	loLastdata      lobOptions = 0x04
)

var lobOptionsText = map[lobOptions]string{
	loNullindicator: "null",
	loDataincluded:  "data included",
	loLastdata:      "last data",
}

func (o lobOptions) String() string {
	t := make([]string, 0, 3)
	for ov, s := range lobOptionsText {
		if o&ov != 0 {
			t = append(t, s)
		}
	}
	return fmt.Sprintf("%v", t)
}

func (o lobOptions) isNull() bool         { return o&loNullindicator != 0 }
func (o lobOptions) isDataIncluded() bool { return o&loDataincluded != 0 }
func (o lobOptions) isLastData() bool     { return o&loLastdata != 0 }

// lob typecode
type lobTypecode int8

const (
	ltcNone  lobTypecode = 0
	ltcBlob  lobTypecode = 1
	ltcClob  lobTypecode = 2
	ltcNclob lobTypecode = 3
)

// lobInDescr is the descriptor of a lob parameter sent to the server. The
// lob content is transferred within the same request, directly after the
// input parameter rows.
type lobInDescr struct {
	rd   io.Reader
	opt  lobOptions
	size int32
	pos  int32
	b    []byte
}

func newLobInDescr(rd io.Reader) *lobInDescr {
	return &lobInDescr{rd: rd}
}

func (d *lobInDescr) String() string {
	// restrict output size
	b := d.b
	if len(b) > 25 {
		b = d.b[:25]
	}
	return fmt.Sprintf("opt %s size %d pos %d bytes %v", d.opt, d.size, d.pos, b)
}

// fetch reads the complete lob content. All lob data is transferred within
// the execute request.
func (d *lobInDescr) fetch() error {
	var err error
	if d.b, err = io.ReadAll(d.rd); err != nil {
		return err
	}
	d.size = int32(len(d.b))
	d.opt = loDataincluded | loLastdata
	return nil
}

func (d *lobInDescr) setPos(pos int) { d.pos = int32(pos) }

func (d *lobInDescr) writeData(enc *encoding.Encoder) { enc.Bytes(d.b) }

// LobDescr is the descriptor of a lob result value. The first data chunk
// is transferred within the result, the remainder is read on demand via
// read lob requests using the locator id.
type LobDescr struct {
	isCharBased bool
	ltc         lobTypecode
	opt         lobOptions
	numChar     int64
	numByte     int64
	id          locatorID
	b           []byte
}

func (d *LobDescr) String() string {
	return fmt.Sprintf("typecode %d options %s numChar %d numByte %d id %d bytes %v", d.ltc, d.opt, d.numChar, d.numByte, d.id, d.b)
}

// IsLastData returns true if the descriptor already holds the complete lob content.
func (d *LobDescr) IsLastData() bool { return d.opt.isLastData() }

// IsCharBased returns true for character based lobs (text content).
func (d *LobDescr) IsCharBased() bool { return d.isCharBased }

// NumChar returns the lob size in characters.
func (d *LobDescr) NumChar() int64 { return d.numChar }

// NumByte returns the lob size in bytes.
func (d *LobDescr) NumByte() int64 { return d.numByte }

// Chunk returns the data chunk transferred with the result.
func (d *LobDescr) Chunk() []byte { return d.b }

// readLobRequest requests a lob chunk from the server.
type readLobRequest struct {
	id        locatorID
	ofs       int64
	chunkSize int32
}

func (r *readLobRequest) String() string {
	return fmt.Sprintf("id %d offset %d size %d", r.id, r.ofs, r.chunkSize)
}

// sniffer
func (r *readLobRequest) decode(dec *encoding.Decoder, ph *partHeader) error {
	r.id = locatorID(dec.Uint64())
	r.ofs = dec.Int64() - 1
	r.chunkSize = dec.Int32()
	dec.Skip(4) // filler
	return dec.Error()
}

func (r *readLobRequest) encode(enc *encoding.Encoder) error {
	enc.Uint64(uint64(r.id))
	enc.Int64(r.ofs + 1) // one based offset
	enc.Int32(r.chunkSize)
	enc.Zeroes(4) // filler
	return nil
}

// readLobReply is the lob chunk read from the server.
type readLobReply struct {
	id  locatorID
	opt lobOptions
	b   []byte
}

func (r *readLobReply) String() string {
	return fmt.Sprintf("id %d options %s bytes %d", r.id, r.opt, len(r.b))
}

func (r *readLobReply) decode(dec *encoding.Decoder, ph *partHeader) error {
	if ph.numArg() != 1 {
		return fmt.Errorf("read lob reply: invalid number of arguments %d", ph.numArg())
	}
	r.id = locatorID(dec.Uint64())
	r.opt = lobOptions(dec.Int8())
	size := int(dec.Int32())
	dec.Skip(3) // filler
	r.b = sizeBuffer(r.b, size)
	dec.Bytes(r.b)
	return dec.Error()
}
