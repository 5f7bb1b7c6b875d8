// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// Maximum size of the global transaction id and the branch qualifier of
// a distributed transaction id.
const maxXatFieldSize = 64

// XatID is the id of a distributed (two phase commit) transaction.
type XatID struct {
	FormatID            int64
	GlobalTransactionID []byte
	BranchQualifier     []byte
}

func (id *XatID) String() string {
	return fmt.Sprintf("format %d gtrid %x bqual %x", id.FormatID, id.GlobalTransactionID, id.BranchQualifier)
}

func (id *XatID) valid() error {
	if len(id.GlobalTransactionID) > maxXatFieldSize {
		return fmt.Errorf("invalid global transaction id length %d", len(id.GlobalTransactionID))
	}
	if len(id.BranchQualifier) > maxXatFieldSize {
		return fmt.Errorf("invalid branch qualifier length %d", len(id.BranchQualifier))
	}
	return nil
}

func (id *XatID) wireSize() int {
	return 16 + len(id.GlobalTransactionID) + len(id.BranchQualifier) // formatID int64 + two length fields int32
}

func (id *XatID) encodeWire(enc *encoding.Encoder) {
	enc.Int64(id.FormatID)
	enc.Int32(int32(len(id.GlobalTransactionID)))
	enc.Int32(int32(len(id.BranchQualifier)))
	enc.Bytes(id.GlobalTransactionID)
	enc.Bytes(id.BranchQualifier)
}

func (id *XatID) decodeWire(dec *encoding.Decoder) {
	id.FormatID = dec.Int64()
	gtridLen := int(dec.Int32())
	bqualLen := int(dec.Int32())
	id.GlobalTransactionID = make([]byte, gtridLen)
	id.BranchQualifier = make([]byte, bqualLen)
	dec.Bytes(id.GlobalTransactionID)
	dec.Bytes(id.BranchQualifier)
}

// xatID is the transaction id part of a distributed transaction request.
type xatID struct {
	id *XatID
}

func (x *xatID) String() string { return x.id.String() }
func (x *xatID) size() int      { return x.id.wireSize() }
func (x *xatID) encode(enc *encoding.Encoder) error {
	if err := x.id.valid(); err != nil {
		return err
	}
	x.id.encodeWire(enc)
	return nil
}

// xatIDs is the transaction id list part of a recover reply. It holds the
// ids of the transactions prepared but neither committed nor rolled back.
type xatIDs []*XatID

func (x xatIDs) String() string { return fmt.Sprintf("%v", []*XatID(x)) }

func (x *xatIDs) decode(dec *encoding.Decoder, ph *partHeader) error {
	numArg := ph.numArg()
	*x = resizeSlice(*x, numArg)

	for i := 0; i < numArg; i++ {
		id := &XatID{}
		id.decodeWire(dec)
		(*x)[i] = id

		if i < numArg-1 {
			if pad := padBytes(id.wireSize()); pad != 0 {
				dec.Skip(pad)
			}
		}
	}
	return dec.Error()
}
