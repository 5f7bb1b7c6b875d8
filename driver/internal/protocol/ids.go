// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// statement id
type statementID uint64

func (id statementID) String() string { return fmt.Sprintf("%d", id) }
func (id *statementID) decode(dec *encoding.Decoder, ph *partHeader) error {
	*id = statementID(dec.Uint64())
	return dec.Error()
}
func (id statementID) encode(enc *encoding.Encoder) error { enc.Uint64(uint64(id)); return nil }

// resultset id
type resultsetID uint64

func (id resultsetID) String() string { return fmt.Sprintf("%d", id) }
func (id *resultsetID) decode(dec *encoding.Decoder, ph *partHeader) error {
	*id = resultsetID(dec.Uint64())
	return dec.Error()
}
func (id resultsetID) encode(enc *encoding.Encoder) error { enc.Uint64(uint64(id)); return nil }
