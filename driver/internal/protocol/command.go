// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
	"github.com/helixdb/go-helix/driver/unicode/cesu8"
)

// cesu8 encoded sql statement
type command []byte

func (c command) String() string { return string(c) }
func (c command) size() int      { return cesu8.Size(c) }
func (c *command) decode(dec *encoding.Decoder, ph *partHeader) error {
	b, err := dec.CESU8Bytes(int(ph.bufferLength))
	if err != nil {
		return err
	}
	*c = b
	return dec.Error()
}
func (c command) encode(enc *encoding.Encoder) error { enc.CESU8Bytes(c); return nil }
