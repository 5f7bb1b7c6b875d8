// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"os"
	"strconv"
	"strings"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

type clientID []byte

func newClientID() clientID {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	// format: <pid>@<hostname>
	return clientID(strings.Join([]string{strconv.Itoa(os.Getpid()), hostname}, "@"))
}

func (id clientID) String() string { return string(id) }
func (id clientID) size() int      { return len(id) }
func (id *clientID) decode(dec *encoding.Decoder, ph *partHeader) error {
	*id = sizeBuffer(*id, int(ph.bufferLength))
	dec.Bytes(*id)
	return dec.Error()
}
func (id clientID) encode(enc *encoding.Encoder) error { enc.Bytes(id); return nil }
