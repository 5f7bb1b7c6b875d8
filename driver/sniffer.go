// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"net"

	"github.com/helixdb/go-helix/driver/internal/protocol"
)

// A Sniffer is a man in the middle proxy between a client and a database
// server tracing the messages exchanged.
type Sniffer struct {
	s *protocol.Sniffer
}

// NewSniffer creates a sniffer proxying the client connection conn to the
// database connection dbConn.
func NewSniffer(conn net.Conn, dbConn net.Conn) *Sniffer {
	return &Sniffer{s: protocol.NewSniffer(conn, dbConn)}
}

// Run starts the proxy. It returns when either side closes its connection
// or a stream cannot be parsed.
func (s *Sniffer) Run() error { return s.s.Run() }
