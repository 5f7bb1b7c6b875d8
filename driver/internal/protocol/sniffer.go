// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"io"
	"net"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

/*
Sniffer is a man in the middle proxy between a client and a database
server. It forwards the byte stream unaltered in both directions and
traces the messages it understands via the protocol trace.
*/
type Sniffer struct {
	conn   net.Conn
	dbConn net.Conn

	upRd   *Reader
	downRd *Reader
}

// NewSniffer creates a sniffer proxying the client connection conn to the
// database connection dbConn.
func NewSniffer(conn net.Conn, dbConn net.Conn) *Sniffer {
	s := &Sniffer{conn: conn, dbConn: dbConn}

	// tee the streams: what is parsed is forwarded unaltered
	upRd := bufio.NewReader(io.TeeReader(conn, dbConn))
	downRd := bufio.NewReader(io.TeeReader(dbConn, conn))

	s.upRd = NewSnifferReader(true, encoding.NewDecoder(upRd, cesu8DecoderFn))
	s.downRd = NewSnifferReader(false, encoding.NewDecoder(downRd, cesu8DecoderFn))
	return s
}

// newSnifferPart returns a fresh part instance for the parts the sniffer
// decodes standalone. Parts which need statement metadata (resultsets,
// parameters) are skipped.
func newSnifferPart(kind PartKind) partReader {
	switch kind {
	case PkError:
		return &ServerErrors{}
	case PkCommand:
		return new(command)
	case PkStatementID:
		return new(statementID)
	case PkRowsAffected:
		return new(rowsAffected)
	case PkResultsetID:
		return new(resultsetID)
	case PkTopologyInfo:
		return new(topologyInformation)
	case PkReadLobRequest:
		return &readLobRequest{}
	case PkReadLobReply:
		return &readLobReply{}
	case PkConnectOptions:
		return new(ConnectOptions)
	case PkTransactionFlags:
		return new(transactionFlags)
	case PkFetchSize:
		return new(fetchsize)
	case PkClientID:
		return new(clientID)
	case PkClientInfo:
		return new(clientInfo)
	case PkXatID:
		return new(xatIDs)
	default:
		return nil
	}
}

func (s *Sniffer) streamParts(rd *Reader) error {
	return rd.IterateParts(func(ph *partHeader) {
		if part := newSnifferPart(ph.partKind); part != nil {
			rd.Read(part)
		}
	})
}

// Run starts the proxy. It returns when either side closes its connection
// or a stream cannot be parsed.
func (s *Sniffer) Run() error {
	defer s.conn.Close()
	defer s.dbConn.Close()

	errCh := make(chan error, 2)

	go func() {
		if err := s.upRd.ReadPrologRequest(); err != nil {
			errCh <- err
			return
		}
		for {
			if err := s.streamParts(s.upRd); err != nil && !isServerError(err) {
				errCh <- err
				return
			}
		}
	}()

	go func() {
		if err := s.downRd.ReadProlog(); err != nil {
			errCh <- err
			return
		}
		for {
			if err := s.streamParts(s.downRd); err != nil && !isServerError(err) {
				errCh <- err
				return
			}
		}
	}()

	return <-errCh
}
