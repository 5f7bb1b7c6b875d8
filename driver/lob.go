// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"io"

	"golang.org/x/text/transform"

	"github.com/helixdb/go-helix/driver/internal/protocol"
	"github.com/helixdb/go-helix/driver/unicode/cesu8"
)

// number of bytes (binary lobs) or characters (character lobs) requested
// per read lob round trip.
const lobChunkSize = 8192

/*
A Lob is a large object. For writing, wrap the content into a Lob via
NewLob and pass it as statement argument; the content is read completely
on execute. For reading, scan a lob column into a Lob and consume the
content via Reader: chunks are fetched from the server on demand.
*/
type Lob struct {
	rd io.Reader
}

// NewLob creates a Lob for writing with rd providing the content.
func NewLob(rd io.Reader) *Lob { return &Lob{rd: rd} }

// Reader returns the reader of the lob content.
func (l *Lob) Reader() io.Reader { return l.rd }

func newReadLob(conn *Conn, ctx context.Context, descr *protocol.LobDescr) *Lob {
	return &Lob{rd: newLobReader(conn, ctx, descr)}
}

// lobReader streams a lob value. The descriptor carries the first chunk,
// the remainder is read via read lob requests. The request offset counts
// bytes for binary lobs and characters for character based lobs.
type lobReader struct {
	conn  *Conn
	ctx   context.Context
	descr *protocol.LobDescr

	buf  []byte
	ofs  int64
	last bool
	err  error
}

func newLobReader(conn *Conn, ctx context.Context, descr *protocol.LobDescr) *lobReader {
	r := &lobReader{conn: conn, ctx: ctx, descr: descr, last: descr.IsLastData()}
	r.buf, r.err = r.chunk(descr.Chunk())
	return r
}

// chunk converts a wire chunk into content bytes and advances the request
// offset.
func (r *lobReader) chunk(b []byte) ([]byte, error) {
	if !r.descr.IsCharBased() {
		r.ofs += int64(len(b))
		return b, nil
	}
	r.ofs += int64(cesu8CharCount(b))
	utf8, _, err := transform.Bytes(cesu8.NewDecoder(cesu8.ReplaceErrorHandler), b)
	if err != nil {
		return nil, err
	}
	return utf8, nil
}

func (r *lobReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	for len(r.buf) == 0 {
		if r.last {
			return 0, io.EOF
		}
		b, last, err := r.conn.session.ReadLob(r.ctx, r.descr, r.ofs, lobChunkSize)
		if err != nil {
			r.err = classifyError(err)
			return 0, r.err
		}
		r.last = last
		if r.buf, err = r.chunk(b); err != nil {
			r.err = err
			return 0, r.err
		}
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// cesu8CharCount returns the number of characters of a CESU-8 encoded
// chunk. Characters outside the basic multilingual plane (6 byte CESU-8
// surrogate pairs) count as two characters.
func cesu8CharCount(b []byte) int {
	cnt := 0
	for i := 0; i < len(b); {
		_, size := cesu8.DecodeRune(b[i:])
		if size == cesu8.CESUMax {
			cnt += 2
		} else {
			cnt++
		}
		i += size
	}
	return cnt
}
