// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// ErrMalformedReply is returned (wrapped) if a server reply violates the
// wire format. The connection is not usable afterwards.
var ErrMalformedReply = errors.New("malformed reply")

var (
	protTrace  atomic.Bool
	protLogger = log.New(os.Stderr, "helix.protocol ", log.Ldate|log.Ltime)
)

// SetTrace enables / disables protocol message tracing.
func SetTrace(on bool) { protTrace.Store(on) }

const (
	traceUpstreamPrefix   = "→"
	traceDownstreamPrefix = "←"
)

func trace(upstream bool, v any) {
	if !protTrace.Load() {
		return
	}
	prefix := traceDownstreamPrefix
	if upstream {
		prefix = traceUpstreamPrefix
	}
	protLogger.Printf("%s %s", prefix, v)
}

// Reader is a protocol message reader.
type Reader struct {
	upstream bool // sniffer: set if reading client requests

	dec *encoding.Decoder

	sh segmentHeader
	ph partHeader

	cntPart  int
	partRead bool

	err error // sticky reader error

	lastErrors       *ServerErrors
	lastRowsAffected rowsAffected
}

// NewReader creates a reader for server replies.
func NewReader(dec *encoding.Decoder) *Reader {
	return &Reader{dec: dec}
}

// NewSnifferReader creates a reader for sniffing either direction.
func NewSnifferReader(upstream bool, dec *encoding.Decoder) *Reader {
	return &Reader{upstream: upstream, dec: dec}
}

// SessionID returns the session id of the last message read.
func (r *Reader) SessionID() int64 { return r.sh.sessionID }

// FunctionCode returns the function code of the last message read.
func (r *Reader) FunctionCode() FunctionCode { return r.sh.functionCode }

// MessageType returns the message type of the last message read.
func (r *Reader) MessageType() MessageType { return r.sh.messageType }

// ReadProlog reads the init reply.
func (r *Reader) ReadProlog() error {
	rep := &initReply{}
	if err := rep.decode(r.dec); err != nil {
		return fmt.Errorf("init reply: %s: %w", err, ErrMalformedReply)
	}
	trace(r.upstream, rep)
	return nil
}

// ReadPrologRequest reads the init request (sniffer only).
func (r *Reader) ReadPrologRequest() error {
	req := &initRequest{}
	if err := req.decode(r.dec); err != nil {
		return err
	}
	trace(r.upstream, req)
	return nil
}

// SkipParts reads a message skipping all parts.
func (r *Reader) SkipParts() error { return r.IterateParts(nil) }

/*
IterateParts reads a message. partFn is called for each part header. The
callback reads the parts it is interested in via Read, all other parts are
skipped. After the last part the server error state is evaluated.
*/
func (r *Reader) IterateParts(partFn func(ph *partHeader)) error {
	if err := r.readSegment(); err != nil {
		return err
	}
	numPart := int(r.sh.noOfParts)
	for r.cntPart = 0; r.cntPart < numPart; r.cntPart++ {
		if err := r.ph.decode(r.dec); err != nil {
			return fmt.Errorf("part header: %s: %w", err, ErrMalformedReply)
		}
		trace(r.upstream, &r.ph)

		r.partRead = false
		if r.ph.partKind == PkError { // always read the error part
			r.Read(&ServerErrors{})
		} else if partFn != nil {
			partFn(&r.ph)
		}
		if !r.partRead {
			r.skip()
		}
		if r.err != nil {
			return r.err
		}
	}
	return r.checkError()
}

func (r *Reader) readSegment() error {
	r.lastErrors = nil
	r.lastRowsAffected = nil
	r.err = nil

	if err := r.sh.decode(r.dec); err != nil {
		return fmt.Errorf("segment header: %s: %w", err, ErrMalformedReply)
	}
	trace(r.upstream, &r.sh)
	if r.sh.segmentKind == skInvalid {
		return fmt.Errorf("invalid segment kind: %w", ErrMalformedReply)
	}
	return nil
}

// Read decodes the current part. To be called from within an IterateParts
// part function only.
func (r *Reader) Read(part partReader) {
	r.partRead = true

	err := r.readPart(part)
	if err != nil {
		r.err = err
	}
	trace(r.upstream, part)

	switch part := part.(type) {
	case *ServerErrors:
		r.lastErrors = part
	case *rowsAffected:
		r.lastRowsAffected = *part
	}
}

func (r *Reader) readPart(part partReader) error {
	r.dec.ResetCnt()
	if err := part.decode(r.dec, &r.ph); err != nil {
		return err // do not ignore partReader errors
	}
	cnt := r.dec.Cnt()
	bufferLen := int(r.ph.bufferLength)

	switch {
	case cnt < bufferLen: // protocol buffer length > read bytes -> skip the unread bytes
		r.dec.Skip(bufferLen - cnt)
	case cnt > bufferLen: // read bytes > protocol buffer length -> should never happen
		return fmt.Errorf("part %s: read %d bytes - buffer size %d: %w", r.ph.partKind, cnt, bufferLen, ErrMalformedReply)
	}
	r.skipPadding()
	return r.dec.Error()
}

func (r *Reader) skip() {
	r.dec.Skip(int(r.ph.bufferLength))
	r.skipPadding()
	if err := r.dec.Error(); err != nil {
		r.dec.ResetError()
		r.err = fmt.Errorf("skip part %s: %s: %w", r.ph.partKind, err, ErrMalformedReply)
	}
}

// each part is padded to an eight byte boundary.
func (r *Reader) skipPadding() {
	if pad := padBytes(int(r.ph.bufferLength)); pad != 0 {
		r.dec.Skip(pad)
	}
}

func (r *Reader) checkError() error {
	defer func() { // reset error / rows affected
		r.lastErrors = nil
		r.lastRowsAffected = nil
	}()

	if r.err != nil {
		return r.err
	}

	if err := r.dec.Error(); err != nil {
		r.dec.ResetError()
		return fmt.Errorf("%s: %w", err, ErrMalformedReply)
	}

	if r.lastErrors == nil {
		return nil
	}

	if r.lastErrors.isWarnings() {
		for _, err := range r.lastErrors.errs {
			trace(r.upstream, err)
		}
		return nil
	}

	if r.lastRowsAffected != nil { // link statement numbers to batch errors
		j := 0
		for i, rows := range r.lastRowsAffected {
			if rows == raExecutionFailed {
				r.lastErrors.setStmtNo(j, i)
				j++
			}
		}
	}
	return r.lastErrors
}

// Writer is a protocol message writer.
type Writer struct {
	wr  *bufio.Writer
	enc *encoding.Encoder

	sh segmentHeader
	ph partHeader

	clientInfo     clientInfo
	clientInfoSent bool
}

// NewWriter creates a message writer. The client info is sent once, with
// the first message supporting it.
func NewWriter(wr *bufio.Writer, enc *encoding.Encoder, ci map[string]string) *Writer {
	return &Writer{wr: wr, enc: enc, clientInfo: ci}
}

// WriteProlog writes the init request.
func (w *Writer) WriteProlog(product, protocol version) error {
	req := &initRequest{product: product, protocol: protocol, numOpt: 1, endian: littleEndian}
	trace(true, req)
	if err := req.encode(w.enc); err != nil {
		return err
	}
	if err := w.enc.Error(); err != nil {
		w.enc.ResetError()
		return err
	}
	return w.wr.Flush()
}

// Write writes a request message.
func (w *Writer) Write(sessionID int64, packetCount int32, messageType MessageType, commit bool, parts ...partWriter) error {
	if !w.clientInfoSent && messageType.ClientInfoSupported() && len(w.clientInfo) != 0 {
		parts = append([]partWriter{w.clientInfo}, parts...)
		w.clientInfoSent = true
	}

	numPart := len(parts)
	partSizes := make([]int, numPart)
	varPartLength := 0
	for i, part := range parts {
		size := part.size()
		partSizes[i] = size
		varPartLength += partHeaderSize + size + padBytes(size)
	}

	w.sh.sessionID = sessionID
	w.sh.packetCount = packetCount
	w.sh.varPartLength = uint32(varPartLength)
	w.sh.segmentKind = skRequest
	w.sh.messageType = messageType
	w.sh.functionCode = FcNil
	w.sh.commit = commit
	w.sh.noOfParts = int16(numPart)
	trace(true, &w.sh)
	if err := w.sh.encode(w.enc); err != nil {
		return err
	}

	for i, part := range parts {
		size := partSizes[i]
		w.ph.partKind = part.kind()
		w.ph.partAttributes = 0
		if err := w.ph.setNumArg(part.numArg()); err != nil {
			return err
		}
		w.ph.bufferLength = int32(size)
		w.ph.bufferSize = int32(size + padBytes(size))
		trace(true, &w.ph)
		if err := w.ph.encode(w.enc); err != nil {
			return err
		}
		if err := part.encode(w.enc); err != nil {
			return err
		}
		trace(true, part)
		w.enc.Zeroes(padBytes(size))
	}

	if err := w.enc.Error(); err != nil {
		w.enc.ResetError()
		return err
	}
	return w.wr.Flush()
}
