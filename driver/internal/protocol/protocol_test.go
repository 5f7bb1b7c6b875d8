// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// rawPart is a pre-encoded reply part used by test servers.
type rawPart struct {
	kind    PartKind
	attrs   partAttributes
	numArg  int
	payload []byte
}

// encodePayload and writeReply report failures via t.Error as they are
// called from test server goroutines as well.
func encodePayload(t *testing.T, fn func(enc *encoding.Encoder)) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	fn(enc)
	if err := enc.Error(); err != nil {
		t.Errorf("encode payload: %v", err)
	}
	return buf.Bytes()
}

// writeReply writes a server reply message.
func writeReply(t *testing.T, wr io.Writer, sk segmentKind, sessionID int64, fc FunctionCode, parts ...rawPart) {
	t.Helper()
	enc := encoding.NewEncoder(wr, cesu8EncoderFn)

	varPartLength := 0
	for _, part := range parts {
		varPartLength += partHeaderSize + len(part.payload) + padBytes(len(part.payload))
	}

	sh := &segmentHeader{
		sessionID:     sessionID,
		varPartLength: uint32(varPartLength),
		segmentKind:   sk,
		messageType:   MtNil,
		functionCode:  fc,
		noOfParts:     int16(len(parts)),
	}
	if err := sh.encode(enc); err != nil {
		t.Errorf("write reply: %v", err)
		return
	}

	for _, part := range parts {
		size := len(part.payload)
		ph := &partHeader{
			partKind:       part.kind,
			partAttributes: part.attrs,
			argumentCount:  int16(part.numArg),
			bufferLength:   int32(size),
			bufferSize:     int32(size + padBytes(size)),
		}
		if err := ph.encode(enc); err != nil {
			t.Errorf("write reply: %v", err)
			return
		}
		enc.Bytes(part.payload)
		enc.Zeroes(padBytes(size))
	}
	if err := enc.Error(); err != nil {
		t.Errorf("write reply: %v", err)
	}
}

func errorPart(t *testing.T, level ErrorLevel, code int32, text string) rawPart {
	t.Helper()
	payload := encodePayload(t, func(enc *encoding.Encoder) {
		enc.Int32(code)             // error code
		enc.Int32(0)                // error position
		enc.Int32(int32(len(text))) // error text length
		enc.Int8(int8(level))       // error level
		enc.Bytes([]byte("HY000"))  // sql state
		enc.Bytes([]byte(text))     // error text (single error: not padded)
	})
	return rawPart{kind: PkError, numArg: 1, payload: payload}
}

func TestMessageRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	wr := NewWriter(bufio.NewWriter(buf), enc, nil)

	const stmt = "select 42 from dummy"
	cmd := command(stmt)
	if err := wr.Write(42, 7, MtExecuteDirect, true, cmd, fetchsize(128)); err != nil {
		t.Fatal(err)
	}

	rd := NewSnifferReader(true, encoding.NewDecoder(buf, cesu8DecoderFn))

	var readCmd command
	kinds := []PartKind{}
	if err := rd.IterateParts(func(ph *partHeader) {
		kinds = append(kinds, ph.partKind)
		if ph.partKind == PkCommand {
			rd.Read(&readCmd)
		}
	}); err != nil {
		t.Fatal(err)
	}

	if rd.SessionID() != 42 {
		t.Fatalf("session id %d - expected 42", rd.SessionID())
	}
	if rd.MessageType() != MtExecuteDirect {
		t.Fatalf("message type %s - expected %s", rd.MessageType(), MtExecuteDirect)
	}
	if len(kinds) != 2 || kinds[0] != PkCommand || kinds[1] != PkFetchSize {
		t.Fatalf("part kinds %v - expected [%s %s]", kinds, PkCommand, PkFetchSize)
	}
	if string(readCmd) != stmt {
		t.Fatalf("command %s - expected %s", readCmd, stmt)
	}
	if buf.Len() != 0 {
		t.Fatalf("%d unread bytes after message", buf.Len())
	}
}

func TestMessagePadding(t *testing.T) {
	// command sizes around the eight byte alignment
	for size := 1; size <= padding+1; size++ {
		buf := &bytes.Buffer{}
		enc := encoding.NewEncoder(buf, cesu8EncoderFn)
		wr := NewWriter(bufio.NewWriter(buf), enc, nil)

		cmd := command(bytes.Repeat([]byte{'x'}, size))
		if err := wr.Write(1, 1, MtExecuteDirect, false, cmd); err != nil {
			t.Fatal(err)
		}

		expected := segmentHeaderSize + partHeaderSize + size + padBytes(size)
		if buf.Len() != expected {
			t.Fatalf("size %d: message length %d - expected %d", size, buf.Len(), expected)
		}

		rd := NewSnifferReader(true, encoding.NewDecoder(buf, cesu8DecoderFn))
		if err := rd.SkipParts(); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != 0 {
			t.Fatalf("size %d: %d unread bytes after message", size, buf.Len())
		}
	}
}

func TestClientInfoSentOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	wr := NewWriter(bufio.NewWriter(buf), enc, map[string]string{"APPLICATION": "test"})

	countClientInfo := func() int {
		rd := NewSnifferReader(true, encoding.NewDecoder(buf, cesu8DecoderFn))
		cnt := 0
		if err := rd.IterateParts(func(ph *partHeader) {
			if ph.partKind == PkClientInfo {
				cnt++
			}
		}); err != nil {
			t.Fatal(err)
		}
		return cnt
	}

	if err := wr.Write(1, 1, MtExecuteDirect, false, command("select 1 from dummy")); err != nil {
		t.Fatal(err)
	}
	if cnt := countClientInfo(); cnt != 1 {
		t.Fatalf("client info parts %d - expected 1", cnt)
	}

	if err := wr.Write(1, 2, MtExecuteDirect, false, command("select 2 from dummy")); err != nil {
		t.Fatal(err)
	}
	if cnt := countClientInfo(); cnt != 0 {
		t.Fatalf("client info parts %d - expected 0", cnt)
	}
}

func TestReadReply(t *testing.T) {
	buf := &bytes.Buffer{}
	writeReply(t, buf, skReply, 42, FcDDL,
		rawPart{kind: PkTransactionFlags, numArg: 1, payload: encodePayload(t, func(enc *encoding.Encoder) {
			enc.Int8(int8(tfCommited))
			enc.Int8(int8(tcBoolean))
			enc.Bool(true)
		})},
	)

	rd := NewReader(encoding.NewDecoder(buf, cesu8DecoderFn))
	tf := transactionFlags{}
	if err := rd.IterateParts(func(ph *partHeader) {
		if ph.partKind == PkTransactionFlags {
			rd.Read(&tf)
		}
	}); err != nil {
		t.Fatal(err)
	}

	if rd.FunctionCode() != FcDDL {
		t.Fatalf("function code %s - expected %s", rd.FunctionCode(), FcDDL)
	}
	if !tf.committed() {
		t.Fatal("committed transaction flag expected")
	}
}

func TestTruncatedReply(t *testing.T) {
	buf := &bytes.Buffer{}
	writeReply(t, buf, skReply, 42, FcSelect,
		rawPart{kind: PkResultsetID, numArg: 1, payload: encodePayload(t, func(enc *encoding.Encoder) {
			enc.Uint64(4711)
		})},
	)
	full := buf.Bytes()

	// drop trailing bytes one by one - each truncation must yield a malformed reply error
	for size := len(full) - 1; size >= 0; size -= 7 {
		rd := NewReader(encoding.NewDecoder(bytes.NewReader(full[:size]), cesu8DecoderFn))
		err := rd.SkipParts()
		if !errors.Is(err, ErrMalformedReply) {
			t.Fatalf("truncated at %d: %v - malformed reply error expected", size, err)
		}
	}
}

func TestInvalidSegmentKind(t *testing.T) {
	buf := &bytes.Buffer{}
	writeReply(t, buf, skInvalid, 1, FcNil)

	rd := NewReader(encoding.NewDecoder(buf, cesu8DecoderFn))
	if err := rd.SkipParts(); !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("%v - malformed reply error expected", err)
	}
}

func TestPartSizeExceedsBuffer(t *testing.T) {
	// part header announces a buffer smaller than the actual part content
	buf := &bytes.Buffer{}
	payload := encodePayload(t, func(enc *encoding.Encoder) { enc.Uint64(4711) })
	writeReply(t, buf, skReply, 1, FcSelect,
		rawPart{kind: PkResultsetID, numArg: 1, payload: payload},
	)

	// patch bufferLength within the encoded part header
	b := buf.Bytes()
	phOfs := segmentHeaderSize
	b[phOfs+8] = 4 // bufferLength int32 little endian at offset 8
	b[phOfs+9] = 0
	b[phOfs+10] = 0
	b[phOfs+11] = 0

	rd := NewReader(encoding.NewDecoder(bytes.NewReader(b), cesu8DecoderFn))
	var id resultsetID
	err := rd.IterateParts(func(ph *partHeader) {
		if ph.partKind == PkResultsetID {
			rd.Read(&id)
		}
	})
	if !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("%v - malformed reply error expected", err)
	}
}

func TestServerErrorReply(t *testing.T) {
	buf := &bytes.Buffer{}
	writeReply(t, buf, skError, 42, FcNil,
		errorPart(t, ErrError, 258, "insufficient privilege"),
	)

	// error parts are read by the reader itself
	rd := NewReader(encoding.NewDecoder(buf, cesu8DecoderFn))
	err := rd.SkipParts()
	if err == nil {
		t.Fatal("server error expected")
	}
	var serverError *ServerError
	if !errors.As(err, &serverError) {
		t.Fatalf("%v - server error expected", err)
	}
	if serverError.Code() != 258 {
		t.Fatalf("error code %d - expected 258", serverError.Code())
	}
	if serverError.Text() != "insufficient privilege" {
		t.Fatalf("error text %s", serverError.Text())
	}
	if serverError.SQLState() != "HY000" {
		t.Fatalf("sql state %s - expected HY000", serverError.SQLState())
	}
}

func TestServerWarningsSwallowed(t *testing.T) {
	buf := &bytes.Buffer{}
	writeReply(t, buf, skReply, 42, FcDDL,
		errorPart(t, ErrWarning, 1347, "not recommended feature"),
	)

	rd := NewReader(encoding.NewDecoder(buf, cesu8DecoderFn))
	if err := rd.SkipParts(); err != nil {
		t.Fatalf("warnings must not be returned as error - got %v", err)
	}
}

func TestMultiErrorDecode(t *testing.T) {
	// batch execution error part with two errors and a rows affected part
	// linking the failing statement numbers
	texts := []string{"first error", "second and longer error text"}

	payload := encodePayload(t, func(enc *encoding.Encoder) {
		for _, text := range texts {
			enc.Int32(301)
			enc.Int32(0)
			enc.Int32(int32(len(text)))
			enc.Int8(int8(ErrError))
			enc.Bytes([]byte("23000"))
			enc.Bytes([]byte(text))
			enc.Zeroes(padBytes(fixLength + len(text)))
		}
	})

	buf := &bytes.Buffer{}
	writeReply(t, buf, skReply, 42, FcInsert,
		rawPart{kind: PkRowsAffected, numArg: 4, payload: encodePayload(t, func(enc *encoding.Encoder) {
			enc.Int32(1)
			enc.Int32(raExecutionFailed)
			enc.Int32(1)
			enc.Int32(raExecutionFailed)
		})},
		rawPart{kind: PkError, numArg: 2, payload: payload},
	)

	rd := NewReader(encoding.NewDecoder(buf, cesu8DecoderFn))
	rows := rowsAffected{}
	err := rd.IterateParts(func(ph *partHeader) {
		if ph.partKind == PkRowsAffected {
			rd.Read(&rows)
		}
	})
	if err == nil {
		t.Fatal("server errors expected")
	}
	var serverErrors *ServerErrors
	if !errors.As(err, &serverErrors) {
		t.Fatalf("%v - server errors expected", err)
	}

	errs := serverErrors.Errors()
	if len(errs) != 2 {
		t.Fatalf("number of errors %d - expected 2", len(errs))
	}
	for i, text := range texts {
		if errs[i].Text() != text {
			t.Fatalf("error %d text %s - expected %s", i, errs[i].Text(), text)
		}
	}
	// failing statements are no 1 and 3
	if errs[0].StmtNo() != 1 || errs[1].StmtNo() != 3 {
		t.Fatalf("statement numbers %d %d - expected 1 3", errs[0].StmtNo(), errs[1].StmtNo())
	}
}
