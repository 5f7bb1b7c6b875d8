// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

const (
	testUsername  = "kilroy"
	testPassword  = "secret"
	testSessionID = 4711
)

/*
testServer scripts the server side of a session on a net.Pipe connection.
The script runs in a separate goroutine, so all failures are reported via
t.Error.
*/
type testServer struct {
	t       *testing.T
	conn    net.Conn
	dec     *encoding.Decoder
	enc     *encoding.Encoder
	authSrv *authServer
	cnt     map[MessageType]int
}

func newTestServer(t *testing.T) (*testServer, net.Conn) {
	c1, c2 := net.Pipe()
	srv := &testServer{
		t:       t,
		conn:    c1,
		dec:     encoding.NewDecoder(c1, cesu8DecoderFn),
		enc:     encoding.NewEncoder(c1, cesu8EncoderFn),
		authSrv: newAuthServer(t, testUsername, testPassword, 0),
		cnt:     map[MessageType]int{},
	}
	return srv, c2
}

// start runs the handshake and the test script fn in a server goroutine.
func (srv *testServer) start(fn func(srv *testServer)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer srv.conn.Close()
		if !srv.handshake() {
			return
		}
		if fn != nil {
			fn(srv)
		}
	}()
	return done
}

type srvPart struct {
	kind    PartKind
	attrs   partAttributes
	numArg  int
	payload []byte
}

func findPart(parts []srvPart, kind PartKind) ([]byte, bool) {
	for _, part := range parts {
		if part.kind == kind {
			return part.payload, true
		}
	}
	return nil, false
}

func payloadDecoder(payload []byte) *encoding.Decoder {
	return encoding.NewDecoder(bytes.NewReader(payload), cesu8DecoderFn)
}

// readRequest reads one request message. ok is false if the connection is
// closed before a segment header arrives.
func (srv *testServer) readRequest() (*segmentHeader, []srvPart, bool) {
	sh := &segmentHeader{}
	if err := sh.decode(srv.dec); err != nil {
		return nil, nil, false
	}
	srv.cnt[sh.messageType]++

	parts := make([]srvPart, sh.noOfParts)
	for i := range parts {
		ph := &partHeader{}
		if err := ph.decode(srv.dec); err != nil {
			srv.t.Errorf("part header: %v", err)
			return nil, nil, false
		}
		b := make([]byte, ph.bufferLength)
		srv.dec.Bytes(b)
		srv.dec.Skip(padBytes(len(b)))
		if err := srv.dec.Error(); err != nil {
			srv.t.Errorf("part payload: %v", err)
			return nil, nil, false
		}
		parts[i] = srvPart{kind: ph.partKind, attrs: ph.partAttributes, numArg: int(ph.argumentCount), payload: b}
	}
	return sh, parts, true
}

// expect reads one request message and checks its message type.
func (srv *testServer) expect(mt MessageType) (*segmentHeader, []srvPart, bool) {
	sh, parts, ok := srv.readRequest()
	if !ok {
		srv.t.Errorf("connection closed - expected %s request", mt)
		return nil, nil, false
	}
	if sh.messageType != mt {
		srv.t.Errorf("message type %s - expected %s", sh.messageType, mt)
		return nil, nil, false
	}
	return sh, parts, true
}

// handshake processes prolog, authenticate and connect. It rejects the
// client if the proof does not verify against the server password.
func (srv *testServer) handshake() bool {
	req := &initRequest{}
	if err := req.decode(srv.dec); err != nil {
		srv.t.Errorf("init request: %v", err)
		return false
	}
	rep := &initReply{product: version{major: 2, minor: 0}, protocol: version{major: 4, minor: 1}}
	rep.encode(srv.enc)
	if err := srv.enc.Error(); err != nil {
		srv.t.Errorf("init reply: %v", err)
		return false
	}

	// authenticate
	_, parts, ok := srv.expect(MtAuthenticate)
	if !ok {
		return false
	}
	payload, ok := findPart(parts, PkAuthentication)
	if !ok {
		srv.t.Error("missing authentication part")
		return false
	}
	clntChallenge := srv.authSrv.initReq(bytes.NewBuffer(payload))
	if clntChallenge == nil {
		return false
	}

	initRepBuf := &bytes.Buffer{}
	srv.authSrv.initRep(initRepBuf)
	writeReply(srv.t, srv.conn, skReply, 0, FcNil,
		rawPart{kind: PkAuthentication, numArg: 1, payload: initRepBuf.Bytes()},
	)

	// connect
	_, parts, ok = srv.expect(MtConnect)
	if !ok {
		return false
	}
	payload, ok = findPart(parts, PkAuthentication)
	if !ok {
		srv.t.Error("missing authentication part")
		return false
	}
	proof := srv.authSrv.finalReq(bytes.NewBuffer(payload))
	expected := clientProof(srv.authSrv.key(), srv.authSrv.salt, srv.authSrv.serverChallenge, clntChallenge)
	if !bytes.Equal(proof, expected) {
		writeReply(srv.t, srv.conn, skError, 0, FcNil,
			errorPart(srv.t, ErrFatalError, 10, "authentication failed"),
		)
		return false
	}
	if _, ok := findPart(parts, PkClientID); !ok {
		srv.t.Error("missing client id part")
	}

	finalRepBuf := &bytes.Buffer{}
	srv.authSrv.finalRep(finalRepBuf)
	serverOptions := ConnectOptions{
		CoDatabaseName:      "HLX",
		CoFullVersionString: "2.00.044.00",
		CoConnectionID:      int32(100042),
	}
	writeReply(srv.t, srv.conn, skReply, testSessionID, FcNil,
		rawPart{kind: PkAuthentication, numArg: 1, payload: finalRepBuf.Bytes()},
		rawPart{kind: PkConnectOptions, numArg: serverOptions.numArg(), payload: encodePayload(srv.t, func(enc *encoding.Encoder) {
			serverOptions.encode(enc)
		})},
	)
	return true
}

// serveDisconnect handles the final disconnect request.
func (srv *testServer) serveDisconnect() {
	if _, _, ok := srv.expect(MtDisconnect); !ok {
		return
	}
	writeReply(srv.t, srv.conn, skReply, testSessionID, FcNil)
}

func newTestSession(t *testing.T, fn func(srv *testServer)) (*Session, <-chan struct{}) {
	t.Helper()
	srv, conn := newTestServer(t)
	done := srv.start(fn)
	s, err := NewSession(context.Background(), conn, &SessionConfig{
		Username:  testUsername,
		Password:  testPassword,
		FetchSize: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s, done
}

func TestSessionConnect(t *testing.T) {
	s, done := newTestSession(t, func(srv *testServer) {
		srv.serveDisconnect()
	})

	if s.SessionID() != testSessionID {
		t.Fatalf("session id %d - expected %d", s.SessionID(), testSessionID)
	}
	if s.State() != SsReady {
		t.Fatalf("session state %s - expected %s", s.State(), SsReady)
	}
	if name, ok := s.ServerOptions().DatabaseName(); !ok || name != "HLX" {
		t.Fatalf("database name %s - expected HLX", name)
	}
	if id, ok := s.ServerOptions().ConnectionID(); !ok || id != 100042 {
		t.Fatalf("connection id %d - expected 100042", id)
	}

	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != SsClosed {
		t.Fatalf("session state %s - expected %s", s.State(), SsClosed)
	}
	<-done
}

func TestSessionAuthenticationFailed(t *testing.T) {
	srv, conn := newTestServer(t)
	done := srv.start(nil)

	_, err := NewSession(context.Background(), conn, &SessionConfig{
		Username: testUsername,
		Password: "wrong",
	})
	if err == nil {
		t.Fatal("authentication error expected")
	}
	var serverError *ServerError
	if !errors.As(err, &serverError) {
		t.Fatalf("%v - server error expected", err)
	}
	if serverError.Code() != 10 {
		t.Fatalf("error code %d - expected 10", serverError.Code())
	}
	if !serverError.IsFatal() {
		t.Fatal("fatal error expected")
	}
	<-done
}

// integer column metadata with all name offsets pointing to the single
// name block entry.
func intColumnMetadata(t *testing.T, name string) rawPart {
	payload := encodePayload(t, func(enc *encoding.Encoder) {
		enc.Int8(int8(coOptional))
		enc.Byte(byte(tcInteger))
		enc.Int16(0)  // fraction
		enc.Int16(10) // length
		enc.Zeroes(2) // filler
		enc.Uint32(0) // tablename offset
		enc.Uint32(0) // schemaname offset
		enc.Uint32(0) // columnname offset
		enc.Uint32(0) // column display name offset
		enc.Byte(byte(len(name)))
		enc.CESU8String(name)
	})
	return rawPart{kind: PkResultMetadata, numArg: 1, payload: payload}
}

func intRowChunk(t *testing.T, attrs partAttributes, from, n int) rawPart {
	payload := encodePayload(t, func(enc *encoding.Encoder) {
		for i := 0; i < n; i++ {
			enc.Bool(true) // not null
			enc.Int32(int32(from + i))
		}
	})
	return rawPart{kind: PkResultset, attrs: attrs, numArg: n, payload: payload}
}

func TestSessionQueryFetch(t *testing.T) {
	const numRow = 10000
	const chunkSize = 100
	const rsID = uint64(7777)

	s, done := newTestSession(t, func(srv *testServer) {
		_, parts, ok := srv.expect(MtExecuteDirect)
		if !ok {
			return
		}
		payload, ok := findPart(parts, PkCommand)
		if !ok {
			srv.t.Error("missing command part")
			return
		}
		cmd := command{}
		if err := cmd.decode(payloadDecoder(payload), &partHeader{bufferLength: int32(len(payload))}); err != nil {
			srv.t.Error(err)
			return
		}
		if string(cmd) != "select id from test" {
			srv.t.Errorf("command %s", cmd)
			return
		}

		writeReply(srv.t, srv.conn, skReply, testSessionID, FcSelect,
			intColumnMetadata(srv.t, "ID"),
			rawPart{kind: PkResultsetID, numArg: 1, payload: encodePayload(srv.t, func(enc *encoding.Encoder) { enc.Uint64(rsID) })},
			intRowChunk(srv.t, 0, 0, chunkSize),
		)

		for from := chunkSize; from < numRow; from += chunkSize {
			_, parts, ok := srv.expect(MtFetchNext)
			if !ok {
				return
			}
			payload, ok := findPart(parts, PkResultsetID)
			if !ok {
				srv.t.Error("missing resultset id part")
				return
			}
			if id := payloadDecoder(payload).Uint64(); id != rsID {
				srv.t.Errorf("resultset id %d - expected %d", id, rsID)
				return
			}
			payload, ok = findPart(parts, PkFetchSize)
			if !ok {
				srv.t.Error("missing fetch size part")
				return
			}
			if fs := payloadDecoder(payload).Int32(); fs != chunkSize {
				srv.t.Errorf("fetch size %d - expected %d", fs, chunkSize)
				return
			}

			attrs := partAttributes(0)
			if from+chunkSize >= numRow {
				attrs = paLastPacket
			}
			writeReply(srv.t, srv.conn, skReply, testSessionID, FcFetch,
				intRowChunk(srv.t, attrs, from, chunkSize),
			)
		}
		srv.serveDisconnect()
	})

	res, err := s.ExecDirect(context.Background(), "select id from test")
	if err != nil {
		t.Fatal(err)
	}
	if res.FunctionCode() != FcSelect {
		t.Fatalf("function code %s - expected %s", res.FunctionCode(), FcSelect)
	}
	rs := res.ResultSet()
	if rs == nil {
		t.Fatal("resultset expected")
	}
	if fields := rs.Fields(); len(fields) != 1 || fields[0].Name() != "ID" {
		t.Fatalf("fields %v - expected one field ID", fields)
	}

	numFetch := 0
	rows := 0
	next := int64(0)
	countChunk := func() {
		for _, row := range rs.Rows() {
			if v := row[0].(int64); v != next {
				t.Fatalf("row value %d - expected %d", v, next)
			}
			next++
			rows++
		}
	}
	countChunk()
	for !rs.LastChunk() {
		if err := s.FetchNext(context.Background(), rs); err != nil {
			t.Fatal(err)
		}
		numFetch++
		countChunk()
	}

	if rows != numRow {
		t.Fatalf("rows %d - expected %d", rows, numRow)
	}
	// the first chunk arrives with the execute reply
	if expected := numRow/chunkSize - 1; numFetch != expected {
		t.Fatalf("fetch round trips %d - expected %d", numFetch, expected)
	}

	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-done
}

func txFlagsPart(t *testing.T, flags ...transactionFlagType) rawPart {
	payload := encodePayload(t, func(enc *encoding.Encoder) {
		for _, flag := range flags {
			enc.Int8(int8(flag))
			enc.Int8(int8(tcBoolean))
			enc.Bool(true)
		}
	})
	return rawPart{kind: PkTransactionFlags, numArg: len(flags), payload: payload}
}

func rowsAffectedPart(t *testing.T, rows ...int32) rawPart {
	payload := encodePayload(t, func(enc *encoding.Encoder) {
		for _, r := range rows {
			enc.Int32(r)
		}
	})
	return rawPart{kind: PkRowsAffected, numArg: len(rows), payload: payload}
}

func TestSessionTransaction(t *testing.T) {
	s, done := newTestSession(t, func(srv *testServer) {
		// insert starts the write transaction - no auto commit
		sh, _, ok := srv.expect(MtExecuteDirect)
		if !ok {
			return
		}
		if sh.commit {
			srv.t.Error("commit flag set - expected unset")
		}
		writeReply(srv.t, srv.conn, skReply, testSessionID, FcInsert,
			rowsAffectedPart(srv.t, 1),
			txFlagsPart(srv.t, tfWriteTransactionStarted),
		)

		// repeated commit is idempotent
		for i := 0; i < 2; i++ {
			if _, _, ok := srv.expect(MtCommit); !ok {
				return
			}
			writeReply(srv.t, srv.conn, skReply, testSessionID, FcCommit,
				txFlagsPart(srv.t, tfCommited),
			)
		}
		// repeated rollback as well
		for i := 0; i < 2; i++ {
			if _, _, ok := srv.expect(MtRollback); !ok {
				return
			}
			writeReply(srv.t, srv.conn, skReply, testSessionID, FcRollback,
				txFlagsPart(srv.t, tfRolledback),
			)
		}

		// with auto commit the execute request carries the commit flag
		sh, _, ok = srv.expect(MtExecuteDirect)
		if !ok {
			return
		}
		if !sh.commit {
			srv.t.Error("commit flag unset - expected set")
		}
		writeReply(srv.t, srv.conn, skReply, testSessionID, FcInsert,
			rowsAffectedPart(srv.t, 1),
		)

		srv.serveDisconnect()
	})

	ctx := context.Background()

	s.SetAutoCommit(false)
	res, err := s.ExecDirect(ctx, "insert into test values (1)")
	if err != nil {
		t.Fatal(err)
	}
	if res.RowsAffected() != 1 {
		t.Fatalf("rows affected %d - expected 1", res.RowsAffected())
	}
	if !s.InTx() {
		t.Fatal("write transaction expected")
	}

	for i := 0; i < 2; i++ {
		if err := s.Commit(ctx); err != nil {
			t.Fatal(err)
		}
		if s.InTx() {
			t.Fatal("no write transaction expected")
		}
	}
	for i := 0; i < 2; i++ {
		if err := s.Rollback(ctx); err != nil {
			t.Fatal(err)
		}
	}

	s.SetAutoCommit(true)
	if _, err := s.ExecDirect(ctx, "insert into test values (2)"); err != nil {
		t.Fatal(err)
	}

	if err := s.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	<-done
}

func TestSessionReadLob(t *testing.T) {
	const lobSize = 150
	const chunkSize = 100
	const lobID = 77

	lobData := make([]byte, lobSize)
	for i := range lobData {
		lobData[i] = byte(i)
	}

	lobChunkReply := func(srv *testServer, ofs, n int, last bool) {
		opt := loDataincluded
		if last {
			opt |= loLastdata
		}
		writeReply(srv.t, srv.conn, skReply, testSessionID, FcNil,
			rawPart{kind: PkReadLobReply, numArg: 1, payload: encodePayload(srv.t, func(enc *encoding.Encoder) {
				enc.Uint64(lobID)
				enc.Int8(int8(opt))
				enc.Int32(int32(n))
				enc.Zeroes(3) // filler
				enc.Bytes(lobData[ofs : ofs+n])
			})},
		)
	}

	s, done := newTestSession(t, func(srv *testServer) {
		for _, expected := range []struct{ ofs, size int }{{0, chunkSize}, {chunkSize, lobSize - chunkSize}} {
			_, parts, ok := srv.expect(MtReadLob)
			if !ok {
				return
			}
			payload, ok := findPart(parts, PkReadLobRequest)
			if !ok {
				srv.t.Error("missing read lob request part")
				return
			}
			req := &readLobRequest{}
			if err := req.decode(payloadDecoder(payload), &partHeader{argumentCount: 1}); err != nil {
				srv.t.Error(err)
				return
			}
			if req.id != lobID || req.ofs != int64(expected.ofs) || req.chunkSize != chunkSize {
				srv.t.Errorf("read lob request %s - expected offset %d size %d", req, expected.ofs, chunkSize)
				return
			}
			lobChunkReply(srv, expected.ofs, expected.size, expected.ofs+chunkSize >= lobSize)
		}
		srv.serveDisconnect()
	})

	ctx := context.Background()
	descr := &LobDescr{id: lobID, numByte: lobSize}

	// read ranges [0,100) and [100,200): the second range is truncated to
	// the remaining 50 bytes and flagged as last data
	b, last, err := s.ReadLob(ctx, descr, 0, chunkSize)
	if err != nil {
		t.Fatal(err)
	}
	if last {
		t.Fatal("first chunk must not be the last one")
	}
	if !bytes.Equal(b, lobData[:chunkSize]) {
		t.Fatal("first chunk data mismatch")
	}

	b, last, err = s.ReadLob(ctx, descr, chunkSize, chunkSize)
	if err != nil {
		t.Fatal(err)
	}
	if !last {
		t.Fatal("second chunk must be the last one")
	}
	if len(b) != lobSize-chunkSize {
		t.Fatalf("second chunk size %d - expected %d", len(b), lobSize-chunkSize)
	}
	if !bytes.Equal(b, lobData[chunkSize:]) {
		t.Fatal("second chunk data mismatch")
	}

	if err := s.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	<-done
}

func TestSessionXA(t *testing.T) {
	xid := &XatID{FormatID: 42, GlobalTransactionID: []byte("gtrid-1"), BranchQualifier: []byte("bqual-1")}

	checkXatIDPart := func(srv *testServer, parts []srvPart) bool {
		payload, ok := findPart(parts, PkXatID)
		if !ok {
			srv.t.Error("missing transaction id part")
			return false
		}
		id := &XatID{}
		id.decodeWire(payloadDecoder(payload))
		if id.FormatID != xid.FormatID || !bytes.Equal(id.GlobalTransactionID, xid.GlobalTransactionID) || !bytes.Equal(id.BranchQualifier, xid.BranchQualifier) {
			srv.t.Errorf("transaction id %s - expected %s", id, xid)
			return false
		}
		return true
	}

	// session one: prepare the transaction, then disconnect
	s1, done1 := newTestSession(t, func(srv *testServer) {
		_, parts, ok := srv.expect(MtXAPrepare)
		if !ok {
			return
		}
		if !checkXatIDPart(srv, parts) {
			return
		}
		writeReply(srv.t, srv.conn, skReply, testSessionID, FcNil)
		srv.serveDisconnect()
	})

	ctx := context.Background()
	if err := s1.XAPrepare(ctx, xid); err != nil {
		t.Fatal(err)
	}
	if err := s1.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	<-done1

	// session two: recover and commit the prepared transaction
	s2, done2 := newTestSession(t, func(srv *testServer) {
		if _, _, ok := srv.expect(MtXARecover); !ok {
			return
		}
		writeReply(srv.t, srv.conn, skReply, testSessionID, FcNil,
			rawPart{kind: PkXatID, numArg: 1, payload: encodePayload(srv.t, func(enc *encoding.Encoder) {
				xid.encodeWire(enc)
			})},
		)

		_, parts, ok := srv.expect(MtXACommit)
		if !ok {
			return
		}
		if !checkXatIDPart(srv, parts) {
			return
		}
		writeReply(srv.t, srv.conn, skReply, testSessionID, FcNil)
		srv.serveDisconnect()
	})

	ids, err := s2.XARecover(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("number of recovered transactions %d - expected 1", len(ids))
	}
	if ids[0].FormatID != xid.FormatID || !bytes.Equal(ids[0].GlobalTransactionID, xid.GlobalTransactionID) {
		t.Fatalf("recovered transaction id %s - expected %s", ids[0], xid)
	}

	if err := s2.XACommit(ctx, xid); err != nil {
		t.Fatal(err)
	}
	if err := s2.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	<-done2
}

func TestSessionServerError(t *testing.T) {
	s, done := newTestSession(t, func(srv *testServer) {
		if _, _, ok := srv.expect(MtExecuteDirect); !ok {
			return
		}
		writeReply(srv.t, srv.conn, skError, testSessionID, FcNil,
			errorPart(srv.t, ErrError, 259, "invalid table name"),
		)
		srv.serveDisconnect()
	})

	ctx := context.Background()
	_, err := s.ExecDirect(ctx, "select * from unknown")
	var serverError *ServerError
	if !errors.As(err, &serverError) {
		t.Fatalf("%v - server error expected", err)
	}
	if serverError.Code() != 259 {
		t.Fatalf("error code %d - expected 259", serverError.Code())
	}
	// server errors do not break the session
	if s.State() != SsReady {
		t.Fatalf("session state %s - expected %s", s.State(), SsReady)
	}

	if err := s.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	<-done
}

func TestSessionMalformedReply(t *testing.T) {
	s, done := newTestSession(t, func(srv *testServer) {
		if _, _, ok := srv.expect(MtExecuteDirect); !ok {
			return
		}
		// write a truncated reply and close the connection
		buf := &bytes.Buffer{}
		writeReply(srv.t, buf, skReply, testSessionID, FcSelect,
			rawPart{kind: PkResultsetID, numArg: 1, payload: encodePayload(srv.t, func(enc *encoding.Encoder) { enc.Uint64(1) })},
		)
		srv.conn.Write(buf.Bytes()[:buf.Len()-5])
	})

	ctx := context.Background()
	_, err := s.ExecDirect(ctx, "select id from test")
	if !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("%v - malformed reply error expected", err)
	}
	// protocol errors break the session
	if s.State() != SsFailed {
		t.Fatalf("session state %s - expected %s", s.State(), SsFailed)
	}
	if _, err := s.ExecDirect(ctx, "select id from test"); err == nil {
		t.Fatal("error expected on failed session")
	}
	<-done
}

func TestSessionCancel(t *testing.T) {
	s, done := newTestSession(t, func(srv *testServer) {
		if _, _, ok := srv.expect(MtCancel); !ok {
			return
		}
		// cancel is sent out of band: no reply
		srv.serveDisconnect()
	})

	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-done
}
