// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/transform"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
	"github.com/helixdb/go-helix/driver/unicode/cesu8"
)

// client product and protocol version announced in the init request.
var (
	productVersion  = version{major: 1, minor: 0}
	protocolVersion = version{major: 4, minor: 1}
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("session closed")

// SessionState is the life cycle state of a session.
type SessionState int32

// SessionState constants.
const (
	SsDisconnected SessionState = iota
	SsConnecting
	SsAuthenticating
	SsReady
	SsClosed
	SsFailed
)

var sessionStateText = map[SessionState]string{
	SsDisconnected:   "disconnected",
	SsConnecting:     "connecting",
	SsAuthenticating: "authenticating",
	SsReady:          "ready",
	SsClosed:         "closed",
	SsFailed:         "failed",
}

func (s SessionState) String() string {
	if text, ok := sessionStateText[s]; ok {
		return text
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// SessionConfig holds the session relevant attributes of a connection.
type SessionConfig struct {
	Username, Password string
	Locale             string
	ApplicationName    string
	FetchSize          int32
	Timeout            time.Duration
	ClientInfo         map[string]string
}

// dbConn wraps the database connection with timeout handling.
type dbConn struct {
	conn    net.Conn
	timeout time.Duration
	closed  atomic.Bool
	lastErr error
}

func (c *dbConn) deadline() time.Time {
	if c.timeout == 0 {
		return time.Time{}
	}
	return time.Now().Add(c.timeout)
}

func (c *dbConn) Read(b []byte) (int, error) {
	if err := c.conn.SetReadDeadline(c.deadline()); err != nil {
		return 0, err
	}
	n, err := c.conn.Read(b)
	if err != nil {
		c.lastErr = err
	}
	return n, err
}

func (c *dbConn) Write(b []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(c.deadline()); err != nil {
		return 0, err
	}
	n, err := c.conn.Write(b)
	if err != nil {
		c.lastErr = err
	}
	return n, err
}

func (c *dbConn) close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

/*
Session implements the client side of the hx protocol on top of a single
database connection.

A session processes one request reply pair at a time. Cancel is the only
operation which may be used concurrently to a request in flight.
*/
type Session struct {
	cfg *SessionConfig

	conn *dbConn

	mu  sync.Mutex // request reply serialization
	wmu sync.Mutex // write serialization (cancel support)

	pr *Reader
	pw *Writer

	state atomic.Int32

	sessionID   int64
	packetCount int32

	auth *auth

	serverOptions ConnectOptions

	autoCommit atomic.Bool
	inTx       bool
}

// NewSession opens a session on conn: init handshake, authentication and
// connect. On authentication failure the returned error wraps the server
// error, the connection is closed in any error case.
func NewSession(ctx context.Context, conn net.Conn, cfg *SessionConfig) (*Session, error) {
	c := &dbConn{conn: conn, timeout: cfg.Timeout}
	rd := bufio.NewReader(c)
	wr := bufio.NewWriter(c)

	s := &Session{
		cfg:  cfg,
		conn: c,
		pr:   NewReader(encoding.NewDecoder(rd, cesu8DecoderFn)),
		pw:   NewWriter(wr, encoding.NewEncoder(wr, cesu8EncoderFn), cfg.ClientInfo),
	}
	s.autoCommit.Store(true)
	s.setState(SsConnecting)

	if err := s.connect(ctx); err != nil {
		s.setState(SsFailed)
		c.close()
		return nil, err
	}
	s.setState(SsReady)
	return s, nil
}

func cesu8DecoderFn() transform.Transformer { return cesu8.NewDecoder(cesu8.ReplaceErrorHandler) }
func cesu8EncoderFn() transform.Transformer { return cesu8.NewEncoder(cesu8.ReplaceErrorHandler) }

// State returns the session state.
func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

func (s *Session) setState(state SessionState) { s.state.Store(int32(state)) }

// SessionID returns the session id assigned by the server.
func (s *Session) SessionID() int64 { return s.sessionID }

// ServerOptions returns the connect options reported by the server.
func (s *Session) ServerOptions() ConnectOptions { return s.serverOptions }

// SetAutoCommit sets the auto commit flag sent with each statement.
func (s *Session) SetAutoCommit(ac bool) { s.autoCommit.Store(ac) }

// InTx returns true if a write transaction is active on the session.
func (s *Session) InTx() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx
}

func (s *Session) usable() error {
	switch s.State() {
	case SsClosed:
		return ErrSessionClosed
	case SsFailed:
		if s.conn.lastErr != nil {
			return fmt.Errorf("session failed: %w", s.conn.lastErr)
		}
		return fmt.Errorf("session failed: %w", ErrSessionClosed)
	}
	return nil
}

// fail marks the session as broken. Called for protocol and connection
// errors, not for server reported statement errors.
func (s *Session) fail() {
	s.setState(SsFailed)
	s.conn.close()
}

func (s *Session) write(messageType MessageType, commit bool, parts ...partWriter) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.packetCount++
	return s.pw.Write(s.sessionID, s.packetCount, messageType, commit, parts...)
}

// request writes a request message and reads the reply. partFn (optional)
// receives the reply part headers.
func (s *Session) request(ctx context.Context, messageType MessageType, commit bool, partFn func(ph *partHeader), parts ...partWriter) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.write(messageType, commit, parts...); err != nil {
		s.fail()
		return err
	}
	err := s.pr.IterateParts(partFn)
	if err != nil && !isServerError(err) {
		s.fail()
	}
	return err
}

func isServerError(err error) bool {
	var serverErrors *ServerErrors
	return errors.As(err, &serverErrors)
}

func (s *Session) connect(ctx context.Context) error {
	if err := s.pw.WriteProlog(productVersion, protocolVersion); err != nil {
		return err
	}
	if err := s.pr.ReadProlog(); err != nil {
		return err
	}

	s.setState(SsAuthenticating)

	s.auth = newAuth(s.cfg.Username)
	s.auth.addSCRAMPBKDF2SHA256(s.cfg.Username, s.cfg.Password)
	s.auth.addSCRAMSHA256(s.cfg.Username, s.cfg.Password)

	if err := s.write(MtAuthenticate, false, authInitReq{a: s.auth}); err != nil {
		return err
	}
	initRep := &authInitRep{a: s.auth}
	if err := s.pr.IterateParts(func(ph *partHeader) {
		if ph.partKind == PkAuthentication {
			s.pr.Read(initRep)
		}
	}); err != nil {
		return err
	}

	co := ConnectOptions{
		CoClientVersion:          productVersion.String(),
		CoClientType:             "go",
		CoCompleteArrayExecution: true,
	}
	if s.cfg.Locale != "" {
		co[CoClientLocale] = s.cfg.Locale
	}
	if s.cfg.ApplicationName != "" {
		co[CoClientApplicationProgram] = s.cfg.ApplicationName
	}

	finalRep := &authFinalRep{a: s.auth}
	if err := s.write(MtConnect, false, authFinalReq{a: s.auth}, newClientID(), co); err != nil {
		return err
	}
	if err := s.pr.IterateParts(func(ph *partHeader) {
		switch ph.partKind {
		case PkAuthentication:
			s.pr.Read(finalRep)
		case PkConnectOptions:
			s.pr.Read(&s.serverOptions)
		}
	}); err != nil {
		return err
	}
	s.sessionID = s.pr.SessionID()
	if s.sessionID <= 0 {
		return fmt.Errorf("connect: invalid session id %d: %w", s.sessionID, ErrMalformedReply)
	}
	return nil
}

// Disconnect sends the disconnect request and closes the connection. The
// server rolls back an open transaction.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != SsReady {
		return s.conn.close()
	}
	s.setState(SsClosed)
	err := s.write(MtDisconnect, false)
	if err == nil {
		err = s.pr.SkipParts()
	}
	if closeErr := s.conn.close(); err == nil {
		err = closeErr
	}
	return err
}

// Kill closes the connection without sending a disconnect request.
func (s *Session) Kill() error {
	s.setState(SsClosed)
	return s.conn.close()
}

// Cancel requests cancellation of the statement currently processed on the
// session. It is sent out of band and does not wait for a reply: the
// request in flight fails with a server error.
func (s *Session) Cancel() error {
	if err := s.usable(); err != nil {
		return err
	}
	return s.write(MtCancel, false)
}

// Commit commits the transaction active on the session. Idempotent: without
// an active transaction the server treats the request as a no-op.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.request(ctx, MtCommit, false, s.transactionPartFn()); err != nil {
		return err
	}
	s.inTx = false
	return nil
}

// Rollback rolls back the transaction active on the session. Idempotent
// like Commit.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.request(ctx, MtRollback, false, s.transactionPartFn()); err != nil {
		return err
	}
	s.inTx = false
	return nil
}

func (s *Session) transactionPartFn() func(ph *partHeader) {
	return func(ph *partHeader) {
		if ph.partKind == PkTransactionFlags {
			tf := transactionFlags{}
			s.pr.Read(&tf)
			s.evaluateTxFlags(tf)
		}
	}
}

func (s *Session) evaluateTxFlags(tf transactionFlags) {
	switch {
	case tf.writeTransactionStarted():
		s.inTx = true
	case tf.committed(), tf.rolledback():
		s.inTx = false
	}
	if tf.sessionClosingTransactionError() {
		s.fail()
	}
}

func (s *Session) commitFlag() bool { return s.autoCommit.Load() && !s.inTx }

// ResultSet represents a query result. The first row chunk is transferred
// with the reply, remaining chunks are fetched on demand.
type ResultSet struct {
	id     resultsetID
	fields []*resultField
	rows   [][]any
	attrs  partAttributes
}

// Fields returns the field metadata of the resultset columns.
func (rs *ResultSet) Fields() []Field {
	fields := make([]Field, len(rs.fields))
	for i, f := range rs.fields {
		fields[i] = f
	}
	return fields
}

// Rows returns the buffered row chunk.
func (rs *ResultSet) Rows() [][]any { return rs.rows }

// Closed returns true if the resultset is closed on the server.
func (rs *ResultSet) Closed() bool { return rs.attrs.ResultsetClosed() }

// LastChunk returns true if the buffered chunk is the last one.
func (rs *ResultSet) LastChunk() bool { return rs.attrs.LastPacket() }

// ExecResult is the result of a statement execution.
type ExecResult struct {
	fc           FunctionCode
	rowsAffected rowsAffected
	outPrms      []any
	rs           *ResultSet
}

// FunctionCode returns the function code of the executed statement.
func (r *ExecResult) FunctionCode() FunctionCode { return r.fc }

// RowsAffected returns the total number of affected rows.
func (r *ExecResult) RowsAffected() int64 { return r.rowsAffected.total() }

// OutputValues returns the output parameter values of a procedure call.
func (r *ExecResult) OutputValues() []any { return r.outPrms }

// ResultSet returns the resultset of a query, nil otherwise.
func (r *ExecResult) ResultSet() *ResultSet { return r.rs }

// PrepareResult is the result of a statement prepare.
type PrepareResult struct {
	fc           FunctionCode
	stmtID       statementID
	prmFields    []*parameterField
	resultFields []*resultField
}

// FunctionCode returns the function code of the prepared statement.
func (pr *PrepareResult) FunctionCode() FunctionCode { return pr.fc }

// IsProcedureCall returns true if the statement is a procedure call.
func (pr *PrepareResult) IsProcedureCall() bool { return pr.fc.IsProcedureCall() }

// NumField returns the number of parameter fields of the statement.
func (pr *PrepareResult) NumField() int { return len(pr.prmFields) }

// PrmFields returns the parameter field metadata of the statement.
func (pr *PrepareResult) PrmFields() []Field {
	fields := make([]Field, len(pr.prmFields))
	for i, f := range pr.prmFields {
		fields[i] = f
	}
	return fields
}

func (pr *PrepareResult) inputFields() []*parameterField {
	fields := []*parameterField{}
	for _, f := range pr.prmFields {
		if f.Mode().In() {
			fields = append(fields, f)
		}
	}
	return fields
}

func (pr *PrepareResult) outputFields() []*parameterField {
	fields := []*parameterField{}
	for _, f := range pr.prmFields {
		if f.Mode().Out() {
			fields = append(fields, f)
		}
	}
	return fields
}

// ConvertArgs converts statement arguments into their wire representation.
func (pr *PrepareResult) ConvertArgs(args []any) ([]any, error) {
	inputFields := pr.inputFields()
	if len(inputFields) == 0 {
		if len(args) != 0 {
			return nil, fmt.Errorf("invalid number of arguments %d - expected 0", len(args))
		}
		return args, nil
	}
	if len(args)%len(inputFields) != 0 {
		return nil, fmt.Errorf("invalid number of arguments %d - multiple of %d expected", len(args), len(inputFields))
	}
	cargs := make([]any, len(args))
	for i, arg := range args {
		f := inputFields[i%len(inputFields)]
		carg, err := f.convert(arg)
		if err != nil {
			return nil, err
		}
		cargs[i] = carg
	}
	return cargs, nil
}

// ExecDirect executes a statement without parameters.
func (s *Session) ExecDirect(ctx context.Context, sql string) (*ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &ExecResult{}
	meta := &resultMetadata{}
	rsID := resultsetID(0)
	rs := &resultset{}

	txFn := s.transactionPartFn()
	if err := s.request(ctx, MtExecuteDirect, s.commitFlag(), func(ph *partHeader) {
		switch ph.partKind {
		case PkRowsAffected:
			s.pr.Read(&res.rowsAffected)
		case PkResultMetadata:
			s.pr.Read(meta)
			rs.resultFields = meta.resultFields
		case PkResultsetID:
			s.pr.Read(&rsID)
		case PkResultset:
			s.pr.Read(rs)
			res.rs = &ResultSet{id: rsID, fields: meta.resultFields, rows: rs.fieldValues, attrs: ph.partAttributes}
		default:
			txFn(ph)
		}
	}, command(sql)); err != nil {
		return nil, err
	}
	res.fc = s.pr.FunctionCode()
	if res.rs != nil {
		res.rs.id = rsID
	}
	return res, nil
}

// Prepare prepares a statement.
func (s *Session) Prepare(ctx context.Context, sql string) (*PrepareResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr := &PrepareResult{}
	prmMeta := &parameterMetadata{}
	resMeta := &resultMetadata{}

	if err := s.request(ctx, MtPrepare, false, func(ph *partHeader) {
		switch ph.partKind {
		case PkStatementID:
			s.pr.Read(&pr.stmtID)
		case PkParameterMetadata:
			s.pr.Read(prmMeta)
			pr.prmFields = prmMeta.parameterFields
		case PkResultMetadata:
			s.pr.Read(resMeta)
			pr.resultFields = resMeta.resultFields
		}
	}, command(sql)); err != nil {
		return nil, err
	}
	pr.fc = s.pr.FunctionCode()
	return pr, nil
}

// Exec executes a prepared statement. args need to be converted via
// ConvertArgs beforehand.
func (s *Session) Exec(ctx context.Context, pr *PrepareResult, args []any) (*ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := []partWriter{pr.stmtID}
	if len(args) != 0 {
		inPrms, err := newInputParameters(pr.inputFields(), args)
		if err != nil {
			return nil, err
		}
		parts = append(parts, inPrms)
	}

	res := &ExecResult{}
	rsID := resultsetID(0)
	rs := &resultset{resultFields: pr.resultFields}
	outPrms := &outputParameters{outputFields: pr.outputFields()}

	txFn := s.transactionPartFn()
	if err := s.request(ctx, MtExecute, s.commitFlag(), func(ph *partHeader) {
		switch ph.partKind {
		case PkRowsAffected:
			s.pr.Read(&res.rowsAffected)
		case PkResultsetID:
			s.pr.Read(&rsID)
		case PkResultset:
			s.pr.Read(rs)
			res.rs = &ResultSet{id: rsID, fields: rs.resultFields, rows: rs.fieldValues, attrs: ph.partAttributes}
		case PkOutputParameters:
			s.pr.Read(outPrms)
			res.outPrms = outPrms.fieldValues
		default:
			txFn(ph)
		}
	}, parts...); err != nil {
		return nil, err
	}
	res.fc = s.pr.FunctionCode()
	if res.rs != nil {
		res.rs.id = rsID
	}
	return res, nil
}

// Query executes a prepared query statement.
func (s *Session) Query(ctx context.Context, pr *PrepareResult, args []any) (*ResultSet, error) {
	res, err := s.Exec(ctx, pr, args)
	if err != nil {
		return nil, err
	}
	return res.rs, nil
}

// FetchNext fetches the next row chunk of a resultset.
func (s *Session) FetchNext(ctx context.Context, rs *ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetchSize := s.cfg.FetchSize
	chunk := &resultset{resultFields: rs.fields}

	if err := s.request(ctx, MtFetchNext, false, func(ph *partHeader) {
		if ph.partKind == PkResultset {
			s.pr.Read(chunk)
			rs.rows = chunk.fieldValues
			rs.attrs = ph.partAttributes
		}
	}, rs.id, fetchsize(fetchSize)); err != nil {
		return err
	}
	return nil
}

// CloseResultset closes a resultset on the server releasing its resources.
func (s *Session) CloseResultset(ctx context.Context, rs *ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.request(ctx, MtCloseResultset, false, nil, rs.id)
}

// DropStatement drops a prepared statement on the server.
func (s *Session) DropStatement(ctx context.Context, pr *PrepareResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.request(ctx, MtDropStatementID, false, nil, pr.stmtID)
}

// ReadLob reads a lob chunk of at most chunkSize bytes starting at ofs.
// It returns the chunk and true if it is the last one.
func (s *Session) ReadLob(ctx context.Context, descr *LobDescr, ofs int64, chunkSize int32) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := &readLobRequest{id: descr.id, ofs: ofs, chunkSize: chunkSize}
	rep := &readLobReply{}

	if err := s.request(ctx, MtReadLob, false, func(ph *partHeader) {
		if ph.partKind == PkReadLobReply {
			s.pr.Read(rep)
		}
	}, req); err != nil {
		return nil, false, err
	}
	if rep.id != descr.id {
		return nil, false, fmt.Errorf("read lob: locator id mismatch %d - expected %d: %w", rep.id, descr.id, ErrMalformedReply)
	}
	return rep.b, rep.opt.isLastData(), nil
}

// XAPrepare prepares the distributed transaction id for commit (two phase
// commit phase one). The transaction survives a disconnect of the session.
func (s *Session) XAPrepare(ctx context.Context, id *XatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.request(ctx, MtXAPrepare, false, s.transactionPartFn(), &xatID{id: id})
}

// XACommit commits a prepared distributed transaction (two phase commit
// phase two).
func (s *Session) XACommit(ctx context.Context, id *XatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.request(ctx, MtXACommit, false, s.transactionPartFn(), &xatID{id: id})
}

// XARollback rolls back a prepared distributed transaction.
func (s *Session) XARollback(ctx context.Context, id *XatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.request(ctx, MtXARollback, false, s.transactionPartFn(), &xatID{id: id})
}

// XARecover lists the distributed transactions prepared but neither
// committed nor rolled back.
func (s *Session) XARecover(ctx context.Context) ([]*XatID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := xatIDs{}
	if err := s.request(ctx, MtXARecover, false, func(ph *partHeader) {
		if ph.partKind == PkXatID {
			s.pr.Read(&ids)
		}
	}); err != nil {
		return nil, err
	}
	return ids, nil
}
