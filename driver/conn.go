// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol"
	"github.com/helixdb/go-helix/driver/sqltrace"
)

// ErrNestedTransaction is returned when starting a transaction while
// another transaction is active on the connection.
var ErrNestedTransaction = errors.New("nested transactions are not supported")

// A Conn represents a single database session. A Conn processes one
// operation at a time; for concurrent statements use a Pool.
type Conn struct {
	session *protocol.Session
	metrics *metrics
	inTx    bool
}

// Connect opens a database connection using connection parameters of a
// data source name.
func Connect(ctx context.Context, dsnStr string) (*Conn, error) {
	connector, err := NewDSNConnector(dsnStr)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx)
}

// SessionID returns the server session id of the connection.
func (c *Conn) SessionID() int64 { return c.session.SessionID() }

// DatabaseName returns the database name reported by the server.
func (c *Conn) DatabaseName() string {
	name, _ := c.session.ServerOptions().DatabaseName()
	return name
}

// ServerVersion returns the server version reported by the server.
func (c *Conn) ServerVersion() string {
	version, _ := c.session.ServerOptions().FullVersionString()
	return version
}

// IsValid returns true if the connection is usable.
func (c *Conn) IsValid() bool { return c.session.State() == protocol.SsReady }

// Ping executes a minimal round trip to verify the connection.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.session.ExecDirect(ctx, "select 1")
	return classifyError(err)
}

// Close closes the connection: the session is disconnected, the server
// rolls back an open transaction.
func (c *Conn) Close() error {
	c.metrics.closed.Add(1)
	return classifyError(c.session.Disconnect(context.Background()))
}

// Cancel requests cancellation of the operation in flight on the
// connection. Safe for concurrent use.
func (c *Conn) Cancel() error {
	c.metrics.cancels.Add(1)
	return classifyError(c.session.Cancel())
}

// A Result summarizes an executed statement.
type Result struct {
	rowsAffected int64
	outValues    []any
}

// RowsAffected returns the number of rows affected by the statement.
func (r *Result) RowsAffected() int64 { return r.rowsAffected }

// OutputValues returns the output parameter values of a procedure call.
func (r *Result) OutputValues() []any { return r.outValues }

// Exec executes a statement without result rows. With args the statement
// is prepared, executed and dropped in one go.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (*Result, error) {
	sqltrace.Trace(sql)
	c.metrics.execs.Add(1)

	if len(args) == 0 {
		res, err := c.session.ExecDirect(ctx, sql)
		if err != nil {
			return nil, classifyError(err)
		}
		if res.ResultSet() != nil {
			c.session.CloseResultset(ctx, res.ResultSet())
			return nil, fmt.Errorf("exec: statement returned a resultset")
		}
		return &Result{rowsAffected: res.RowsAffected()}, nil
	}

	stmt, err := c.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Close(ctx)
	return stmt.Exec(ctx, args...)
}

// Query executes a query statement. With args the statement is prepared
// and executed; the statement is dropped when the rows are closed.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (*Rows, error) {
	sqltrace.Trace(sql)
	c.metrics.queries.Add(1)

	if len(args) == 0 {
		res, err := c.session.ExecDirect(ctx, sql)
		if err != nil {
			return nil, classifyError(err)
		}
		rs := res.ResultSet()
		if rs == nil {
			return nil, fmt.Errorf("query: statement did not return a resultset")
		}
		return newRows(c, rs, nil), nil
	}

	stmt, err := c.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ctx, args...)
	if err != nil {
		stmt.Close(ctx)
		return nil, err
	}
	rows.stmt = stmt // drop the statement on rows close
	return rows, nil
}

// A Stmt is a prepared statement.
type Stmt struct {
	conn *Conn
	pr   *protocol.PrepareResult
	sql  string
}

// Prepare prepares a statement for repeated execution.
func (c *Conn) Prepare(ctx context.Context, sql string) (*Stmt, error) {
	sqltrace.Tracef("prepare %s", sql)

	pr, err := c.session.Prepare(ctx, sql)
	if err != nil {
		return nil, classifyError(err)
	}
	return &Stmt{conn: c, pr: pr, sql: sql}, nil
}

// SQL returns the statement text.
func (s *Stmt) SQL() string { return s.sql }

// NumParam returns the number of statement parameters.
func (s *Stmt) NumParam() int { return s.pr.NumField() }

// Close drops the prepared statement on the server.
func (s *Stmt) Close(ctx context.Context) error {
	return classifyError(s.conn.session.DropStatement(ctx, s.pr))
}

func (s *Stmt) exec(ctx context.Context, args []any) (*protocol.ExecResult, error) {
	cargs, err := s.pr.ConvertArgs(args)
	if err != nil {
		return nil, classifyError(err)
	}
	res, err := s.conn.session.Exec(ctx, s.pr, cargs)
	if err != nil {
		return nil, classifyError(err)
	}
	return res, nil
}

// Exec executes the prepared statement. Passing a multiple of the
// statement parameter count executes the statement as bulk insert.
func (s *Stmt) Exec(ctx context.Context, args ...any) (*Result, error) {
	s.conn.metrics.execs.Add(1)

	res, err := s.exec(ctx, args)
	if err != nil {
		return nil, err
	}
	if res.ResultSet() != nil {
		s.conn.session.CloseResultset(ctx, res.ResultSet())
		return nil, fmt.Errorf("exec: statement returned a resultset")
	}
	return &Result{rowsAffected: res.RowsAffected(), outValues: res.OutputValues()}, nil
}

// Query executes the prepared query statement.
func (s *Stmt) Query(ctx context.Context, args ...any) (*Rows, error) {
	s.conn.metrics.queries.Add(1)

	res, err := s.exec(ctx, args)
	if err != nil {
		return nil, err
	}
	rs := res.ResultSet()
	if rs == nil {
		return nil, fmt.Errorf("query: statement did not return a resultset")
	}
	return newRows(s.conn, rs, nil), nil
}

// A Tx is a database transaction.
type Tx struct {
	conn *Conn
	done bool
}

// Begin starts a transaction: auto commit is switched off until the
// transaction is committed or rolled back.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	if c.inTx {
		return nil, ErrNestedTransaction
	}
	c.session.SetAutoCommit(false)
	c.inTx = true
	return &Tx{conn: c}, nil
}

func (tx *Tx) release() {
	tx.done = true
	tx.conn.inTx = false
	tx.conn.session.SetAutoCommit(true)
}

// Commit commits the transaction. Committing a transaction without
// uncommitted changes is a no-op on the server.
func (tx *Tx) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	defer tx.release()
	tx.conn.metrics.commits.Add(1)
	return classifyError(tx.conn.session.Commit(ctx))
}

// Rollback rolls back the transaction. Idempotent like Commit.
func (tx *Tx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	defer tx.release()
	tx.conn.metrics.rollbacks.Add(1)
	return classifyError(tx.conn.session.Rollback(ctx))
}

// Xid is the id of a distributed (two phase commit) transaction.
type Xid struct {
	FormatID            int64
	GlobalTransactionID []byte
	BranchQualifier     []byte
}

func (xid *Xid) protocolID() *protocol.XatID {
	return &protocol.XatID{
		FormatID:            xid.FormatID,
		GlobalTransactionID: xid.GlobalTransactionID,
		BranchQualifier:     xid.BranchQualifier,
	}
}

// XAPrepare prepares the transaction active on the connection for commit
// under the distributed transaction id xid (two phase commit phase one).
// The prepared transaction survives a disconnect.
func (c *Conn) XAPrepare(ctx context.Context, xid *Xid) error {
	return classifyError(c.session.XAPrepare(ctx, xid.protocolID()))
}

// XACommit commits a prepared distributed transaction (two phase commit
// phase two).
func (c *Conn) XACommit(ctx context.Context, xid *Xid) error {
	c.metrics.commits.Add(1)
	return classifyError(c.session.XACommit(ctx, xid.protocolID()))
}

// XARollback rolls back a prepared distributed transaction.
func (c *Conn) XARollback(ctx context.Context, xid *Xid) error {
	c.metrics.rollbacks.Add(1)
	return classifyError(c.session.XARollback(ctx, xid.protocolID()))
}

// XARecover returns the ids of the distributed transactions prepared but
// neither committed nor rolled back, e.g. after a crash of the process
// which prepared them.
func (c *Conn) XARecover(ctx context.Context) ([]*Xid, error) {
	ids, err := c.session.XARecover(ctx)
	if err != nil {
		return nil, classifyError(err)
	}
	xids := make([]*Xid, len(ids))
	for i, id := range ids {
		xids[i] = &Xid{
			FormatID:            id.FormatID,
			GlobalTransactionID: id.GlobalTransactionID,
			BranchQualifier:     id.BranchQualifier,
		}
	}
	return xids, nil
}
