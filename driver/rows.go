// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"time"

	"github.com/helixdb/go-helix/driver/internal/protocol"
)

// A Column describes a resultset column.
type Column struct {
	Name     string
	TypeName string
	Length   int64 // variable length types only
	Prec     int64 // decimal types only
	Scale    int64 // decimal types only
	Nullable bool
}

func newColumn(f protocol.Field) Column {
	col := Column{Name: f.Name(), TypeName: f.TypeName(), Nullable: f.Nullable()}
	if length, ok := f.TypeLength(); ok {
		col.Length = length
	}
	if prec, scale, ok := f.TypePrecisionScale(); ok {
		col.Prec, col.Scale = prec, scale
	}
	return col
}

/*
Rows is the result of a query. The first row chunk is delivered with the
query reply; Next fetches further chunks transparently. Rows must be
closed to release the server side resources if the result is not read to
the end.
*/
type Rows struct {
	conn *Conn
	rs   *protocol.ResultSet
	stmt *Stmt // statement to drop on close (conn.Query shortcut)
	ctx  context.Context

	columns []Column
	rows    [][]any
	pos     int

	err    error
	closed bool
}

func newRows(conn *Conn, rs *protocol.ResultSet, stmt *Stmt) *Rows {
	fields := rs.Fields()
	columns := make([]Column, len(fields))
	for i, f := range fields {
		columns[i] = newColumn(f)
	}
	return &Rows{
		conn:    conn,
		rs:      rs,
		stmt:    stmt,
		ctx:     context.Background(),
		columns: columns,
		rows:    rs.Rows(),
		pos:     -1,
	}
}

// Columns returns the names of the resultset columns.
func (r *Rows) Columns() []string {
	names := make([]string, len(r.columns))
	for i, col := range r.columns {
		names[i] = col.Name
	}
	return names
}

// ColumnInfo returns the metadata of the resultset columns.
func (r *Rows) ColumnInfo() []Column { return r.columns }

// Err returns the error, if any, that was encountered during iteration.
func (r *Rows) Err() error { return r.err }

// Next prepares the next row for Scan. It returns false when the rows are
// exhausted or an error occurred.
func (r *Rows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}

	r.pos++
	if r.pos < len(r.rows) {
		return true
	}

	if r.rs.LastChunk() || r.rs.Closed() {
		return false
	}

	r.conn.metrics.fetches.Add(1)
	if err := r.conn.session.FetchNext(r.ctx, r.rs); err != nil {
		r.err = classifyError(err)
		return false
	}
	r.rows = r.rs.Rows()
	r.pos = 0
	return r.pos < len(r.rows)
}

func (r *Rows) currentRow() ([]any, error) {
	if r.closed {
		return nil, fmt.Errorf("rows are closed")
	}
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("no row available - forgot to call Next?")
	}
	return r.rows[r.pos], nil
}

// Values returns the values of the current row. Lob columns are returned
// as *Lob streaming the content on read.
func (r *Rows) Values() ([]any, error) {
	row, err := r.currentRow()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(row))
	for i, v := range row {
		if descr, ok := v.(*protocol.LobDescr); ok {
			values[i] = newReadLob(r.conn, r.ctx, descr)
			continue
		}
		values[i] = v
	}
	return values, nil
}

// Scan copies the values of the current row into dest.
func (r *Rows) Scan(dest ...any) error {
	row, err := r.currentRow()
	if err != nil {
		return err
	}
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destination arguments for %d columns", len(dest), len(row))
	}
	for i, v := range row {
		if err := r.assign(dest[i], v); err != nil {
			return fmt.Errorf("scan column %s: %w", r.columns[i].Name, err)
		}
	}
	return nil
}

// Close closes the rows releasing the resultset and, for conn.Query
// shortcuts, the statement on the server.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if !r.rs.Closed() && !r.rs.LastChunk() {
		err = classifyError(r.conn.session.CloseResultset(r.ctx, r.rs))
	}
	if r.stmt != nil {
		if stmtErr := r.stmt.Close(r.ctx); err == nil {
			err = stmtErr
		}
	}
	return err
}

func (r *Rows) assign(dest, v any) error {
	if descr, ok := v.(*protocol.LobDescr); ok {
		return r.assignLob(dest, descr)
	}

	switch dest := dest.(type) {
	case *any:
		*dest = v
		return nil
	case *bool:
		if b, ok := v.(bool); ok {
			*dest = b
			return nil
		}
	case *int:
		if i64, ok := v.(int64); ok {
			*dest = int(i64)
			return nil
		}
	case *int64:
		if i64, ok := v.(int64); ok {
			*dest = i64
			return nil
		}
	case *float64:
		if f64, ok := v.(float64); ok {
			*dest = f64
			return nil
		}
	case *string:
		switch v := v.(type) {
		case string:
			*dest = v
			return nil
		case []byte:
			*dest = string(v)
			return nil
		}
	case *[]byte:
		if b, ok := v.([]byte); ok {
			*dest = b
			return nil
		}
	case *time.Time:
		if t, ok := v.(time.Time); ok {
			*dest = t
			return nil
		}
	case *big.Rat:
		if rat, ok := v.(*big.Rat); ok {
			dest.Set(rat)
			return nil
		}
	}

	// nullable columns: scan into a pointer to one of the types above
	rv := reflect.ValueOf(dest)
	if rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.Ptr {
		if v == nil {
			rv.Elem().SetZero()
			return nil
		}
		if rv.Elem().IsNil() {
			rv.Elem().Set(reflect.New(rv.Elem().Type().Elem()))
		}
		return r.assign(rv.Elem().Interface(), v)
	}

	if v == nil {
		return fmt.Errorf("cannot scan null into %T", dest)
	}
	return fmt.Errorf("unsupported scan: %T into %T", v, dest)
}

func (r *Rows) assignLob(dest any, descr *protocol.LobDescr) error {
	lob := newReadLob(r.conn, r.ctx, descr)

	switch dest := dest.(type) {
	case *Lob:
		*dest = *lob
		return nil
	case **Lob:
		*dest = lob
		return nil
	case *any:
		*dest = lob
		return nil
	case *[]byte:
		b, err := io.ReadAll(lob.Reader())
		if err != nil {
			return err
		}
		*dest = b
		return nil
	case *string:
		b, err := io.ReadAll(lob.Reader())
		if err != nil {
			return err
		}
		*dest = string(b)
		return nil
	}
	return fmt.Errorf("unsupported scan: lob into %T", dest)
}
