// Package pgxconn runs the connection layer on pgx without going through
// database/sql. Statements are prepared server-side under generated names
// and inserts that request keys read their RETURNING columns.
package pgxconn

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// session is the part of *pgx.Conn the driver uses.
type session interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Deallocate(ctx context.Context, name string) error
}

var _ session = (*pgx.Conn)(nil)

// Driver implements support.Driver on one pgx connection.
type Driver struct {
	conn session
}

var _ support.Driver = (*Driver)(nil)

// NewDriver returns a Driver preparing statements on conn.
func NewDriver(conn *pgx.Conn) *Driver {
	return &Driver{conn: conn}
}

// Prepare implements support.Driver.
func (d *Driver) Prepare(ctx context.Context, query string, mode support.StatementMode) (support.Statement, error) {
	name := statementName()
	if _, err := d.conn.Prepare(ctx, name, query); err != nil {
		return nil, err
	}
	return &statement{conn: d.conn, name: name, mode: mode}, nil
}

func statementName() string {
	return "leapdb_" + uuid.NewString()
}

type statement struct {
	conn session
	name string
	mode support.StatementMode

	keys *support.StaticCursor
}

func (s *statement) ExecUpdate(ctx context.Context, args []any) (int64, error) {
	if s.mode == support.ModeInsertKeys {
		return s.execReturning(ctx, args)
	}
	tag, err := s.conn.Exec(ctx, s.name, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// execReturning runs the insert as a query so RETURNING rows can be read.
// The affected count comes from the command tag, so a statement without
// RETURNING reports its rows and no keys.
func (s *statement) execReturning(ctx context.Context, args []any) (int64, error) {
	rows, err := s.conn.Query(ctx, s.name, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var buf [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return 0, err
		}
		buf = append(buf, vals)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	s.keys = support.NewStaticCursor(cols, buf)
	return rows.CommandTag().RowsAffected(), nil
}

func (s *statement) ExecQuery(ctx context.Context, args []any) (support.Cursor, error) {
	rows, err := s.conn.Query(ctx, s.name, args...)
	if err != nil {
		return nil, err
	}
	return &cursor{rows: rows}, nil
}

func (s *statement) GeneratedKeys(context.Context) (support.Cursor, error) {
	if s.mode != support.ModeInsertKeys {
		return nil, fmt.Errorf("statement %s was not prepared for generated keys", s.name)
	}
	if s.keys == nil {
		return nil, fmt.Errorf("statement %s has not been executed", s.name)
	}
	return s.keys, nil
}

// Close deallocates the server-side statement. It runs on a fresh context
// so cleanup still happens after the operation's context is cancelled.
func (s *statement) Close() error {
	return s.conn.Deallocate(context.Background(), s.name)
}

// cursor adapts pgx.Rows to support.Cursor.
type cursor struct {
	rows pgx.Rows
}

func (c *cursor) Columns() ([]string, error) {
	fields := c.rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols, nil
}

func (c *cursor) Scan(dest ...any) error { return c.rows.Scan(dest...) }

func (c *cursor) Next() bool { return c.rows.Next() }

// NextResultSet reports false: the extended protocol returns one result
// set per statement.
func (c *cursor) NextResultSet() bool { return false }

func (c *cursor) Err() error { return c.rows.Err() }

func (c *cursor) Close() error {
	c.rows.Close()
	return c.rows.Err()
}
