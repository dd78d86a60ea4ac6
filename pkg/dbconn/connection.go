// Package dbconn implements support.DatabaseConnection on top of any
// support.Driver. Each operation prepares one statement, binds its
// arguments, executes, and closes everything it opened before returning.
package dbconn

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/mapper"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Connection is a DatabaseConnection bound to one driver session. It is not
// safe for concurrent use.
type Connection struct {
	drv support.Driver
}

var _ support.DatabaseConnection = (*Connection)(nil)

// New returns a Connection issuing statements through drv.
func New(drv support.Driver) *Connection {
	return &Connection{drv: drv}
}

// Driver returns the driver session the connection runs on.
func (c *Connection) Driver() support.Driver { return c.drv }

// QueryForLong implements support.DatabaseConnection.
func (c *Connection) QueryForLong(ctx context.Context, query string) (int64, error) {
	return c.QueryForLongArgs(ctx, query, nil, nil)
}

// QueryForLongArgs implements support.DatabaseConnection.
func (c *Connection) QueryForLongArgs(ctx context.Context, query string, args []any, types []*field.Type) (n int64, err error) {
	cur, stmt, err := c.open(ctx, query, args, types)
	if err != nil {
		return 0, err
	}
	defer closeStatement(stmt, query, &err)
	defer closeCursor(cur, query, &err)

	if !cur.Next() {
		if err := cur.Err(); err != nil {
			return 0, &support.DriverError{Op: "next", Query: query, Err: err}
		}
		return 0, &support.CardinalityError{Query: query, Err: support.ErrNoResult}
	}
	n, err = mapper.Long().MapRow(cur)
	if err != nil {
		return 0, rowError(query, err)
	}
	if cur.Next() {
		return 0, &support.CardinalityError{Query: query, Err: support.ErrTooManyResults}
	}
	if err := cur.Err(); err != nil {
		return 0, &support.DriverError{Op: "next", Query: query, Err: err}
	}
	return n, nil
}

// Update implements support.DatabaseConnection.
func (c *Connection) Update(ctx context.Context, query string, args []any, types []*field.Type) (n int64, err error) {
	stmt, err := c.prepare(ctx, query, support.ModeUpdate)
	if err != nil {
		return 0, err
	}
	defer closeStatement(stmt, query, &err)

	bound, err := support.BindArgs(args, types)
	if err != nil {
		return 0, err
	}
	n, err = stmt.ExecUpdate(ctx, bound)
	if err != nil {
		return 0, &support.DriverError{Op: "exec", Query: query, Err: err}
	}
	return n, nil
}

// Delete implements support.DatabaseConnection.
func (c *Connection) Delete(ctx context.Context, query string, args []any, types []*field.Type) (int64, error) {
	return c.Update(ctx, query, args, types)
}

// Insert implements support.DatabaseConnection.
func (c *Connection) Insert(ctx context.Context, query string, args []any, types []*field.Type, keys support.KeyHolder) (n int64, err error) {
	if keys == nil {
		return c.Update(ctx, query, args, types)
	}

	stmt, err := c.prepare(ctx, query, support.ModeInsertKeys)
	if err != nil {
		return 0, err
	}
	defer closeStatement(stmt, query, &err)

	bound, err := support.BindArgs(args, types)
	if err != nil {
		return 0, err
	}
	n, err = stmt.ExecUpdate(ctx, bound)
	if err != nil {
		var mdErr *support.MetadataError
		if errors.As(err, &mdErr) {
			return 0, err
		}
		return 0, &support.DriverError{Op: "exec", Query: query, Err: err}
	}
	if err := collectKeys(ctx, stmt, query, keys); err != nil {
		return 0, err
	}
	return n, nil
}

// QueryRow implements support.DatabaseConnection. Result sets after the
// first are drained so the session is left reusable.
func (c *Connection) QueryRow(ctx context.Context, query string, args []any, types []*field.Type, fn support.RowFunc) (found bool, err error) {
	cur, stmt, err := c.open(ctx, query, args, types)
	if err != nil {
		return false, err
	}
	defer closeStatement(stmt, query, &err)
	defer closeCursor(cur, query, &err)

	if cur.Next() {
		if err := fn(cur); err != nil {
			return false, rowError(query, err)
		}
		found = true
	}
	for cur.NextResultSet() {
	}
	if err := cur.Err(); err != nil {
		return false, &support.DriverError{Op: "more_results", Query: query, Err: err}
	}
	return found, nil
}

// QueryRows implements support.DatabaseConnection.
func (c *Connection) QueryRows(ctx context.Context, query string, args []any, types []*field.Type, fn support.RowFunc) (err error) {
	cur, stmt, err := c.open(ctx, query, args, types)
	if err != nil {
		return err
	}
	defer closeStatement(stmt, query, &err)
	defer closeCursor(cur, query, &err)

	for cur.Next() {
		if err := fn(cur); err != nil {
			return rowError(query, err)
		}
	}
	if err := cur.Err(); err != nil {
		return &support.DriverError{Op: "next", Query: query, Err: err}
	}
	return nil
}

func (c *Connection) prepare(ctx context.Context, query string, mode support.StatementMode) (support.Statement, error) {
	stmt, err := c.drv.Prepare(ctx, query, mode)
	if err != nil {
		return nil, &support.DriverError{Op: "prepare", Query: query, Err: err}
	}
	return stmt, nil
}

// open prepares a query statement, binds args and executes it. On error
// the statement is already closed.
func (c *Connection) open(ctx context.Context, query string, args []any, types []*field.Type) (support.Cursor, support.Statement, error) {
	stmt, err := c.prepare(ctx, query, support.ModeQuery)
	if err != nil {
		return nil, nil, err
	}

	bound, err := support.BindArgs(args, types)
	if err != nil {
		_ = stmt.Close()
		return nil, nil, err
	}
	cur, err := stmt.ExecQuery(ctx, bound)
	if err != nil {
		_ = stmt.Close()
		return nil, nil, &support.DriverError{Op: "query", Query: query, Err: err}
	}
	return cur, stmt, nil
}

func closeStatement(stmt support.Statement, query string, err *error) {
	if cerr := stmt.Close(); cerr != nil && *err == nil {
		*err = &support.DriverError{Op: "close", Query: query, Err: cerr}
	}
}

func closeCursor(cur support.Cursor, query string, err *error) {
	if cerr := cur.Close(); cerr != nil && *err == nil {
		*err = &support.DriverError{Op: "close", Query: query, Err: cerr}
	}
}

// rowError passes typed errors through and wraps anything else raised
// while reading a row as a scan failure.
func rowError(query string, err error) error {
	var (
		cardErr *support.CardinalityError
		bindErr *support.BindingError
		drvErr  *support.DriverError
		metaErr *support.MetadataError
	)
	switch {
	case errors.As(err, &cardErr), errors.As(err, &bindErr), errors.As(err, &drvErr):
		return err
	case errors.As(err, &metaErr):
		if metaErr.Query == "" {
			metaErr.Query = query
		}
		return err
	}
	return &support.DriverError{Op: "scan", Query: query, Err: err}
}
