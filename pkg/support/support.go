// Package support defines the contracts between the ORM, the connection
// layer, and the database driver.
//
// Upstream, a ConnectionSource hands out DatabaseConnection handles and takes
// them back. Downstream, a Driver prepares Statements whose Cursors expose
// rows through the Results view. Row mappers and key holders are plugged in
// by the caller.
//
// A DatabaseConnection is bound to one driver session and is not safe for
// concurrent use. Callers that need concurrency acquire one handle per
// goroutine from the ConnectionSource.
package support

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/field"
)

// DatabaseConnection executes parameterized SQL on a single driver session.
//
// Every method takes positional arguments with one descriptor per argument.
// Passing slices of different lengths is a programming error and panics.
// Each method closes every statement and cursor it opened before returning,
// whether it succeeds or fails.
type DatabaseConnection interface {
	// QueryForLong runs a query that must yield exactly one row with one
	// integer column. Zero rows fail with ErrNoResult and more than one row
	// with ErrTooManyResults.
	QueryForLong(ctx context.Context, query string) (int64, error)

	// QueryForLongArgs is QueryForLong with bound arguments.
	QueryForLongArgs(ctx context.Context, query string, args []any, types []*field.Type) (int64, error)

	// Update executes a statement and returns the number of affected rows.
	Update(ctx context.Context, query string, args []any, types []*field.Type) (int64, error)

	// Delete executes a delete statement and returns the number of affected rows.
	Delete(ctx context.Context, query string, args []any, types []*field.Type) (int64, error)

	// Insert executes an insert and returns the number of affected rows.
	// When keys is non-nil, every generated key column of every generated
	// row is passed to keys.AddKey. A statement that generates nothing
	// leaves keys untouched.
	Insert(ctx context.Context, query string, args []any, types []*field.Type, keys KeyHolder) (int64, error)

	// QueryRow runs a query and calls fn on the first row, if any. It
	// returns false when the query produced no row.
	QueryRow(ctx context.Context, query string, args []any, types []*field.Type, fn RowFunc) (bool, error)

	// QueryRows runs a query and calls fn once per row.
	QueryRows(ctx context.Context, query string, args []any, types []*field.Type, fn RowFunc) error
}

// ConnectionSource hands out and reclaims DatabaseConnection handles.
type ConnectionSource interface {
	Acquire(ctx context.Context) (DatabaseConnection, error)
	Release(conn DatabaseConnection) error
}

// RowFunc consumes the row a cursor is positioned on.
type RowFunc func(Results) error

// RowMapper builds one typed value from the current row.
type RowMapper[T any] interface {
	MapRow(r Results) (T, error)
}

// RowMapperFunc adapts a function to RowMapper.
type RowMapperFunc[T any] func(Results) (T, error)

// MapRow implements RowMapper.
func (f RowMapperFunc[T]) MapRow(r Results) (T, error) { return f(r) }
