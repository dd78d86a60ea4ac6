package support

import "context"

// StatementMode tells the driver how a statement will be executed.
type StatementMode int

const (
	// ModeUpdate prepares a statement run for its affected-row count.
	ModeUpdate StatementMode = iota
	// ModeInsertKeys prepares an insert whose generated keys will be read.
	ModeInsertKeys
	// ModeQuery prepares a forward-only, read-only query.
	ModeQuery
)

func (m StatementMode) String() string {
	switch m {
	case ModeUpdate:
		return "update"
	case ModeInsertKeys:
		return "insert-keys"
	case ModeQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Driver is the downstream boundary: one driver session able to prepare
// statements.
type Driver interface {
	Prepare(ctx context.Context, query string, mode StatementMode) (Statement, error)
}

// Statement is a prepared statement. It is owned by the operation that
// prepared it and must be closed before that operation returns.
type Statement interface {
	// ExecUpdate executes the statement with driver-native arguments and
	// returns the affected-row count.
	ExecUpdate(ctx context.Context, args []any) (int64, error)

	// ExecQuery executes the statement and returns a cursor over its rows.
	ExecQuery(ctx context.Context, args []any) (Cursor, error)

	// GeneratedKeys returns a cursor over the keys generated by the most
	// recent ExecUpdate. The statement must have been prepared with
	// ModeInsertKeys.
	GeneratedKeys(ctx context.Context) (Cursor, error)

	Close() error
}

// Results is the view of a cursor's current row given to row mappers.
type Results interface {
	// Columns returns the result column names in order.
	Columns() ([]string, error)
	// Scan copies the current row into dest, one destination per column.
	Scan(dest ...any) error
}

// Cursor is a forward-only iterator over result rows. *sql.Rows
// satisfies it.
type Cursor interface {
	Results
	Next() bool
	NextResultSet() bool
	Err() error
	Close() error
}
