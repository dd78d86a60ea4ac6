// Package sqlconn runs the connection layer on database/sql. A Driver wraps
// one *sql.Conn; a Source hands out connections pinned to single sessions
// of an *sql.DB.
package sqlconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/leapstack-labs/leapdb/pkg/support"
)

// KeyStrategy selects how generated keys are read after an insert.
type KeyStrategy int

const (
	// KeysLastInsertID reads the single id reported by sql.Result.
	KeysLastInsertID KeyStrategy = iota
	// KeysReturning runs inserts with a RETURNING clause as queries and
	// reads the returned columns; the affected count is the number of rows
	// returned. Inserts without the clause are executed and yield no keys.
	KeysReturning
)

// ParseKeyStrategy parses "last_insert_id" or "returning". Empty selects
// KeysLastInsertID.
func ParseKeyStrategy(s string) (KeyStrategy, error) {
	switch s {
	case "", "last_insert_id":
		return KeysLastInsertID, nil
	case "returning":
		return KeysReturning, nil
	}
	return 0, fmt.Errorf("unknown key strategy %q (want last_insert_id or returning)", s)
}

// DefaultKeyColumn names the key reported through LastInsertId.
const DefaultKeyColumn = "id"

var (
	errNotKeyStatement = errors.New("statement was not prepared for generated keys")
	errNotExecuted     = errors.New("statement has not been executed")
	errNoReturning     = errors.New("returning strategy requires a RETURNING clause that yields columns")
)

type options struct {
	keyColumn   string
	keys        KeyStrategy
	lastIDQuery string
}

// Option configures a Driver.
type Option func(*options)

// WithKeyColumn sets the column name reported for LastInsertId keys.
func WithKeyColumn(name string) Option {
	return func(o *options) {
		if name != "" {
			o.keyColumn = name
		}
	}
}

// WithLastIDQuery sets a query returning the session's current last insert
// id. It runs before each key-collecting insert; when the id reported
// afterwards is unchanged the insert generated no key. Drivers whose
// LastInsertId survives inserts into tables without generated keys (SQLite's
// last_insert_rowid) need this to avoid reporting a previous insert's key.
func WithLastIDQuery(query string) Option {
	return func(o *options) { o.lastIDQuery = query }
}

// WithKeyStrategy sets how generated keys are read.
func WithKeyStrategy(k KeyStrategy) Option {
	return func(o *options) { o.keys = k }
}

func newOptions(opts []Option) options {
	o := options{keyColumn: DefaultKeyColumn}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Driver implements support.Driver on one database/sql session.
type Driver struct {
	conn *sql.Conn
	opts options
}

var _ support.Driver = (*Driver)(nil)

// NewDriver returns a Driver preparing statements on conn.
func NewDriver(conn *sql.Conn, opts ...Option) *Driver {
	return &Driver{conn: conn, opts: newOptions(opts)}
}

// Prepare implements support.Driver.
func (d *Driver) Prepare(ctx context.Context, query string, mode support.StatementMode) (support.Statement, error) {
	stmt, err := d.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &statement{conn: d.conn, stmt: stmt, query: query, mode: mode, opts: d.opts}, nil
}

type statement struct {
	conn  *sql.Conn
	stmt  *sql.Stmt
	query string
	mode  support.StatementMode
	opts  options

	executed bool
	lastID   int64
	idErr    error
	keys     *support.StaticCursor
}

func (s *statement) ExecUpdate(ctx context.Context, args []any) (int64, error) {
	if s.mode != support.ModeInsertKeys {
		return s.exec(ctx, args)
	}
	if s.opts.keys == KeysReturning {
		if hasReturning(s.query) {
			return s.execReturning(ctx, args)
		}
		n, err := s.exec(ctx, args)
		if err == nil {
			s.keys = support.NewStaticCursor(nil, nil)
		}
		return n, err
	}
	return s.execLastID(ctx, args)
}

func (s *statement) exec(ctx context.Context, args []any) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	s.executed = true
	return n, nil
}

// execLastID executes the insert and records the id it generated. An
// insert that affects no rows, or leaves the session's last insert id
// where it was, generates no key.
func (s *statement) execLastID(ctx context.Context, args []any) (int64, error) {
	var before sql.NullInt64
	if s.opts.lastIDQuery != "" {
		if err := s.conn.QueryRowContext(ctx, s.opts.lastIDQuery).Scan(&before); err != nil {
			return 0, fmt.Errorf("failed to read last insert id: %w", err)
		}
	}

	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	s.executed = true
	if n == 0 {
		return 0, nil
	}

	s.lastID, s.idErr = res.LastInsertId()
	if s.idErr == nil && before.Valid && s.lastID == before.Int64 {
		s.lastID = 0
	}
	return n, nil
}

// execReturning runs the insert as a query and buffers the rows it returns.
func (s *statement) execReturning(ctx context.Context, args []any) (n int64, err error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, &support.MetadataError{Query: s.query, Err: errNoReturning}
	}
	var buf [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		dests := make([]any, len(cols))
		for i := range vals {
			dests[i] = &vals[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return 0, err
		}
		buf = append(buf, vals)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	s.keys = support.NewStaticCursor(cols, buf)
	s.executed = true
	return int64(len(buf)), nil
}

var (
	sqlNoise        = regexp.MustCompile(`(?s)'(?:[^']|'')*'|"(?:[^"]|"")*"|--[^\n]*|/\*.*?\*/`)
	returningClause = regexp.MustCompile(`(?i)\breturning\b`)
)

// hasReturning reports whether query carries a RETURNING clause outside
// literals, quoted identifiers and comments.
func hasReturning(query string) bool {
	return returningClause.MatchString(sqlNoise.ReplaceAllString(query, " "))
}

func (s *statement) ExecQuery(ctx context.Context, args []any) (support.Cursor, error) {
	//nolint:rowserrcheck // the caller checks Err after iterating
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *statement) GeneratedKeys(context.Context) (support.Cursor, error) {
	if s.mode != support.ModeInsertKeys {
		return nil, errNotKeyStatement
	}
	if !s.executed {
		return nil, errNotExecuted
	}
	if s.keys != nil {
		return s.keys, nil
	}
	if s.idErr != nil {
		return nil, s.idErr
	}
	if s.lastID == 0 {
		return support.NewStaticCursor([]string{s.opts.keyColumn}, nil), nil
	}
	return support.NewStaticCursor([]string{s.opts.keyColumn}, [][]any{{s.lastID}}), nil
}

func (s *statement) Close() error {
	return s.stmt.Close()
}
