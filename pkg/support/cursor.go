package support

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
)

var errCursorClosed = errors.New("cursor is closed")

// StaticCursor is a Cursor over rows already held in memory. Drivers use it
// for generated keys that are read eagerly.
type StaticCursor struct {
	columns []string
	rows    [][]any
	pos     int
	closed  bool
}

// NewStaticCursor returns a cursor over rows, each holding one value per
// column.
func NewStaticCursor(columns []string, rows [][]any) *StaticCursor {
	return &StaticCursor{columns: columns, rows: rows, pos: -1}
}

// Columns implements Cursor.
func (c *StaticCursor) Columns() ([]string, error) {
	if c.closed {
		return nil, errCursorClosed
	}
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out, nil
}

// Next implements Cursor.
func (c *StaticCursor) Next() bool {
	if c.closed || c.pos+1 >= len(c.rows) {
		c.pos = len(c.rows)
		return false
	}
	c.pos++
	return true
}

// Scan implements Cursor. Destinations may be *any, sql.Scanner, or a
// pointer to a type the value converts to.
func (c *StaticCursor) Scan(dest ...any) error {
	if c.closed {
		return errCursorClosed
	}
	if c.pos < 0 || c.pos >= len(c.rows) {
		return errors.New("scan called without a current row")
	}
	row := c.rows[c.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

// NextResultSet implements Cursor. A static cursor has one result set.
func (c *StaticCursor) NextResultSet() bool { return false }

// Err implements Cursor.
func (c *StaticCursor) Err() error { return nil }

// Close implements Cursor.
func (c *StaticCursor) Close() error {
	c.closed = true
	return nil
}

func assign(dest, v any) error {
	switch d := dest.(type) {
	case *any:
		*d = v
		return nil
	case sql.Scanner:
		return d.Scan(v)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a non-nil pointer", dest)
	}
	target := dv.Elem()
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	sv := reflect.ValueOf(v)
	switch {
	case sv.Type().AssignableTo(target.Type()):
		target.Set(sv)
	case sv.Type().ConvertibleTo(target.Type()) && sv.Kind() != reflect.String:
		target.Set(sv.Convert(target.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", v, target.Type())
	}
	return nil
}
