package mapper

import (
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Scalar maps a single-column row to one value of type T using the
// descriptor's typed accessor. NULL maps to the zero value of T.
type Scalar[T any] struct {
	ft *field.Type
}

// NewScalar returns a Scalar mapper reading its column as ft declares.
func NewScalar[T any](ft *field.Type) *Scalar[T] {
	return &Scalar[T]{ft: ft}
}

var longMapper = NewScalar[int64](field.New("", field.KindLong))

// Long returns the mapper used for long-valued aggregate queries.
func Long() *Scalar[int64] { return longMapper }

// MapRow implements support.RowMapper.
func (m *Scalar[T]) MapRow(r support.Results) (T, error) {
	var zero T

	cols, err := r.Columns()
	if err != nil {
		return zero, &support.MetadataError{Err: err}
	}
	if len(cols) != 1 {
		return zero, &support.MetadataError{Err: fmt.Errorf("expected exactly 1 column, got %d", len(cols))}
	}

	dest := m.ft.Dest()
	if err := r.Scan(dest); err != nil {
		return zero, err
	}
	v, err := m.ft.FromDriver(dest)
	if err != nil || v == nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, &support.MetadataError{Column: cols[0], Err: fmt.Errorf("%s column reads as %T, not %T", m.ft.Kind(), v, zero)}
	}
	return out, nil
}
