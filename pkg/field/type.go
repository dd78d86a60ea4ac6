// Package field describes the columns an entity maps to.
//
// A Type is built once per column of an entity and shared by every
// operation on that entity. It carries the column name, the DataKind that
// selects the binding and reading strategy, nullability, and an optional
// Converter between the domain representation and the driver-native one.
package field

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Type is an immutable field type descriptor.
type Type struct {
	column   string
	kind     DataKind
	nullable bool
	conv     Converter
}

// Option configures a Type at construction.
type Option func(*Type)

// Nullable marks the column as accepting NULL.
func Nullable() Option {
	return func(t *Type) { t.nullable = true }
}

// WithConverter installs a domain conversion applied before binding and
// after reading.
func WithConverter(c Converter) Option {
	return func(t *Type) { t.conv = c }
}

// New creates a descriptor for column with the given kind.
func New(column string, kind DataKind, opts ...Option) *Type {
	t := &Type{column: column, kind: kind}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ColumnName returns the column the descriptor maps.
func (t *Type) ColumnName() string { return t.column }

// Kind returns the declared data kind.
func (t *Type) Kind() DataKind { return t.kind }

// IsNullable reports whether the column accepts NULL.
func (t *Type) IsNullable() bool { return t.nullable }

func (t *Type) String() string {
	return fmt.Sprintf("%s:%s", t.column, t.kind)
}

// ToDriver converts a domain value into the value bound on a statement.
// Nil values, nil pointers and NULL-valued driver.Valuers become the typed
// null of the declared kind.
func (t *Type) ToDriver(v any) (any, error) {
	v, err := unwrap(v)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return t.kind.null(), nil
	}
	if t.conv != nil {
		if v, err = t.conv.ToDriver(v); err != nil {
			return nil, err
		}
		if v == nil {
			return t.kind.null(), nil
		}
	}
	return t.kind.native(v)
}

// Dest allocates a scan destination matching the declared kind.
func (t *Type) Dest() any {
	return t.kind.dest()
}

// FromDriver reads the value held by a destination returned from Dest and
// applies the converter. NULL yields nil.
func (t *Type) FromDriver(dest any) (any, error) {
	v, err := t.kind.read(dest)
	if err != nil || v == nil {
		return nil, err
	}
	if t.conv != nil {
		return t.conv.FromDriver(v)
	}
	return v, nil
}

// unwrap dereferences pointers and resolves driver.Valuer values that are
// not themselves kind-native.
func unwrap(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	v = rv.Interface()
	if valuer, ok := v.(driver.Valuer); ok && !isNativeValuer(v) {
		dv, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKindMismatch, err)
		}
		return dv, nil
	}
	return v, nil
}

// isNativeValuer reports values that implement driver.Valuer but are
// already a kind's native form.
func isNativeValuer(v any) bool {
	_, ok := v.(uuid.UUID)
	return ok
}
