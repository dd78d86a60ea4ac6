// Package mapper provides the row mappers plugged into query operations:
// Entity builds one struct per row, Scalar reads a single column, and
// Values returns every column of a row.
package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

var errColumnMissing = errors.New("column not in result")

// Entity maps a row onto a struct. Each descriptor reads the column of the
// same name (case-insensitive) and is assigned to the struct field tagged
// `db:"name"`, or to the field whose name matches the column.
//
// Columns without a descriptor are ignored. A descriptor whose column is
// missing from the result is a *support.MetadataError.
type Entity[T any] struct {
	types  []*field.Type
	paths  [][]int
	rt     reflect.Type
	rowPtr bool
}

// NewEntity builds an Entity mapper for T, which must be a struct or a
// pointer to one. Every descriptor must resolve to a field of T.
func NewEntity[T any](types []*field.Type) (*Entity[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	rowPtr := false
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
		rowPtr = true
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type %s is not a struct", rt)
	}

	idx := structIndex(rt)
	paths := make([][]int, len(types))
	for i, ft := range types {
		p, ok := idx[strings.ToLower(ft.ColumnName())]
		if !ok {
			return nil, fmt.Errorf("entity %s has no field for column %q", rt, ft.ColumnName())
		}
		paths[i] = p
	}
	return &Entity[T]{types: types, paths: paths, rt: rt, rowPtr: rowPtr}, nil
}

// MustEntity is NewEntity that panics on error, for package-level mappers.
func MustEntity[T any](types []*field.Type) *Entity[T] {
	m, err := NewEntity[T](types)
	if err != nil {
		panic(err)
	}
	return m
}

// MapRow implements support.RowMapper.
func (m *Entity[T]) MapRow(r support.Results) (T, error) {
	var zero T

	cols, err := r.Columns()
	if err != nil {
		return zero, &support.MetadataError{Err: err}
	}
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		byName[strings.ToLower(c)] = i
	}

	var sink any
	dests := make([]any, len(cols))
	for i := range dests {
		dests[i] = &sink
	}
	positions := make([]int, len(m.types))
	for i, ft := range m.types {
		pos, ok := byName[strings.ToLower(ft.ColumnName())]
		if !ok {
			return zero, &support.MetadataError{Column: ft.ColumnName(), Err: errColumnMissing}
		}
		positions[i] = pos
		dests[pos] = ft.Dest()
	}

	if err := r.Scan(dests...); err != nil {
		return zero, err
	}

	rv := reflect.New(m.rt)
	for i, ft := range m.types {
		v, err := ft.FromDriver(dests[positions[i]])
		if err != nil {
			return zero, fmt.Errorf("column %q: %w", ft.ColumnName(), err)
		}
		if err := setField(rv.Elem().FieldByIndex(m.paths[i]), v); err != nil {
			return zero, fmt.Errorf("column %q: %w", ft.ColumnName(), err)
		}
	}

	if m.rowPtr {
		return rv.Interface().(T), nil
	}
	return rv.Elem().Interface().(T), nil
}

// setField assigns v to fv. Nil leaves the zero value; pointer fields are
// allocated.
func setField(fv reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	if fv.Kind() == reflect.Pointer {
		elem := reflect.New(fv.Type().Elem())
		if err := setField(elem.Elem(), v); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}
	sv := reflect.ValueOf(v)
	switch {
	case sv.Type().AssignableTo(fv.Type()):
		fv.Set(sv)
	case sameFamily(sv.Kind(), fv.Kind()) && sv.Type().ConvertibleTo(fv.Type()):
		fv.Set(sv.Convert(fv.Type()))
	default:
		return fmt.Errorf("cannot assign %T to field of type %s", v, fv.Type())
	}
	return nil
}

// sameFamily limits conversions to numeric widening/narrowing and named
// string or bool types, never number to string.
func sameFamily(a, b reflect.Kind) bool {
	switch {
	case isNumber(a) && isNumber(b):
		return true
	case a == reflect.String && b == reflect.String:
		return true
	case a == reflect.Bool && b == reflect.Bool:
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

var indexCache sync.Map // reflect.Type -> map[string][]int

// structIndex maps lower-case column names to field index paths,
// flattening embedded structs.
func structIndex(rt reflect.Type) map[string][]int {
	if v, ok := indexCache.Load(rt); ok {
		return v.(map[string][]int)
	}
	idx := make(map[string][]int)
	walkFields(rt, nil, idx)
	indexCache.Store(rt, idx)
	return idx
}

func walkFields(rt reflect.Type, parent []int, idx map[string][]int) {
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		path := append(append([]int(nil), parent...), i)

		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
			walkFields(sf.Type, path, idx)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		key := strings.ToLower(name)
		if _, exists := idx[key]; !exists {
			idx[key] = path
		}
	}
}
