package support

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/field"
)

// QueryForOne maps the first row of a query with m. The boolean result is
// false when the query returned no row, which is distinct from a row whose
// mapped value happens to be the zero value.
func QueryForOne[T any](ctx context.Context, conn DatabaseConnection, query string, args []any, types []*field.Type, m RowMapper[T]) (T, bool, error) {
	var out T
	found, err := conn.QueryRow(ctx, query, args, types, func(r Results) error {
		v, err := m.MapRow(r)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return out, true, nil
}

// QueryForAll maps every row of a query with m.
func QueryForAll[T any](ctx context.Context, conn DatabaseConnection, query string, args []any, types []*field.Type, m RowMapper[T]) ([]T, error) {
	var out []T
	err := conn.QueryRows(ctx, query, args, types, func(r Results) error {
		v, err := m.MapRow(r)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
