package support

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/field"
)

var errNoFieldType = errors.New("no field type for argument")

// BindArgs converts domain arguments into driver-native values, in order,
// using the descriptor at the same position. Nil arguments become the typed
// null of their descriptor's kind.
//
// It panics when args and types differ in length.
func BindArgs(args []any, types []*field.Type) ([]any, error) {
	if len(args) != len(types) {
		panic(fmt.Sprintf("support: %d arguments but %d field types", len(args), len(types)))
	}
	if len(args) == 0 {
		return nil, nil
	}
	bound := make([]any, len(args))
	for i, arg := range args {
		ft := types[i]
		if ft == nil {
			return nil, &BindingError{Position: i + 1, Err: errNoFieldType}
		}
		v, err := ft.ToDriver(arg)
		if err != nil {
			return nil, &BindingError{Position: i + 1, Kind: ft.Kind(), Err: err}
		}
		bound[i] = v
	}
	return bound, nil
}
