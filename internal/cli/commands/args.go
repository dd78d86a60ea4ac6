package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/field"
)

// NullArg is the command-line spelling of a NULL argument.
const NullArg = `\N`

// parseKinds parses a comma-separated list of data kinds.
func parseKinds(list string) ([]field.DataKind, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	kinds := make([]field.DataKind, len(parts))
	for i, p := range parts {
		k, err := field.ParseKind(p)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}
	return kinds, nil
}

// parseArgs converts positional SQL arguments into values with matching
// descriptors. Argument i takes kind i from list; arguments past the list
// are strings.
func parseArgs(raw []string, list string) ([]any, []*field.Type, error) {
	kinds, err := parseKinds(list)
	if err != nil {
		return nil, nil, err
	}
	if len(kinds) > len(raw) {
		return nil, nil, fmt.Errorf("%d types given for %d arguments", len(kinds), len(raw))
	}
	if len(raw) == 0 {
		return nil, nil, nil
	}

	args := make([]any, len(raw))
	types := make([]*field.Type, len(raw))
	for i, s := range raw {
		kind := field.KindString
		if i < len(kinds) {
			kind = kinds[i]
		}
		name := fmt.Sprintf("$%d", i+1)
		if s == NullArg {
			types[i] = field.New(name, kind, field.Nullable())
			continue
		}
		v, err := field.ParseValue(kind, s)
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = v
		types[i] = field.New(name, kind)
	}
	return args, types, nil
}

// resultTypes builds positional descriptors for result columns.
func resultTypes(list string) ([]*field.Type, error) {
	kinds, err := parseKinds(list)
	if err != nil {
		return nil, err
	}
	types := make([]*field.Type, len(kinds))
	for i, k := range kinds {
		types[i] = field.New("", k, field.Nullable())
	}
	return types, nil
}
