package mapper

import (
	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Values maps a row to its column values in result order. Column i is read
// through the descriptor at position i; columns past the descriptors are
// returned as the driver produced them, with []byte turned into string.
type Values struct {
	types []*field.Type
}

// NewValues returns a Values mapper with positional descriptors.
func NewValues(types ...*field.Type) *Values {
	return &Values{types: types}
}

// MapRow implements support.RowMapper.
func (m *Values) MapRow(r support.Results) ([]any, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, &support.MetadataError{Err: err}
	}

	dests := make([]any, len(cols))
	for i := range dests {
		if i < len(m.types) && m.types[i] != nil {
			dests[i] = m.types[i].Dest()
		} else {
			dests[i] = new(any)
		}
	}
	if err := r.Scan(dests...); err != nil {
		return nil, err
	}

	out := make([]any, len(cols))
	for i, d := range dests {
		if i < len(m.types) && m.types[i] != nil {
			v, err := m.types[i].FromDriver(d)
			if err != nil {
				return nil, &support.MetadataError{Column: cols[i], Err: err}
			}
			out[i] = v
			continue
		}
		v := *(d.(*any))
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[i] = v
	}
	return out, nil
}
