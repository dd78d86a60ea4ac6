package dbconn

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/support"
)

// collectKeys reads the generated-key cursor of stmt and passes every
// column of every row to keys. An empty cursor adds nothing.
func collectKeys(ctx context.Context, stmt support.Statement, query string, keys support.KeyHolder) (err error) {
	cur, err := stmt.GeneratedKeys(ctx)
	if err != nil {
		return &support.MetadataError{Query: query, Err: err}
	}
	defer closeCursor(cur, query, &err)

	cols, err := cur.Columns()
	if err != nil {
		return &support.MetadataError{Query: query, Err: err}
	}

	vals := make([]any, len(cols))
	dests := make([]any, len(cols))
	for i := range vals {
		dests[i] = &vals[i]
	}
	for cur.Next() {
		if err := cur.Scan(dests...); err != nil {
			return &support.DriverError{Op: "scan", Query: query, Err: err}
		}
		for i, col := range cols {
			keys.AddKey(col, vals[i])
		}
	}
	if err := cur.Err(); err != nil {
		return &support.DriverError{Op: "next", Query: query, Err: err}
	}
	return nil
}
