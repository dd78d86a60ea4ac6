package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database in a temp file, runs schema against
// it, and closes it when the test ends. A file is used rather than
// :memory: so every pooled session sees the same database.
func OpenSQLite(t testing.TB, schema ...string) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range schema {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err, "schema: %s", stmt)
	}
	return db
}
