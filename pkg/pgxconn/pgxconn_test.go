package pgxconn

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/mapper"
	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPool connects to the database named by LEAPDB_TEST_POSTGRES_DSN and
// creates a scratch table. It returns the pool and a function that
// substitutes the table name for {t} in a query.
func newPool(t *testing.T) (*pgxpool.Pool, func(string) string) {
	t.Helper()
	dsn := os.Getenv("LEAPDB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEAPDB_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	table := "leapdb_" + uuid.NewString()[:8]
	_, err = pool.Exec(ctx, `CREATE TABLE `+table+` (
		id BIGSERIAL PRIMARY KEY,
		ref UUID,
		name TEXT NOT NULL
	)`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), "DROP TABLE "+table) })

	return pool, func(q string) string { return strings.ReplaceAll(q, "{t}", table) }
}

func TestPostgres_Scenarios(t *testing.T) {
	pool, q := newPool(t)
	src := NewSource(pool, testutil.NewTestLogger(t))
	ctx := context.Background()

	conn, err := src.Acquire(ctx)
	require.NoError(t, err)
	defer func() { assert.NoError(t, src.Release(conn)) }()

	nameType := field.New("name", field.KindString)
	refType := field.New("ref", field.KindUUID, field.Nullable())

	_, err = conn.QueryForLong(ctx, q("SELECT id FROM {t}"))
	assert.ErrorIs(t, err, support.ErrNoResult)

	var keys support.Keys
	n, err := conn.Insert(ctx, q("INSERT INTO {t} (ref, name) VALUES ($1, $2) RETURNING id"),
		[]any{uuid.New(), "ann"}, []*field.Type{refType, nameType}, &keys)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Equal(t, 1, keys.Len())
	id, ok := keys.Int64("id")
	require.True(t, ok)

	got, err := conn.QueryForLongArgs(ctx, q("SELECT id FROM {t} WHERE name = $1"), []any{"ann"}, []*field.Type{nameType})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	calls := 0
	n, err = conn.Insert(ctx, q("INSERT INTO {t} (ref, name) VALUES ($1, $2)"),
		[]any{nil, "ann"}, []*field.Type{refType, nameType}, support.KeyHolderFunc(func(string, any) { calls++ }))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, calls, "no RETURNING, no keys")

	_, err = conn.QueryForLongArgs(ctx, q("SELECT id FROM {t} WHERE name = $1"), []any{"ann"}, []*field.Type{nameType})
	assert.ErrorIs(t, err, support.ErrTooManyResults)

	row, found, err := support.QueryForOne[[]any](ctx, conn, q("SELECT name, ref FROM {t} WHERE ref IS NULL"), nil, nil,
		mapper.NewValues(nameType, refType))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []any{"ann", nil}, row)

	n, err = conn.Update(ctx, q("UPDATE {t} SET name = $1"), []any{"bob"}, []*field.Type{nameType})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = conn.Delete(ctx, q("DELETE FROM {t}"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostgres_ReleaseForeignConnection(t *testing.T) {
	src := NewSource(nil, nil)
	err := src.Release(&struct{ support.DatabaseConnection }{})
	assert.ErrorContains(t, err, "not acquired")
}

func TestStatementName(t *testing.T) {
	a, b := statementName(), statementName()
	assert.True(t, strings.HasPrefix(a, "leapdb_"))
	assert.NotEqual(t, a, b)
}
