package sqlconn

import (
	"context"
	"fmt"
	"testing"

	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/mapper"
	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const usersSchema = `CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT
)`

var (
	nameType  = field.New("name", field.KindString)
	emailType = field.New("email", field.KindString, field.Nullable())
)

type user struct {
	ID    int64   `db:"id"`
	Name  string  `db:"name"`
	Email *string `db:"email"`
}

var userMapper = mapper.MustEntity[user]([]*field.Type{
	field.New("id", field.KindLong),
	nameType,
	emailType,
})

func acquire(t *testing.T, src *Source) support.DatabaseConnection {
	t.Helper()
	conn, err := src.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, src.Release(conn)) })
	return conn
}

func TestSQLite_Scenarios(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSQLite(t, usersSchema)
	conn := acquire(t, NewSource(db, testutil.NewTestLogger(t)))

	_, err := conn.QueryForLong(ctx, "SELECT id FROM users")
	assert.ErrorIs(t, err, support.ErrNoResult, "empty table")

	const insert = "INSERT INTO users (name, email) VALUES (?, ?)"
	var keys support.Keys
	n, err := conn.Insert(ctx, insert, []any{"ann", nil}, []*field.Type{nameType, emailType}, &keys)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Equal(t, 1, keys.Len(), "one key for one row")
	id, ok := keys.Int64("id")
	require.True(t, ok)

	got, err := conn.QueryForLongArgs(ctx, "SELECT id FROM users WHERE name = ?", []any{"ann"}, []*field.Type{nameType})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = conn.Insert(ctx, insert, []any{"ann", "ann@example.com"}, []*field.Type{nameType, emailType}, nil)
	require.NoError(t, err)

	_, err = conn.QueryForLongArgs(ctx, "SELECT id FROM users WHERE name = ?", []any{"ann"}, []*field.Type{nameType})
	assert.ErrorIs(t, err, support.ErrTooManyResults)

	count, err := conn.QueryForLong(ctx, "SELECT COUNT(*) FROM users WHERE email IS NULL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "nil bound as typed null")

	n, err = conn.Update(ctx, "UPDATE users SET email = ? WHERE name = ?", []any{"x@example.com", "ann"}, []*field.Type{emailType, nameType})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = conn.Update(ctx, "UPDATE users SET email = ? WHERE name = ?", []any{"y@example.com", "nobody"}, []*field.Type{emailType, nameType})
	require.NoError(t, err)
	assert.Zero(t, n)

	u, found, err := support.QueryForOne[user](ctx, conn, "SELECT id, name, email FROM users WHERE id = ?", []any{id}, []*field.Type{field.New("id", field.KindLong)}, userMapper)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ann", u.Name)
	require.NotNil(t, u.Email)
	assert.Equal(t, "x@example.com", *u.Email)

	_, found, err = support.QueryForOne[user](ctx, conn, "SELECT id, name, email FROM users WHERE id = ?", []any{-1}, []*field.Type{field.New("id", field.KindLong)}, userMapper)
	require.NoError(t, err)
	assert.False(t, found)

	all, err := support.QueryForAll[user](ctx, conn, "SELECT id, name, email FROM users ORDER BY id", nil, nil, userMapper)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err = conn.Delete(ctx, "DELETE FROM users", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLite_NoGeneratedKey(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSQLite(t, usersSchema, "CREATE TABLE tags (name TEXT PRIMARY KEY) WITHOUT ROWID")
	conn := acquire(t, NewSource(db, nil, WithLastIDQuery("SELECT last_insert_rowid()")))

	// sets last_insert_rowid on this session
	var first support.Keys
	_, err := conn.Insert(ctx, "INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "ann"},
		[]*field.Type{field.New("id", field.KindLong), nameType}, &first)
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	tests := []struct {
		name  string
		query string
		args  []any
		want  int64
	}{
		{name: "table without rowid", query: "INSERT INTO tags (name) VALUES (?)", args: []any{"go"}, want: 1},
		{name: "ignored insert", query: "INSERT OR IGNORE INTO users (id, name) VALUES (1, ?)", args: []any{"bob"}, want: 0},
		{name: "insert selecting nothing", query: "INSERT INTO users (name) SELECT name FROM users WHERE name = ?", args: []any{"nobody"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			n, err := conn.Insert(ctx, tt.query, tt.args, []*field.Type{nameType},
				support.KeyHolderFunc(func(string, any) { calls++ }))
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Zero(t, calls)
		})
	}

	var next support.Keys
	_, err = conn.Insert(ctx, "INSERT INTO users (name) VALUES (?)", []any{"cy"}, []*field.Type{nameType}, &next)
	require.NoError(t, err)
	id, ok := next.Int64("id")
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestSQLite_Returning(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSQLite(t, usersSchema)
	conn := acquire(t, NewSource(db, nil, WithKeyStrategy(KeysReturning)))

	var keys support.Keys
	n, err := conn.Insert(ctx, "INSERT INTO users (name) VALUES (?), (?) RETURNING id, name", []any{"ann", "bob"},
		[]*field.Type{nameType, nameType}, &keys)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Equal(t, 4, keys.Len())
	name, _ := keys.Get("name")
	assert.Equal(t, "ann", name)

	tests := []struct {
		name  string
		query string
	}{
		{name: "without clause", query: "INSERT INTO users (name) VALUES (?)"},
		{name: "keyword in literal", query: "INSERT INTO users (name, email) VALUES (?, 'returning@example.com')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys support.Keys
			n, err := conn.Insert(ctx, tt.query, []any{"cy"}, []*field.Type{nameType}, &keys)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n, "affected count of an executed insert")
			assert.Zero(t, keys.Len())
		})
	}

	count, err := conn.QueryForLong(ctx, "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestSource_ConcurrentHandles(t *testing.T) {
	db := testutil.OpenSQLite(t, usersSchema)
	src := NewSource(db, testutil.NewTestLogger(t))

	g, ctx := errgroup.WithContext(context.Background())
	for i := range 4 {
		g.Go(func() error {
			conn, err := src.Acquire(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = src.Release(conn) }()

			var keys support.Keys
			if _, err := conn.Insert(ctx, "INSERT INTO users (name) VALUES (?)", []any{fmt.Sprintf("user-%d", i)}, []*field.Type{nameType}, &keys); err != nil {
				return err
			}
			if keys.Len() != 1 {
				return fmt.Errorf("got %d keys, want 1", keys.Len())
			}
			_, err = conn.QueryForLong(ctx, "SELECT COUNT(*) FROM users")
			return err
		})
	}
	require.NoError(t, g.Wait())

	conn := acquire(t, src)
	count, err := conn.QueryForLong(context.Background(), "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestSource_ReleaseForeignConnection(t *testing.T) {
	src := NewSource(testutil.OpenSQLite(t), nil)
	err := src.Release(&struct{ support.DatabaseConnection }{})
	assert.ErrorContains(t, err, "not acquired")
}
