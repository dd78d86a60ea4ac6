package dbconn

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/mapper"
	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver hands out fakeStatements and remembers them so tests can
// check they were closed.
type fakeDriver struct {
	prepareErr error
	stmt       fakeStatement
	prepared   []*fakeStatement
}

func (d *fakeDriver) Prepare(_ context.Context, _ string, mode support.StatementMode) (support.Statement, error) {
	if d.prepareErr != nil {
		return nil, d.prepareErr
	}
	s := d.stmt
	s.mode = mode
	d.prepared = append(d.prepared, &s)
	return &s, nil
}

func (d *fakeDriver) last() *fakeStatement { return d.prepared[len(d.prepared)-1] }

type fakeStatement struct {
	mode     support.StatementMode
	affected int64
	execErr  error
	closeErr error
	cursor   *fakeCursor
	keys     *fakeCursor
	keysErr  error

	args   []any
	closed int
}

func (s *fakeStatement) ExecUpdate(_ context.Context, args []any) (int64, error) {
	s.args = args
	return s.affected, s.execErr
}

func (s *fakeStatement) ExecQuery(_ context.Context, args []any) (support.Cursor, error) {
	s.args = args
	if s.execErr != nil {
		return nil, s.execErr
	}
	return s.cursor, nil
}

func (s *fakeStatement) GeneratedKeys(context.Context) (support.Cursor, error) {
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	return s.keys, nil
}

func (s *fakeStatement) Close() error {
	s.closed++
	return s.closeErr
}

// fakeCursor wraps a StaticCursor with extra result sets and failure hooks.
type fakeCursor struct {
	*support.StaticCursor
	extraSets int
	drained   int
	err       error
	colsErr   error
	closed    int
}

func newCursor(cols []string, rows ...[]any) *fakeCursor {
	return &fakeCursor{StaticCursor: support.NewStaticCursor(cols, rows)}
}

func (c *fakeCursor) Columns() ([]string, error) {
	if c.colsErr != nil {
		return nil, c.colsErr
	}
	return c.StaticCursor.Columns()
}

func (c *fakeCursor) NextResultSet() bool {
	if c.drained < c.extraSets {
		c.drained++
		return true
	}
	return false
}

func (c *fakeCursor) Err() error { return c.err }

func (c *fakeCursor) Close() error {
	c.closed++
	return c.StaticCursor.Close()
}

var longType = []*field.Type{field.New("id", field.KindLong)}

func TestConnection_QueryForLong(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cursor  *fakeCursor
		want    int64
		wantErr error
	}{
		{name: "one row", cursor: newCursor([]string{"count"}, []any{int64(3)}), want: 3},
		{name: "null is zero", cursor: newCursor([]string{"count"}, []any{nil}), want: 0},
		{name: "no row", cursor: newCursor([]string{"count"}), wantErr: support.ErrNoResult},
		{name: "two rows", cursor: newCursor([]string{"id"}, []any{int64(1)}, []any{int64(1)}), wantErr: support.ErrTooManyResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := &fakeDriver{stmt: fakeStatement{cursor: tt.cursor}}

			got, err := New(drv).QueryForLong(ctx, "select count(*) from foo")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var cardErr *support.CardinalityError
				require.ErrorAs(t, err, &cardErr)
				assert.Equal(t, "select count(*) from foo", cardErr.Query)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			stmt := drv.last()
			assert.Equal(t, support.ModeQuery, stmt.mode)
			assert.Equal(t, 1, stmt.closed, "statement closed once")
			assert.Equal(t, 1, tt.cursor.closed, "cursor closed once")
		})
	}
}

func TestConnection_QueryForLongArgs(t *testing.T) {
	cur := newCursor([]string{"id"}, []any{int64(9)})
	drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

	got, err := New(drv).QueryForLongArgs(context.Background(), "select id from foo where id = ?", []any{9}, longType)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)
	assert.Equal(t, []any{int64(9)}, drv.last().args)
}

func TestConnection_QueryForLongWrongShape(t *testing.T) {
	cur := newCursor([]string{"a", "b"}, []any{int64(1), int64(2)})
	drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

	_, err := New(drv).QueryForLong(context.Background(), "select a, b from foo")
	var metaErr *support.MetadataError
	require.ErrorAs(t, err, &metaErr)
	assert.Equal(t, "select a, b from foo", metaErr.Query)
	assert.Equal(t, 1, drv.last().closed)
}

func TestConnection_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("affected rows", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{affected: 4}}

		n, err := New(drv).Update(ctx, "update foo set name = ?", []any{"x"}, []*field.Type{field.New("name", field.KindString)})
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.Equal(t, support.ModeUpdate, drv.last().mode)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("delete uses update path", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{affected: 2}}

		n, err := New(drv).Delete(ctx, "delete from foo", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, support.ModeUpdate, drv.last().mode)
	})

	t.Run("exec failure still closes", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{execErr: assert.AnError}}

		_, err := New(drv).Update(ctx, "update foo set x = 1", nil, nil)
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "exec", drvErr.Op)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("binding failure still closes", func(t *testing.T) {
		drv := &fakeDriver{}

		_, err := New(drv).Update(ctx, "update foo set id = ?", []any{"abc"}, longType)
		var bindErr *support.BindingError
		require.ErrorAs(t, err, &bindErr)
		assert.Equal(t, 1, bindErr.Position)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("prepare failure", func(t *testing.T) {
		drv := &fakeDriver{prepareErr: assert.AnError}

		_, err := New(drv).Update(ctx, "update foo set x = 1", nil, nil)
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "prepare", drvErr.Op)
		assert.Empty(t, drv.prepared)
	})

	t.Run("close failure reported", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{affected: 1, closeErr: assert.AnError}}

		_, err := New(drv).Update(ctx, "update foo set x = 1", nil, nil)
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "close", drvErr.Op)
	})

	t.Run("close failure does not mask exec failure", func(t *testing.T) {
		cause := errors.New("exec boom")
		drv := &fakeDriver{stmt: fakeStatement{execErr: cause, closeErr: assert.AnError}}

		_, err := New(drv).Update(ctx, "update foo set x = 1", nil, nil)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, assert.AnError)
	})
}

func TestConnection_BindLengthMismatchPanics(t *testing.T) {
	drv := &fakeDriver{}
	assert.Panics(t, func() {
		_, _ = New(drv).Update(context.Background(), "update foo set id = ?", []any{1, 2}, longType)
	})
}

func TestConnection_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("one key per row", func(t *testing.T) {
		keyCur := newCursor([]string{"id", "version"}, []any{int64(10), int64(1)}, []any{int64(11), int64(1)})
		drv := &fakeDriver{stmt: fakeStatement{affected: 2, keys: keyCur}}
		var keys support.Keys

		n, err := New(drv).Insert(ctx, "insert into foo (name) values (?), (?)", []any{"a", "b"},
			[]*field.Type{field.New("name", field.KindString), field.New("name", field.KindString)}, &keys)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, []support.Key{
			{Column: "id", Value: int64(10)},
			{Column: "version", Value: int64(1)},
			{Column: "id", Value: int64(11)},
			{Column: "version", Value: int64(1)},
		}, keys.All())
		assert.Equal(t, support.ModeInsertKeys, drv.last().mode)
		assert.Equal(t, 1, drv.last().closed)
		assert.Equal(t, 1, keyCur.closed)
	})

	t.Run("no generated keys", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{affected: 1, keys: newCursor([]string{"id"})}}
		calls := 0

		n, err := New(drv).Insert(ctx, "insert into foo default values", nil, nil,
			support.KeyHolderFunc(func(string, any) { calls++ }))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Zero(t, calls)
	})

	t.Run("keys not requested", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{affected: 1}}

		n, err := New(drv).Insert(ctx, "insert into foo default values", nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, support.ModeUpdate, drv.last().mode)
	})

	t.Run("key metadata unavailable", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{affected: 1, keysErr: assert.AnError}}

		_, err := New(drv).Insert(ctx, "insert into foo default values", nil, nil, &support.Keys{})
		var metaErr *support.MetadataError
		require.ErrorAs(t, err, &metaErr)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("key columns unavailable", func(t *testing.T) {
		keyCur := newCursor([]string{"id"}, []any{int64(1)})
		keyCur.colsErr = assert.AnError
		drv := &fakeDriver{stmt: fakeStatement{affected: 1, keys: keyCur}}

		_, err := New(drv).Insert(ctx, "insert into foo default values", nil, nil, &support.Keys{})
		var metaErr *support.MetadataError
		require.ErrorAs(t, err, &metaErr)
		assert.Equal(t, 1, keyCur.closed)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("exec failure skips keys", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{execErr: assert.AnError, keysErr: errors.New("must not be read")}}

		_, err := New(drv).Insert(ctx, "insert into foo default values", nil, nil, &support.Keys{})
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "exec", drvErr.Op)
		assert.Equal(t, 1, drv.last().closed)
	})
}

func TestConnection_QueryRow(t *testing.T) {
	ctx := context.Background()
	m := mapper.NewValues()

	t.Run("found and drained", func(t *testing.T) {
		cur := newCursor([]string{"id", "name"}, []any{int64(1), "a"}, []any{int64(2), "b"})
		cur.extraSets = 2
		drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

		got, found, err := support.QueryForOne[[]any](ctx, New(drv), "select id, name from foo", nil, nil, m)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []any{int64(1), "a"}, got)
		assert.Equal(t, 2, cur.drained)
		assert.Equal(t, 1, cur.closed)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("no row", func(t *testing.T) {
		cur := newCursor([]string{"id"})
		drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

		got, found, err := support.QueryForOne[[]any](ctx, New(drv), "select id from foo", nil, nil, m)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("null row is found", func(t *testing.T) {
		cur := newCursor([]string{"name"}, []any{nil})
		drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

		got, found, err := support.QueryForOne[int64](ctx, New(drv), "select max(id) from foo", nil, nil, mapper.Long())
		require.NoError(t, err)
		assert.True(t, found)
		assert.Zero(t, got)
	})

	t.Run("mapper failure is a scan error", func(t *testing.T) {
		cur := newCursor([]string{"id"}, []any{"x"})
		drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

		_, _, err := support.QueryForOne[int64](ctx, New(drv), "select id from foo", nil, nil, mapper.Long())
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "scan", drvErr.Op)
		assert.Equal(t, 1, cur.closed)
		assert.Equal(t, 1, drv.last().closed)
	})

	t.Run("cursor error after drain", func(t *testing.T) {
		cur := newCursor([]string{"id"}, []any{int64(1)})
		cur.err = assert.AnError
		drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

		_, err := New(drv).QueryRow(ctx, "select id from foo", nil, nil, func(support.Results) error { return nil })
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "more_results", drvErr.Op)
	})

	t.Run("query failure closes statement", func(t *testing.T) {
		drv := &fakeDriver{stmt: fakeStatement{execErr: assert.AnError}}

		_, err := New(drv).QueryRow(ctx, "select id from foo", nil, nil, func(support.Results) error { return nil })
		var drvErr *support.DriverError
		require.ErrorAs(t, err, &drvErr)
		assert.Equal(t, "query", drvErr.Op)
		assert.Equal(t, 1, drv.last().closed)
	})
}

func TestConnection_QueryRows(t *testing.T) {
	cur := newCursor([]string{"id"}, []any{int64(1)}, []any{int64(2)}, []any{nil})
	drv := &fakeDriver{stmt: fakeStatement{cursor: cur}}

	got, err := support.QueryForAll[int64](context.Background(), New(drv), "select id from foo", nil, nil, mapper.Long())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 0}, got)
	assert.Equal(t, 1, cur.closed)
	assert.Equal(t, 1, drv.last().closed)
}

func TestConnection_Driver(t *testing.T) {
	drv := &fakeDriver{}
	assert.Same(t, drv, New(drv).Driver())
}
