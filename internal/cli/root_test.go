package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"version", "exec", "insert", "long", "one", "query", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_Flow(t *testing.T) {
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "flow.db")

	_, err := execute(t, "exec", "--path", db, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	out, err := execute(t, "insert", "--path", db, "-o", "json", "--keys", "INSERT INTO t (v) VALUES (?)", "x")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.EqualValues(t, 1, res["affected"])

	t.Setenv("LEAPDB_TARGET__PATH", db)
	t.Setenv("LEAPDB_OUTPUT", "yaml")
	out, err = execute(t, "long", "SELECT count(*) FROM t")
	require.NoError(t, err)
	assert.Contains(t, out, "value: 1")
}

func TestRootCmd_BadOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "long", "-o", "csv", "SELECT 1")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRootCmd_Version(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEAPDB_TARGET__TYPE", "oracle")
	out, err := execute(t, "version")
	require.NoError(t, err, "version does not load config")
	assert.Contains(t, out, "leapdb v"+Version)
}
