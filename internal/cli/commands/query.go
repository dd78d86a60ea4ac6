package commands

import (
	"context"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/field"
	"github.com/leapstack-labs/leapdb/pkg/mapper"
	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/spf13/cobra"
)

// queryFlags are shared by the commands that read rows.
type queryFlags struct {
	types       string
	resultTypes string
}

func (f *queryFlags) register(cmd *cobra.Command, withResults bool) {
	cmd.Flags().StringVarP(&f.types, "types", "T", "", "Comma-separated argument kinds")
	if withResults {
		cmd.Flags().StringVarP(&f.resultTypes, "result-types", "R", "", "Comma-separated kinds of the leading result columns")
	}
}

// NewLongCommand creates the long command.
func NewLongCommand() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "long <sql> [args...]",
		Short: "Run a query that returns exactly one integer",
		Long: `Run a query that must return exactly one row with one integer column.

No row and more than one row are both errors. A NULL value prints as 0.`,
		Example: `  leapdb long "SELECT count(*) FROM users"
  leapdb long "SELECT id FROM users WHERE email = ?" ann@example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, fts, err := parseArgs(args[1:], f.types)
			if err != nil {
				return err
			}
			return withConnection(cmd, func(ctx context.Context, conn support.DatabaseConnection, r *output.Renderer) error {
				n, err := conn.QueryForLongArgs(ctx, args[0], vals, fts)
				if err != nil {
					return err
				}
				return r.Render(output.Result{Columns: []string{"value"}, Rows: [][]any{{n}}})
			})
		},
	}
	f.register(cmd, false)
	return cmd
}

// NewOneCommand creates the one command.
func NewOneCommand() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "one <sql> [args...]",
		Short: "Print the first row of a query",
		Long: `Run a query and print its first row. A query without rows prints nothing
and is not an error; further rows are ignored.`,
		Example: `  leapdb one "SELECT id, name FROM users WHERE id = ?" 42 --types long --result-types long,string`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, fts, m, err := f.prepare(args[1:])
			if err != nil {
				return err
			}
			return withConnection(cmd, func(ctx context.Context, conn support.DatabaseConnection, r *output.Renderer) error {
				row, found, err := support.QueryForOne[[]any](ctx, conn, args[0], vals, fts, m)
				if err != nil {
					return err
				}
				res := output.Result{Columns: m.columns}
				if found {
					res.Rows = [][]any{row}
				}
				return r.Render(res)
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Print every row of a query",
		Example: `  leapdb query "SELECT * FROM users ORDER BY id"
  leapdb query "SELECT * FROM users WHERE created_at > ?" 2024-01-01 --types date -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, fts, m, err := f.prepare(args[1:])
			if err != nil {
				return err
			}
			return withConnection(cmd, func(ctx context.Context, conn support.DatabaseConnection, r *output.Renderer) error {
				rows, err := support.QueryForAll[[]any](ctx, conn, args[0], vals, fts, m)
				if err != nil {
					return err
				}
				return r.Render(output.Result{Columns: m.columns, Rows: rows})
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

func (f *queryFlags) prepare(raw []string) ([]any, []*field.Type, *columnValues, error) {
	vals, fts, err := parseArgs(raw, f.types)
	if err != nil {
		return nil, nil, nil, err
	}
	rts, err := resultTypes(f.resultTypes)
	if err != nil {
		return nil, nil, nil, err
	}
	return vals, fts, &columnValues{Values: mapper.NewValues(rts...)}, nil
}

// columnValues is a Values mapper that remembers the column names of the
// rows it mapped.
type columnValues struct {
	*mapper.Values
	columns []string
}

func (m *columnValues) MapRow(r support.Results) ([]any, error) {
	if m.columns == nil {
		cols, err := r.Columns()
		if err != nil {
			return nil, &support.MetadataError{Err: err}
		}
		m.columns = cols
	}
	return m.Values.MapRow(r)
}
