package commands

import (
	"context"
	"slices"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	var types string

	cmd := &cobra.Command{
		Use:   "exec <sql> [args...]",
		Short: "Execute a statement and print the affected row count",
		Long: `Execute an UPDATE, DELETE or DDL statement against the configured target.

Positional arguments after the SQL are bound to its placeholders. Their kinds
come from --types; arguments without a listed kind are bound as strings.
Pass \N for NULL.`,
		Example: `  leapdb exec "UPDATE users SET active = ? WHERE id = ?" true 42 --types bool,long
  leapdb exec "DELETE FROM sessions"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, fts, err := parseArgs(args[1:], types)
			if err != nil {
				return err
			}
			return withConnection(cmd, func(ctx context.Context, conn support.DatabaseConnection, r *output.Renderer) error {
				n, err := conn.Update(ctx, args[0], vals, fts)
				if err != nil {
					return err
				}
				return r.Render(output.Result{Affected: &n})
			})
		},
	}
	cmd.Flags().StringVarP(&types, "types", "T", "", "Comma-separated argument kinds (boolean,integer,long,double,string,bytes,date,uuid)")
	return cmd
}

// NewInsertCommand creates the insert command.
func NewInsertCommand() *cobra.Command {
	var (
		types string
		keys  bool
	)

	cmd := &cobra.Command{
		Use:   "insert <sql> [args...]",
		Short: "Execute an insert and optionally print generated keys",
		Long: `Execute an INSERT against the configured target.

With --keys the keys generated by the database are collected and printed, one
row per inserted row. How keys are obtained depends on the target: the last
insert id for sqlite, RETURNING columns for postgres and duckdb.`,
		Example: `  leapdb insert "INSERT INTO users (name) VALUES (?)" ann --keys
  leapdb insert "INSERT INTO users (name) VALUES (\$1) RETURNING id" ann --keys --type postgres`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, fts, err := parseArgs(args[1:], types)
			if err != nil {
				return err
			}
			return withConnection(cmd, func(ctx context.Context, conn support.DatabaseConnection, r *output.Renderer) error {
				if !keys {
					n, err := conn.Insert(ctx, args[0], vals, fts, nil)
					if err != nil {
						return err
					}
					return r.Render(output.Result{Affected: &n})
				}

				var holder support.Keys
				n, err := conn.Insert(ctx, args[0], vals, fts, &holder)
				if err != nil {
					return err
				}
				cols, rows := keyRows(holder.All())
				return r.Render(output.Result{Columns: cols, Rows: rows, Affected: &n})
			})
		},
	}
	cmd.Flags().StringVarP(&types, "types", "T", "", "Comma-separated argument kinds")
	cmd.Flags().BoolVarP(&keys, "keys", "k", false, "Collect and print generated keys")
	return cmd
}

// keyRows regroups keys into rows. Keys arrive row by row, column by
// column, so a column seen again starts the next row.
func keyRows(keys []support.Key) ([]string, [][]any) {
	var (
		cols []string
		rows [][]any
		cur  []any
	)
	for _, k := range keys {
		i := slices.Index(cols, k.Column)
		if i < 0 {
			if len(rows) > 0 {
				// a column absent from the first row; keep it out of the table
				continue
			}
			cols = append(cols, k.Column)
			cur = append(cur, k.Value)
			continue
		}
		if i < len(cur) {
			rows = append(rows, cur)
			cur = make([]any, 0, len(cols))
		}
		cur = append(cur, k.Value)
	}
	if len(cur) > 0 {
		rows = append(rows, cur)
	}
	return cols, rows
}
