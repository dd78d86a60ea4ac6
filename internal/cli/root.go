// Package cli provides the leapdb command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapdb/internal/cli/commands"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/internal/config"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	registry := prometheus.NewRegistry()

	rootCmd := &cobra.Command{
		Use:   "leapdb",
		Short: "leapdb - run parameterized SQL through the connection layer",
		Long: `leapdb runs parameterized statements and queries against SQLite, PostgreSQL
and DuckDB through the same connection layer an application uses: typed
argument binding, generated-key collection and single-row queries with
cardinality checks.

The target database comes from leapdb.yaml, LEAPDB_ environment variables
(LEAPDB_TARGET__TYPE=postgres) or the flags below.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, completion and version
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			mode, err := output.ParseMode(cfg.Output)
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if cfg.File != "" {
				logger.Debug("using config file", slog.String("path", cfg.File))
			}
			logger.Debug("using target", slog.String("type", cfg.Target.Type))

			sm := metrics.NewSourceMetrics("leapdb")
			if err := sm.Register(registry); err != nil {
				return err
			}

			cmd.SetContext(commands.WithEnv(cmd.Context(), &commands.Env{
				Config:   cfg,
				Logger:   logger,
				Renderer: output.NewRenderer(cmd.OutOrStdout(), mode),
				Metrics:  sm,
			}))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if env, err := commands.EnvFrom(cmd.Context()); err == nil {
				return logMetrics(cmd.Context(), env.Logger, registry)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: leapdb.yaml in this or a parent directory)")
	pf.String("type", "", "Target adapter type")
	pf.String("path", "", "Database file for sqlite and duckdb (:memory: for in-memory)")
	pf.String("host", "", "Database host")
	pf.Int("port", 0, "Database port")
	pf.String("database", "", "Database name")
	pf.String("user", "", "Database user")
	pf.String("password", "", "Database password")
	pf.String("schema", "", "Default schema")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.BoolP("verbose", "v", false, "Verbose output (debug logging)")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.ListAdapters(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewExecCommand())
	rootCmd.AddCommand(commands.NewInsertCommand())
	rootCmd.AddCommand(commands.NewLongCommand())
	rootCmd.AddCommand(commands.NewOneCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapdb.

To load completions:

Bash:
  $ source <(leapdb completion bash)

Zsh:
  $ leapdb completion zsh > "${fpath[1]}/_leapdb"

Fish:
  $ leapdb completion fish | source

PowerShell:
  PS> leapdb completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
