package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/internal/config"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/metrics"
	"github.com/leapstack-labs/leapdb/pkg/support"
	"github.com/spf13/cobra"
)

// Env is what the root command resolves before a subcommand runs.
type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	// Metrics, when set, records the connection acquired by a command.
	Metrics *metrics.SourceMetrics
}

type envKey struct{}

// WithEnv stores env in ctx.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom retrieves the Env stored by WithEnv.
func EnvFrom(ctx context.Context) (*Env, error) {
	if env, ok := ctx.Value(envKey{}).(*Env); ok && env.Config != nil {
		return env, nil
	}
	return nil, errors.New("command environment not initialized")
}

// withConnection connects the configured target, acquires one connection
// and passes it to fn. The connection is released and the adapter closed
// afterwards.
func withConnection(cmd *cobra.Command, fn func(ctx context.Context, conn support.DatabaseConnection, r *output.Renderer) error) (err error) {
	env, err := EnvFrom(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	adp, err := adapter.Open(ctx, env.Config.Target.AdapterConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", env.Config.Target.Type, err)
	}
	defer func() {
		if cerr := adp.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	src := adp.ConnectionSource()
	if env.Metrics != nil {
		src = env.Metrics.Instrument(env.Config.Target.Type, src)
	}
	conn, err := src.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if rerr := src.Release(conn); rerr != nil && err == nil {
			err = rerr
		}
	}()

	renderer := env.Renderer
	if renderer == nil {
		renderer = output.NewRenderer(cmd.OutOrStdout(), output.ModeAuto)
	}
	return fn(ctx, conn, renderer)
}
