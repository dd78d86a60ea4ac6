package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/pgxconn"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL. It
// always owns a pgx pool; with the stdlib driver a database/sql handle is
// layered on top of that pool.
type Adapter struct {
	adapter.BaseSQLAdapter

	pool   *pgxpool.Pool
	source *pgxconn.Source
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "postgres"
}

// Connect establishes a connection pool to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg)
	if err != nil {
		return err
	}

	poolCfg, err := pgxpool.ParseConfig(buildPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if params.MaxConns > 0 {
		poolCfg.MaxConns = params.MaxConns
	}
	if params.MinConns > 0 {
		poolCfg.MinConns = params.MinConns
	}

	a.Logger.Debug("connecting to postgres",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.String("driver", params.Driver))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	if params.Driver == DriverStdlib {
		opts, err := params.sqlOptions()
		if err != nil {
			pool.Close()
			return err
		}
		a.Attach(stdlib.OpenDBFromPool(pool), opts...)
	} else {
		a.source = pgxconn.NewSource(pool, a.Logger)
	}

	a.pool = pool
	a.Cfg = cfg
	return nil
}

// ConnectionSource implements adapter.Adapter.
func (a *Adapter) ConnectionSource() support.ConnectionSource {
	if a.source != nil {
		return a.source
	}
	return a.BaseSQLAdapter.ConnectionSource()
}

// IsConnected returns true once Connect has succeeded.
func (a *Adapter) IsConnected() bool {
	return a.pool != nil
}

// Close closes the database/sql handle, if any, and then the pool.
func (a *Adapter) Close() error {
	err := a.BaseSQLAdapter.Close()
	if a.pool != nil {
		a.Logger.Debug("closing postgres pool")
		a.pool.Close()
		a.pool = nil
	}
	a.source = nil
	return err
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
