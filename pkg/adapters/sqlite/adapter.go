package sqlite

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/sqlconn"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	return "sqlite"
}

// Connect opens the SQLite database at cfg.Path.
// An empty path or ":memory:" opens an in-memory database. Every pooled
// connection would see its own empty in-memory database, so the pool is
// limited to one connection and Acquire blocks until the previous handle
// is released.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg)
	if err != nil {
		return err
	}
	opts, err := params.Options()
	if err != nil {
		return err
	}

	// last_insert_rowid() outlives the insert that set it; compare against
	// it so an insert generating no rowid adds no key.
	opts = append(opts, sqlconn.WithLastIDQuery(lastRowIDQuery))

	a.Logger.Debug("opening sqlite database", slog.String("path", cfg.Path))

	if err := a.Open(ctx, "sqlite", buildDSN(cfg.Path, params), opts...); err != nil {
		return err
	}
	if isMemory(cfg.Path) {
		a.DB.SetMaxOpenConns(1)
	}
	// journal_mode is a property of the database file, set once.
	if params.JournalMode != "" {
		if err := a.Exec(ctx, "PRAGMA journal_mode = "+params.JournalMode); err != nil {
			_ = a.Close()
			return err
		}
	}

	a.Cfg = cfg
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
