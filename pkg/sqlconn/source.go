package sqlconn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/dbconn"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Conn is a DatabaseConnection pinned to one *sql.Conn.
type Conn struct {
	*dbconn.Connection
	raw *sql.Conn
}

// Source is a ConnectionSource over an *sql.DB pool. Each acquired
// connection holds one pooled session until released.
type Source struct {
	db     *sql.DB
	opts   []Option
	logger *slog.Logger
}

var _ support.ConnectionSource = (*Source)(nil)

// NewSource returns a Source drawing sessions from db. A nil logger
// discards output.
func NewSource(db *sql.DB, logger *slog.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{db: db, opts: opts, logger: logger}
}

// Acquire implements support.ConnectionSource.
func (s *Source) Acquire(ctx context.Context) (support.DatabaseConnection, error) {
	raw, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	s.logger.Debug("acquired connection")
	return &Conn{Connection: dbconn.New(NewDriver(raw, s.opts...)), raw: raw}, nil
}

// Release implements support.ConnectionSource. The session goes back to
// the pool.
func (s *Source) Release(conn support.DatabaseConnection) error {
	c, ok := conn.(*Conn)
	if !ok {
		return fmt.Errorf("connection %T was not acquired from a sqlconn source", conn)
	}
	if err := c.raw.Close(); err != nil {
		return fmt.Errorf("failed to release connection: %w", err)
	}
	s.logger.Debug("released connection")
	return nil
}
