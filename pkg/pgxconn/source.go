package pgxconn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leapstack-labs/leapdb/pkg/dbconn"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Conn is a DatabaseConnection holding one pooled pgx connection.
type Conn struct {
	*dbconn.Connection
	pc *pgxpool.Conn
}

// Source is a ConnectionSource over a pgxpool.Pool.
type Source struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ support.ConnectionSource = (*Source)(nil)

// NewSource returns a Source drawing connections from pool. A nil logger
// discards output.
func NewSource(pool *pgxpool.Pool, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{pool: pool, logger: logger}
}

// Acquire implements support.ConnectionSource.
func (s *Source) Acquire(ctx context.Context) (support.DatabaseConnection, error) {
	pc, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	s.logger.Debug("acquired connection", slog.Uint64("pid", uint64(pc.Conn().PgConn().PID())))
	return &Conn{Connection: dbconn.New(NewDriver(pc.Conn())), pc: pc}, nil
}

// Release implements support.ConnectionSource.
func (s *Source) Release(conn support.DatabaseConnection) error {
	c, ok := conn.(*Conn)
	if !ok {
		return fmt.Errorf("connection %T was not acquired from a pgxconn source", conn)
	}
	c.pc.Release()
	s.logger.Debug("released connection")
	return nil
}
