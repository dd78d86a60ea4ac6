package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdb/pkg/sqlconn"
	"github.com/leapstack-labs/leapdb/pkg/support"
)

var errNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed it in concrete adapters and call Open from Connect.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
	Source *sqlconn.Source
}

// Open opens and pings a database/sql pool and builds its connection
// source. On failure the pool is closed again.
func (b *BaseSQLAdapter) Open(ctx context.Context, driverName, dsn string, opts ...sqlconn.Option) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driverName, err)
	}
	b.Attach(db, opts...)
	return nil
}

// Attach adopts an already opened pool.
func (b *BaseSQLAdapter) Attach(db *sql.DB, opts ...sqlconn.Option) {
	b.DB = db
	b.Source = sqlconn.NewSource(db, b.logger(), opts...)
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	b.logger().Debug("closing database connection")
	err := b.DB.Close()
	b.DB = nil
	b.Source = nil
	return err
}

// ConnectionSource returns the pool's connection source, or nil before
// the adapter is connected.
func (b *BaseSQLAdapter) ConnectionSource() support.ConnectionSource {
	if b.Source == nil {
		return nil
	}
	return b.Source
}

// Exec runs a statement on the pool outside any DatabaseConnection. Adapters
// use it for session setup.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return errNotConnected
	}
	if _, err := b.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		b.Logger = slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// KeyParams are the generated-key settings shared by database/sql
// adapters. Embed with `mapstructure:",squash"`.
type KeyParams struct {
	// KeyColumn names the LastInsertId key; defaults to "id".
	KeyColumn string `mapstructure:"key_column"`
	// Keys is "last_insert_id" or "returning".
	Keys string `mapstructure:"keys"`
}

// Options converts the parameters into sqlconn options.
func (p KeyParams) Options() ([]sqlconn.Option, error) {
	strategy, err := sqlconn.ParseKeyStrategy(p.Keys)
	if err != nil {
		return nil, err
	}
	return []sqlconn.Option{sqlconn.WithKeyColumn(p.KeyColumn), sqlconn.WithKeyStrategy(strategy)}, nil
}

// DecodeParams decodes Config.Params into out, a pointer to an
// adapter-specific struct with mapstructure tags. String values are
// converted, so parameters coming from environment variables decode too.
// Unknown keys are an error.
func DecodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid adapter params: %w", err)
	}
	return nil
}
