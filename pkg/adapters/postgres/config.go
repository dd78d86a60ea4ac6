package postgres

import (
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/sqlconn"
)

// Driver values for Params.Driver.
const (
	DriverNative = "native"
	DriverStdlib = "stdlib"
)

// Params holds PostgreSQL-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	adapter.KeyParams `mapstructure:",squash"`

	// Driver selects the connection layer: "native" runs statements
	// directly on pgx, "stdlib" goes through database/sql.
	Driver string `mapstructure:"driver"`

	// MaxConns and MinConns size the pgx pool. Zero keeps pgx defaults.
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

func parseParams(cfg adapter.Config) (Params, error) {
	var p Params
	if err := adapter.DecodeParams(cfg.Params, &p); err != nil {
		return p, err
	}
	switch p.Driver {
	case "":
		p.Driver = DriverNative
	case DriverNative, DriverStdlib:
	default:
		return p, fmt.Errorf("unknown postgres driver %q (want %s or %s)", p.Driver, DriverNative, DriverStdlib)
	}
	if p.MinConns > p.MaxConns && p.MaxConns > 0 {
		return p, fmt.Errorf("min_conns (%d) exceeds max_conns (%d)", p.MinConns, p.MaxConns)
	}
	// PostgreSQL has no LastInsertId; keys come from RETURNING.
	if p.Keys == "" {
		p.Keys = "returning"
	}
	return p, nil
}

// sqlOptions returns the sqlconn options for the stdlib driver.
func (p Params) sqlOptions() ([]sqlconn.Option, error) {
	return p.KeyParams.Options()
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += fmt.Sprintf(" search_path=%s", cfg.Schema)
	}

	return dsn
}
