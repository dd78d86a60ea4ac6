// Package adapter connects leapdb to concrete databases.
//
// An Adapter opens a database from a Config and exposes a
// support.ConnectionSource that hands out DatabaseConnection handles.
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves with Register in their init functions.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/support"
)

// Config holds configuration for connecting to a database.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	// Params carries adapter-specific settings, decoded by each adapter
	// with DecodeParams.
	Params map[string]any
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect opens the database described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database and releases resources. Connections still
	// held from the source become unusable.
	Close() error

	// ConnectionSource returns the source of connections for the open
	// database, or nil before Connect.
	ConnectionSource() support.ConnectionSource

	// DialectName returns the SQL dialect spoken by the database.
	DialectName() string
}
