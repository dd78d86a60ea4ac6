// Package config loads leapdb configuration from defaults, a YAML file,
// LEAPDB_ environment variables and command-line flags.
package config

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// TargetConfig describes the database the CLI connects to.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	// Params holds adapter-specific settings such as busy_timeout for
	// sqlite or max_conns for postgres.
	Params map[string]any `koanf:"params"`
}

// Config holds all configuration options.
type Config struct {
	Target   TargetConfig `koanf:"target"`
	LogLevel string       `koanf:"log_level"`
	Output   string       `koanf:"output"`
	Verbose  bool         `koanf:"verbose"`

	// File is the config file that was read, empty when none was found.
	File string `koanf:"-"`
}

// Validate checks that the target names a registered adapter.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return errors.New("target type is required")
	}
	t.Type = strings.ToLower(t.Type)
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// AdapterConfig converts the target into the config adapters connect with.
func (t TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Path,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}
