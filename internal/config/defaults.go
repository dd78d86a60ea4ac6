package config

import (
	"log/slog"
	"strings"
)

// Default configuration values.
const (
	DefaultType     = "sqlite"
	DefaultPath     = ":memory:"
	DefaultLogLevel = "warn"
	DefaultOutput   = "auto" // TTY=text, otherwise markdown
)

func defaults() map[string]any {
	return map[string]any{
		"target.type": DefaultType,
		"target.path": DefaultPath,
		"log_level":   DefaultLogLevel,
		"output":      DefaultOutput,
		"verbose":     false,
	}
}

// ApplyTargetDefaults fills in values that depend on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "postgres" {
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Schema == "" {
			t.Schema = "public"
		}
	}
}

// Level returns the slog level for the configured log_level. Verbose
// forces Debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, err
	}
	return lvl, nil
}
