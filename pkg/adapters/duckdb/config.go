package duckdb

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	adapter.KeyParams `mapstructure:",squash"`

	// Threads caps the worker threads DuckDB uses. Zero keeps the default.
	Threads int `mapstructure:"threads"`

	// MemoryLimit caps DuckDB memory use, e.g. "1GB".
	MemoryLimit string `mapstructure:"memory_limit"`

	// Settings are further DuckDB configuration options applied when the
	// database is opened (e.g. access_mode, default_order).
	Settings map[string]string `mapstructure:"settings"`
}

func parseParams(cfg adapter.Config) (Params, error) {
	var p Params
	if err := adapter.DecodeParams(cfg.Params, &p); err != nil {
		return p, err
	}
	if p.Threads < 0 {
		return p, fmt.Errorf("threads must not be negative")
	}
	// DuckDB does not report LastInsertId; keys come from RETURNING.
	if p.Keys == "" {
		p.Keys = "returning"
	}
	return p, nil
}

// buildDSN encodes the configuration options as DSN query parameters,
// which go-duckdb applies when it opens the database.
func buildDSN(path string, p Params) string {
	q := url.Values{}
	for k, v := range p.Settings {
		q.Set(k, v)
	}
	if p.Threads > 0 {
		q.Set("threads", strconv.Itoa(p.Threads))
	}
	if p.MemoryLimit != "" {
		q.Set("memory_limit", p.MemoryLimit)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
