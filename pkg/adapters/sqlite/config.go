package sqlite

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// Params holds SQLite-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	adapter.KeyParams `mapstructure:",squash"`

	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool `mapstructure:"foreign_keys"`

	// JournalMode sets the journal mode (e.g. "wal", "delete").
	JournalMode string `mapstructure:"journal_mode"`
}

var journalModes = map[string]bool{
	"delete": true, "truncate": true, "persist": true, "memory": true, "wal": true, "off": true,
}

func parseParams(cfg adapter.Config) (Params, error) {
	p := Params{BusyTimeout: 5 * time.Second}
	if err := adapter.DecodeParams(cfg.Params, &p); err != nil {
		return p, err
	}
	p.JournalMode = strings.ToLower(p.JournalMode)
	if p.JournalMode != "" && !journalModes[p.JournalMode] {
		return p, fmt.Errorf("unknown journal_mode %q", p.JournalMode)
	}
	if p.BusyTimeout < 0 {
		return p, fmt.Errorf("busy_timeout must not be negative")
	}
	return p, nil
}

const lastRowIDQuery = "SELECT last_insert_rowid()"

// isMemory reports whether path names an in-memory database.
func isMemory(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory")
}

// buildDSN appends the per-connection pragmas to path. modernc.org/sqlite
// applies each _pragma to every new connection in the pool.
func buildDSN(path string, p Params) string {
	if path == "" {
		path = ":memory:"
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", p.BusyTimeout.Milliseconds()))
	if p.ForeignKeys {
		q.Add("_pragma", "foreign_keys(1)")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}
