// Package testutil provides helpers shared by tests: a slog logger routed to
// t.Log and throwaway SQLite databases.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a Debug-level logger whose records go to t.Log, so
// they only show for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tbWriter struct {
	tb testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
