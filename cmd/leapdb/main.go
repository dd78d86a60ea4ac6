// Package main is the entry point for the leapdb CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdb/internal/cli"

	// Register adapters.
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
