// Package duckdb provides a DuckDB store backend for leaporm.
//
// This file registers the DuckDB backend with the store registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/leaporm/pkg/stores/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leaporm/pkg/store"
)

func init() {
	store.Register("duckdb", func(logger *slog.Logger) store.Backend { return New(logger) })
}
