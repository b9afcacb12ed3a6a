// Package sqlite provides a SQLite store backend for leaporm.
//
// This file registers the SQLite backend with the store registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/leaporm/pkg/stores/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leaporm/pkg/store"
)

func init() {
	store.Register("sqlite", func(logger *slog.Logger) store.Backend { return New(logger) })
}
