// Package postgres provides a PostgreSQL store backend for leaporm.
//
// This file registers the PostgreSQL backend with the store registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/leaporm/pkg/stores/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leaporm/pkg/store"
)

func init() {
	store.Register("postgres", func(logger *slog.Logger) store.Backend { return New(logger) })
}
