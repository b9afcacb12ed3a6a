// Package mysql provides a MySQL store backend for leaporm.
//
// This file registers the MySQL backend with the store registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/leaporm/pkg/stores/mysql"
package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/leaporm/pkg/store"
)

func init() {
	store.Register("mysql", func(logger *slog.Logger) store.Backend { return New(logger) })
}
