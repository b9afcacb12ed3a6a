// Package store provides the database/sql foundation shared by every backend:
// parameterized structured writes, row scanning, literal quoting per dialect,
// statement metrics and the backend registry.
//
// Backends live under pkg/stores and register themselves in init():
//
//	import _ "github.com/leapstack-labs/leaporm/pkg/stores/mysql"
package store
