// Package core defines the shared language of leaporm.
//
// This package contains:
//   - The store capability surface (Store) and its payload types
//   - Raw column metadata (ColumnInfo) as produced by every backend
//   - The error taxonomy (SchemaError, ValidationError, PersistenceError, LogicError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
