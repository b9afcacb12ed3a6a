// Package schema introspects table columns and validates values against them.
//
// A TableSchema is loaded once from the store's describe-columns statement and
// is immutable afterwards; structural changes to the table are not observed.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// Column is the parsed descriptor of one table column.
type Column struct {
	Name          string
	Type          TypeDescriptor
	Nullable      bool
	Primary       bool
	Unique        bool
	Default       *string
	AutoIncrement bool
}

// TableSchema holds the column descriptors of one table.
type TableSchema struct {
	table      string
	order      []string
	columns    map[string]*Column
	raw        map[string]core.ColumnInfo
	primaryKey string
}

// Load describes table through store and parses the result.
func Load(ctx context.Context, store core.Store, table string) (*TableSchema, error) {
	infos, err := store.DescribeColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return New(table, infos), nil
}

// New builds a schema from already fetched describe rows.
func New(table string, infos []core.ColumnInfo) *TableSchema {
	s := &TableSchema{
		table:   table,
		order:   make([]string, 0, len(infos)),
		columns: make(map[string]*Column, len(infos)),
		raw:     make(map[string]core.ColumnInfo, len(infos)),
	}

	for _, info := range infos {
		key := strings.ToUpper(strings.TrimSpace(info.Key))
		primary := key == "PRI"

		col := &Column{
			Name:          info.Field,
			Type:          ParseType(info.Type),
			Nullable:      strings.EqualFold(strings.TrimSpace(info.Null), "yes"),
			Primary:       primary,
			Unique:        primary || key == "UNI",
			Default:       info.Default,
			AutoIncrement: strings.Contains(strings.ToLower(info.Extra), "auto_increment"),
		}

		if _, seen := s.columns[info.Field]; !seen {
			s.order = append(s.order, info.Field)
		}
		s.columns[info.Field] = col
		s.raw[info.Field] = info

		// last primary column wins
		if primary {
			s.primaryKey = info.Field
		}
	}

	return s
}

// Table returns the (prefixed) table name.
func (s *TableSchema) Table() string {
	return s.table
}

// PrimaryKey returns the primary key column, or "" when the table has none.
func (s *TableSchema) PrimaryKey() string {
	return s.primaryKey
}

// Columns returns the column names in declaration order.
func (s *TableSchema) Columns() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether the table has column.
func (s *TableSchema) Has(column string) bool {
	_, ok := s.columns[column]
	return ok
}

// Column returns the parsed descriptor of column.
func (s *TableSchema) Column(column string) (*Column, bool) {
	c, ok := s.columns[column]
	return c, ok
}

// RawColumn returns the describe row of column as reported by the store.
func (s *TableSchema) RawColumn(column string) (core.ColumnInfo, bool) {
	c, ok := s.raw[column]
	return c, ok
}

// IsNullable reports whether column accepts NULL.
func (s *TableSchema) IsNullable(column string) bool {
	c, ok := s.columns[column]
	return ok && c.Nullable
}

// IsPrimary reports whether column is the primary key.
func (s *TableSchema) IsPrimary(column string) bool {
	c, ok := s.columns[column]
	return ok && c.Primary
}

// IsUnique reports whether column carries a unique or primary constraint.
func (s *TableSchema) IsUnique(column string) bool {
	c, ok := s.columns[column]
	return ok && c.Unique
}

// ValidateColumn reports whether value is acceptable for column.
// An unknown column yields a *core.SchemaError.
func (s *TableSchema) ValidateColumn(column string, value any) (bool, error) {
	c, ok := s.columns[column]
	if !ok {
		return false, &core.SchemaError{Table: s.table, Column: column}
	}
	return c.Validate(value), nil
}

// Cast normalizes a value read from the store for column.
// Numeric text is turned into int64 or float64; other values pass through.
func (s *TableSchema) Cast(column string, value any) any {
	c, ok := s.columns[column]
	if !ok {
		return value
	}
	return c.Cast(value)
}
