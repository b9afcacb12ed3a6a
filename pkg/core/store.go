package core

import (
	"context"
	"log/slog"
)

// Store defines the capability surface the ORM needs from a database client.
// Backends live in pkg/stores and register themselves with pkg/store.
type Store interface {
	// Name returns the registered backend name (mysql, sqlite, ...).
	Name() string

	// GetRow executes a query and returns its first row, or nil when no row matched.
	GetRow(ctx context.Context, query string, args ...any) (*Row, error)

	// GetResults executes a query and returns every row. Never nil on success.
	GetResults(ctx context.Context, query string, args ...any) ([]Row, error)

	// GetVar executes a query and returns the first column of the first row.
	GetVar(ctx context.Context, query string, args ...any) (any, error)

	// Insert writes p.Data into p.Table and reports the store-assigned identifier.
	Insert(ctx context.Context, p Payload) (Result, error)

	// Update writes p.Data into the rows of p.Table matching p.Where.
	Update(ctx context.Context, p Payload) (Result, error)

	// Delete removes the rows of p.Table matching p.Where.
	Delete(ctx context.Context, p Payload) (Result, error)

	// Exec executes a raw statement such as DDL.
	Exec(ctx context.Context, statement string) error

	// DescribeColumns returns one row per column of table, in declaration order.
	DescribeColumns(ctx context.Context, table string) ([]ColumnInfo, error)

	// Quote renders value as a SQL literal safe to embed in a statement.
	Quote(value any) string

	// QuoteIdent renders name as a quoted identifier.
	QuoteIdent(name string) string

	// Placeholder returns the bind placeholder for the n-th (1-based) argument.
	Placeholder(n int) string

	// Prefix returns the configured table-name prefix.
	Prefix() string

	// Collate returns the configured table collation clause.
	Collate() string

	// Logger returns the store's logger. Never nil.
	Logger() *slog.Logger

	// Close releases the underlying connection.
	Close() error
}

// StoreConfig holds configuration for connecting to a store.
type StoreConfig struct {
	Type     string            `koanf:"type" validate:"required"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port" validate:"gte=0,lte=65535"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Prefix   string            `koanf:"prefix"`
	Collate  string            `koanf:"collate"`
	Options  map[string]string `koanf:"options"`
}

// Payload describes a structured write.
type Payload struct {
	// Table is the full (already prefixed) table name.
	Table string
	// Data maps column names to the values written.
	Data map[string]any
	// Where maps column names to equality filters. A nil value matches NULL.
	Where map[string]any
	// Key names the identity column reported back by Insert.
	Key string
}

// Result reports the outcome of a structured write.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Row is a single result row keeping the select order of its columns.
type Row struct {
	Columns []string
	Values  map[string]any
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns []string, values []any) *Row {
	r := &Row{
		Columns: columns,
		Values:  make(map[string]any, len(columns)),
	}
	for i, c := range columns {
		if i < len(values) {
			r.Values[c] = values[i]
		}
	}
	return r
}

// Get returns the value of column and whether the row carries it.
func (r *Row) Get(column string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.Values[column]
	return v, ok
}

// ColumnInfo is one raw row of a describe-columns statement.
// Field names follow the MySQL SHOW COLUMNS shape every backend produces.
type ColumnInfo struct {
	Field   string  `json:"field" yaml:"field"`
	Type    string  `json:"type" yaml:"type"`
	Null    string  `json:"null" yaml:"null"`
	Key     string  `json:"key" yaml:"key"`
	Default *string `json:"default" yaml:"default"`
	Extra   string  `json:"extra" yaml:"extra"`
}
