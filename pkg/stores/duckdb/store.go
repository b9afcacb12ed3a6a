// Package duckdb provides a DuckDB store backend for leaporm.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/store"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// describeQuery reads columns from information_schema and key flags from duckdb_constraints().
const describeQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.character_maximum_length,
		c.is_nullable,
		c.column_default,
		COALESCE((
			SELECT CASE k.constraint_type WHEN 'PRIMARY KEY' THEN 'PRI' ELSE 'UNI' END
			FROM duckdb_constraints() k
			WHERE k.schema_name = c.table_schema
				AND k.table_name = c.table_name
				AND (
					(k.constraint_type = 'PRIMARY KEY' AND list_contains(k.constraint_column_names, c.column_name))
					OR (k.constraint_type = 'UNIQUE' AND k.constraint_column_names = [c.column_name])
				)
			ORDER BY k.constraint_type
			LIMIT 1
		), '') AS column_key
	FROM information_schema.columns c
	WHERE c.table_schema = ? AND c.table_name = ?
	ORDER BY c.ordinal_position
`

// Store implements store.Backend for DuckDB.
type Store struct {
	store.BaseSQLStore
}

// New creates a new DuckDB store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{Log: logger, Dialect: store.DuckDB},
	}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (s *Store) Connect(ctx context.Context, cfg core.StoreConfig) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// DescribeColumns reads column metadata for table (default schema main).
func (s *Store) DescribeColumns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	schemaName, tableName := "main", table
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		schemaName, tableName = parts[0], parts[1]
	}

	rows, err := s.GetResults(ctx, describeQuery, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}

	infos := make([]core.ColumnInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, store.CatalogColumn{
			Name:      store.AsString(r.Values["column_name"]),
			DataType:  store.AsString(r.Values["data_type"]),
			MaxLength: r.Values["character_maximum_length"],
			Nullable:  store.AsString(r.Values["is_nullable"]),
			Default:   r.Values["column_default"],
			Key:       store.AsString(r.Values["column_key"]),
		}.ColumnInfo())
	}
	return infos, nil
}

var _ store.Backend = (*Store)(nil)
