// Package postgres provides a PostgreSQL store backend for leaporm.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/store"
)

// describeQuery reports one row per column with a MySQL style key flag.
const describeQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.character_maximum_length,
		c.is_nullable,
		c.column_default,
		c.is_identity,
		COALESCE((
			SELECT CASE tc.constraint_type WHEN 'PRIMARY KEY' THEN 'PRI' ELSE 'UNI' END
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON kcu.constraint_name = tc.constraint_name
				AND kcu.table_schema = tc.table_schema
				AND kcu.table_name = tc.table_name
			WHERE tc.table_schema = c.table_schema
				AND tc.table_name = c.table_name
				AND kcu.column_name = c.column_name
				AND (
					tc.constraint_type = 'PRIMARY KEY'
					OR (tc.constraint_type = 'UNIQUE' AND (
						SELECT COUNT(*) FROM information_schema.key_column_usage k2
						WHERE k2.constraint_name = tc.constraint_name
							AND k2.table_schema = tc.table_schema
					) = 1)
				)
			ORDER BY tc.constraint_type
			LIMIT 1
		), '') AS column_key
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position
`

// Store implements store.Backend for PostgreSQL.
type Store struct {
	store.BaseSQLStore
}

// New creates a new PostgreSQL store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{Log: logger, Dialect: store.Postgres},
	}
}

// Connect establishes a connection to PostgreSQL.
func (s *Store) Connect(ctx context.Context, cfg core.StoreConfig) error {
	dsn := buildPostgresDSN(cfg)

	s.Log.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.StoreConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// DescribeColumns reads column metadata from information_schema.
// Tables may be schema qualified; the default schema is public.
func (s *Store) DescribeColumns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	schemaName, tableName := splitQualified(table, "public")

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
			Identity:  strings.EqualFold(store.AsString(r.Values["is_identity"]), "YES"),
			Key:       store.AsString(r.Values["column_key"]),
		}.ColumnInfo())
	}
	return infos, nil
}

func splitQualified(table, defaultSchema string) (string, string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

var _ store.Backend = (*Store)(nil)
