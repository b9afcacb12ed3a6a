// Package sqlite provides a SQLite store backend for leaporm.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/store"

	_ "modernc.org/sqlite" // sqlite driver
)

// Store implements store.Backend for SQLite.
type Store struct {
	store.BaseSQLStore
}

// New creates a new SQLite store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{Log: logger, Dialect: store.SQLite},
	}
}

// Connect opens the database file at cfg.Path.
// An empty path or ":memory:" opens an in-memory database held by a single connection.
func (s *Store) Connect(ctx context.Context, cfg core.StoreConfig) error {
	path := cfg.Path
	memory := path == "" || path == ":memory:"

	dsn := path
	if memory {
		dsn = ":memory:"
	} else {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	s.Log.Debug("opening sqlite database", slog.String("path", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// every connection to :memory: is a distinct database
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// DescribeColumns builds SHOW COLUMNS style rows from the table_info and
// index_list pragmas. Single-column unique indexes are reported as UNI and
// an INTEGER PRIMARY KEY as auto_increment.
func (s *Store) DescribeColumns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	quoted := s.QuoteIdent(table)

	cols, err := s.GetResults(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoted))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}

	unique, err := s.uniqueColumns(ctx, quoted)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes of %s: %w", table, err)
	}

	pkCount := 0
	for _, c := range cols {
		if store.AsInt(c.Values["pk"]) > 0 {
			pkCount++
		}
	}

	infos := make([]core.ColumnInfo, 0, len(cols))
	for _, c := range cols {
		name := store.AsString(c.Values["name"])
		typ := store.AsString(c.Values["type"])
		pk := store.AsInt(c.Values["pk"]) > 0

		info := core.ColumnInfo{
			Field: name,
			Type:  strings.ToLower(typ),
			Null:  "YES",
		}
		if store.AsInt(c.Values["notnull"]) == 1 || pk {
			info.Null = "NO"
		}
		switch {
		case pk:
			info.Key = "PRI"
		case unique[name]:
			info.Key = "UNI"
		}
		if pk && pkCount == 1 && strings.EqualFold(typ, "integer") {
			info.Extra = "auto_increment"
		}
		if d := c.Values["dflt_value"]; d != nil {
			v := strings.Trim(store.AsString(d), "'")
			info.Default = &v
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Store) uniqueColumns(ctx context.Context, quotedTable string) (map[string]bool, error) {
	indexes, err := s.GetResults(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quotedTable))
	if err != nil {
		return nil, err
	}

	out := make(map[string]bool)
	for _, idx := range indexes {
		if store.AsInt(idx.Values["unique"]) != 1 || store.AsString(idx.Values["origin"]) == "pk" {
			continue
		}
		name := store.AsString(idx.Values["name"])
		parts, err := s.GetResults(ctx, fmt.Sprintf("PRAGMA index_info(%s)", s.QuoteIdent(name)))
		if err != nil {
			return nil, err
		}
		if len(parts) == 1 {
			out[store.AsString(parts[0].Values["name"])] = true
		}
	}
	return out, nil
}

var _ store.Backend = (*Store)(nil)
