// Package mysql provides a MySQL store backend for leaporm.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/store"
)

// Store implements store.Backend for MySQL and MariaDB.
type Store struct {
	store.BaseSQLStore
}

// New creates a new MySQL store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		BaseSQLStore: store.BaseSQLStore{Log: logger, Dialect: store.MySQL},
	}
}

// Connect establishes a connection to MySQL.
func (s *Store) Connect(ctx context.Context, cfg core.StoreConfig) error {
	dsn := buildMySQLDSN(cfg)

	s.Log.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN from the store config.
// Options other than tls are passed through as connection parameters.
func buildMySQLDSN(cfg core.StoreConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = cfg.Database

	for k, v := range cfg.Options {
		if k == "tls" {
			c.TLSConfig = v
			continue
		}
		if c.Params == nil {
			c.Params = make(map[string]string)
		}
		c.Params[k] = v
	}

	return c.FormatDSN()
}

// DescribeColumns runs SHOW COLUMNS for table.
func (s *Store) DescribeColumns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	rows, err := s.GetResults(ctx, "SHOW COLUMNS FROM "+s.QuoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}

	infos := make([]core.ColumnInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, store.ColumnInfoFromRow(row))
	}
	return infos, nil
}

var _ store.Backend = (*Store)(nil)
