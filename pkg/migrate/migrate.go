// Package migrate applies versioned schema migrations through goose.
//
// Migrations are either Go hooks registered with WithMigrations or goose
// SQL files read from WithFS. Versions are tracked in the
// "<prefix>leaporm_migrations" table of the target store.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/store"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// VersionTable is the unprefixed name of the version table.
const VersionTable = "leaporm_migrations"

// Func is a migration hook. It runs inside the migration's transaction.
type Func func(ctx context.Context, s *Schema) error

// Migration is a versioned pair of hooks. A nil Down is a no-op.
type Migration struct {
	Version int64
	Name    string
	Up      Func
	Down    Func
}

// Result reports one applied or reverted migration.
type Result struct {
	Version   int64
	Name      string
	Direction string
	Duration  time.Duration
}

// Status reports whether a known migration is applied.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithMigrations registers Go migrations.
func WithMigrations(ms ...Migration) Option {
	return func(m *Migrator) {
		m.migrations = append(m.migrations, ms...)
	}
}

// WithFS reads goose SQL migration files from the root of fsys.
func WithFS(fsys fs.FS) Option {
	return func(m *Migrator) {
		m.fsys = fsys
	}
}

// Migrator runs migrations against one store.
type Migrator struct {
	store      store.Backend
	migrations []Migration
	fsys       fs.FS
	names      map[int64]string
	provider   *goose.Provider
	logger     *slog.Logger
}

// New builds a Migrator for st, which must be connected.
func New(st store.Backend, opts ...Option) (*Migrator, error) {
	m := &Migrator{store: st, logger: st.Logger(), names: make(map[int64]string)}
	for _, opt := range opts {
		opt(m)
	}

	db := st.Handle()
	if db == nil {
		return nil, fmt.Errorf("store %s is not connected", st.Name())
	}
	dialect := st.SQLDialect()
	if dialect == nil || dialect.Migrations == "" {
		return nil, fmt.Errorf("migrations are not supported for %s stores", st.Name())
	}

	versions, err := database.NewStore(database.Dialect(dialect.Migrations), m.Table())
	if err != nil {
		return nil, fmt.Errorf("failed to create version store: %w", err)
	}

	providerOpts := []goose.ProviderOption{
		goose.WithStore(versions),
		goose.WithDisableGlobalRegistry(true),
	}
	sort.Slice(m.migrations, func(i, j int) bool { return m.migrations[i].Version < m.migrations[j].Version })
	for _, mig := range m.migrations {
		if mig.Up == nil {
			return nil, fmt.Errorf("migration %d has no up hook", mig.Version)
		}
		m.names[mig.Version] = mig.Name
		providerOpts = append(providerOpts, goose.WithGoMigrations(
			goose.NewGoMigration(mig.Version, m.hook(mig.Up), m.hook(mig.Down)),
		))
	}

	provider, err := goose.NewProvider("", db, m.fsys, providerOpts...)
	if err != nil {
		if errors.Is(err, goose.ErrNoMigrations) {
			return nil, fmt.Errorf("no migrations to run")
		}
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	m.provider = provider
	return m, nil
}

// Table returns the prefixed version table name.
func (m *Migrator) Table() string {
	return m.store.Prefix() + VersionTable
}

// Up applies every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) ([]Result, error) {
	results, err := m.provider.Up(ctx)
	out := m.results(results)
	if err != nil {
		return out, fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logger.Info("migrations applied", "count", len(out), "table", m.Table())
	return out, nil
}

// Reset reverts every applied migration in reverse order and drops the version table.
func (m *Migrator) Reset(ctx context.Context) ([]Result, error) {
	results, err := m.provider.DownTo(ctx, 0)
	out := m.results(results)
	if err != nil {
		return out, fmt.Errorf("failed to revert migrations: %w", err)
	}
	if err := m.store.Exec(ctx, "DROP TABLE IF EXISTS "+m.store.QuoteIdent(m.Table())); err != nil {
		return out, fmt.Errorf("failed to drop %s: %w", m.Table(), err)
	}
	m.logger.Info("migrations reverted", "count", len(out), "table", m.Table())
	return out, nil
}

// Status lists every known migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version:   s.Source.Version,
			Name:      m.name(s.Source),
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Version returns the highest applied version, 0 when none is applied.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return v, nil
}

func (m *Migrator) hook(fn Func) *goose.GoFunc {
	if fn == nil {
		return nil
	}
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, &Schema{tx: tx, store: m.store, logger: m.logger})
		},
	}
}

func (m *Migrator) results(results []*goose.MigrationResult) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Result{
			Version:   r.Source.Version,
			Name:      m.name(r.Source),
			Direction: r.Direction,
			Duration:  r.Duration,
		})
	}
	return out
}

func (m *Migrator) name(src *goose.Source) string {
	if n, ok := m.names[src.Version]; ok {
		return n
	}
	if src.Path == "" {
		return ""
	}
	// 00002_add_status.sql -> add_status
	base := strings.TrimSuffix(path.Base(src.Path), path.Ext(src.Path))
	if _, rest, ok := strings.Cut(base, "_"); ok {
		return rest
	}
	return base
}

// Schema is handed to migration hooks. Statements run on the migration's transaction.
type Schema struct {
	tx     *sql.Tx
	store  core.Store
	logger *slog.Logger
}

// Table returns name with the store prefix.
func (s *Schema) Table(name string) string {
	return s.store.Prefix() + name
}

// Exec runs a raw statement.
func (s *Schema) Exec(ctx context.Context, statement string, args ...any) error {
	s.logger.Debug("migration statement", "sql", statement)
	if _, err := s.tx.ExecContext(ctx, statement, args...); err != nil {
		return fmt.Errorf("failed to execute migration statement: %w", err)
	}
	return nil
}

// CreateTable creates the prefixed table from column definitions.
// The store's collate clause, when configured, is appended as a table option.
func (s *Schema) CreateTable(ctx context.Context, name string, columns ...string) error {
	if len(columns) == 0 {
		return fmt.Errorf("table %s needs at least one column", name)
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		s.store.QuoteIdent(s.Table(name)), strings.Join(columns, ",\n\t"))
	if c := s.store.Collate(); c != "" {
		stmt += " " + c
	}
	return s.Exec(ctx, stmt)
}

// DropTable drops the prefixed table if it exists.
func (s *Schema) DropTable(ctx context.Context, name string) error {
	return s.Exec(ctx, "DROP TABLE IF EXISTS "+s.store.QuoteIdent(s.Table(name)))
}
