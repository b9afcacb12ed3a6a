package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaporm/internal/config"
	"github.com/leapstack-labs/leaporm/pkg/orm"
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"github.com/leapstack-labs/leaporm/pkg/store"
)

type (
	configKey struct{}
	loggerKey struct{}
	storeKey  struct{}
)

// WithConfig stores the loaded configuration in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithStore makes commands use an already connected store instead of
// opening one from configuration. The caller keeps ownership of it.
func WithStore(ctx context.Context, st store.Backend) context.Context {
	return context.WithValue(ctx, storeKey{}, st)
}

// GetConfig retrieves the config from ctx, falling back to defaults.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Log:    config.LogConfig{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat},
		Output: config.DefaultOutput,
	}
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// openStore returns the store for the command and a release func.
func openStore(ctx context.Context) (store.Backend, func(), error) {
	if st, ok := ctx.Value(storeKey{}).(store.Backend); ok {
		return st, func() {}, nil
	}
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}, nil
}

// loadModel builds a prototype model for table. A configured resource
// supplies the entity; otherwise the primary key is read from the schema.
func loadModel(ctx context.Context, st store.Backend, table string) (*orm.Model, error) {
	cfg := GetConfig(ctx)
	if rc, ok := cfg.Resource(table); ok {
		return orm.New(ctx, st, rc.Entity(), nil)
	}

	ts, err := schema.Load(ctx, st, st.Prefix()+table)
	if err != nil {
		return nil, err
	}
	if ts.PrimaryKey() == "" {
		return nil, fmt.Errorf("table %s has no primary key", ts.Table())
	}
	return orm.NewWithSchema(st, orm.Entity{Table: table, PrimaryKey: ts.PrimaryKey()}, ts, nil)
}

// parsePairs splits col=value arguments.
func parsePairs(pairs []string) ([][2]string, error) {
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		col, val, ok := strings.Cut(p, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("expected column=value, got %q", p)
		}
		out = append(out, [2]string{col, val})
	}
	return out, nil
}
