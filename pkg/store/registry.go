package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// Backend is a store that can be connected from configuration.
type Backend interface {
	core.Store

	// Connect opens and pings the database described by cfg.
	Connect(ctx context.Context, cfg core.StoreConfig) error

	// Handle returns the underlying connection pool, nil before Connect.
	Handle() *sql.DB

	// SetMetrics attaches statement metrics.
	SetMetrics(m *Metrics)

	// SQLDialect returns the rendering and migration dialect.
	SQLDialect() *Dialect
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Backend)
)

// Register adds a backend factory to the registry.
// Called by backend implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a backend factory by name.
func Get(name string) (func(*slog.Logger) Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates an unconnected backend based on config type.
// The logger parameter is passed to the backend constructor (nil uses discard logger).
func New(cfg core.StoreConfig, logger *slog.Logger) (Backend, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("store type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownStoreError{
			Type:      cfg.Type,
			Available: ListStores(),
		}
	}
	return factory(logger), nil
}

// Open creates a backend and connects it.
func Open(ctx context.Context, cfg core.StoreConfig, logger *slog.Logger) (Backend, error) {
	b, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := b.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	return b, nil
}

// ListStores returns all registered backend names (sorted).
func ListStores() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownStoreError is returned when an unknown store type is requested.
type UnknownStoreError struct {
	Type      string
	Available []string
}

func (e *UnknownStoreError) Error() string {
	return fmt.Sprintf("unknown store type %q\nAvailable stores: %v\nHint: Check your store.type in leaporm.yaml", e.Type, e.Available)
}
