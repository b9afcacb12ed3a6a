// Package config loads leaporm configuration from defaults, a YAML file,
// LEAPORM_ environment variables and command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/orm"
)

// Config is the complete leaporm configuration.
type Config struct {
	Store     core.StoreConfig `koanf:"store"`
	Log       LogConfig        `koanf:"log"`
	Server    ServerConfig     `koanf:"server"`
	Resources []ResourceConfig `koanf:"resources" validate:"dive"`
	Output    string           `koanf:"output" validate:"oneof=table json yaml"`
	Verbose   bool             `koanf:"verbose"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json pretty"`
}

// ServerConfig configures the HTTP resource layer.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// MaxLimit caps the page size of list requests.
	MaxLimit int `koanf:"max_limit" validate:"gte=0"`
}

// ResourceConfig exposes one table as a model resource.
type ResourceConfig struct {
	Table      string         `koanf:"table" validate:"required"`
	PrimaryKey string         `koanf:"primary_key"`
	Guarded    []string       `koanf:"guarded"`
	Defaults   map[string]any `koanf:"defaults"`
}

// Entity converts the resource into a model entity.
func (r ResourceConfig) Entity() orm.Entity {
	return orm.Entity{
		Table:      r.Table,
		PrimaryKey: r.PrimaryKey,
		Guarded:    r.Guarded,
		Defaults:   r.Defaults,
	}
}

// Resource returns the resource declared for table.
func (c *Config) Resource(table string) (ResourceConfig, bool) {
	for _, r := range c.Resources {
		if r.Table == table {
			return r, true
		}
	}
	return ResourceConfig{}, false
}
