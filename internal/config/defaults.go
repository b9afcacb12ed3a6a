package config

import "time"

// Default configuration values.
const (
	DefaultStoreType       = "sqlite"
	DefaultStorePath       = ":memory:"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultOutput          = "table"
	DefaultServerAddr      = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxLimit        = 500
)

// defaults is the lowest-precedence layer of the configuration.
func defaults() map[string]any {
	return map[string]any{
		"store.type":              DefaultStoreType,
		"store.path":              DefaultStorePath,
		"log.level":               DefaultLogLevel,
		"log.format":              DefaultLogFormat,
		"output":                  DefaultOutput,
		"verbose":                 false,
		"server.addr":             DefaultServerAddr,
		"server.read_timeout":     DefaultReadTimeout.String(),
		"server.write_timeout":    DefaultWriteTimeout.String(),
		"server.shutdown_timeout": DefaultShutdownTimeout.String(),
		"server.max_limit":        DefaultMaxLimit,
	}
}
