package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leaporm.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leaporm.yml"

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: LEAPORM_STORE__TYPE sets store.type.
const EnvPrefix = "LEAPORM_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names whose config key is not the snake_cased flag name.
var flagKeys = map[string]string{
	"store":      "store.type",
	"path":       "store.path",
	"database":   "store.database",
	"host":       "store.host",
	"port":       "store.port",
	"user":       "store.username",
	"password":   "store.password",
	"prefix":     "store.prefix",
	"log-level":  "log.level",
	"log-format": "log.format",
	"addr":       "server.addr",
}

// Loaded is a loaded configuration along with the file it came from.
type Loaded struct {
	*Config
	// File is the config file that was read, empty when none was found.
	File string
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// When cfgFile is empty, leaporm.yaml or leaporm.yml is searched for upward
// from the working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = FindConfigFile(cwd)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: LEAPORM_STORE__PREFIX -> store.prefix
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			if strings.Contains(f.Name, "-") {
				// only mapped flags feed the config
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	expandStoreEnvVars(&cfg)
	if cfg.Store.Path != "" && cfg.Store.Path != DefaultStorePath && cfgFile != "" && !filepath.IsAbs(cfg.Store.Path) && !flagChanged(flags, "path") {
		// file-based stores are resolved against the config file directory
		cfg.Store.Path = filepath.Join(filepath.Dir(cfgFile), cfg.Store.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Loaded{Config: &cfg, File: cfgFile}, nil
}

// FindConfigFile searches startDir and its parents for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func FindConfigFile(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	return flags != nil && flags.Changed(name)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandStoreEnvVars expands environment variables in connection fields.
func expandStoreEnvVars(c *Config) {
	c.Store.Host = expandEnvVars(c.Store.Host)
	c.Store.Database = expandEnvVars(c.Store.Database)
	c.Store.Username = expandEnvVars(c.Store.Username)
	c.Store.Password = expandEnvVars(c.Store.Password)
	c.Store.Path = expandEnvVars(c.Store.Path)
}
