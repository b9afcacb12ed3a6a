package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leaporm/pkg/stores/sqlite"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("store", "", "")
	fs.String("path", "", "")
	fs.String("prefix", "", "")
	fs.String("log-level", "", "")
	fs.String("addr", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("dry-run", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, ":memory:", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DefaultMaxLimit, cfg.Server.MaxLimit)
}

func TestLoad_FileEnvFlagsPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
store:
  type: sqlite
  path: data/app.db
  prefix: file_
log:
  level: debug
  format: json
server:
  addr: ":9000"
  write_timeout: 30s
resources:
  - table: people
    guarded: [id, created_at]
    defaults:
      status: draft
  - table: tags
    primary_key: tag_id
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := Load("", nil)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.File)
		assert.Equal(t, "file_", cfg.Store.Prefix)
		assert.Equal(t, filepath.Join(dir, "data", "app.db"), cfg.Store.Path)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "defaults fill unset keys")

		require.Len(t, cfg.Resources, 2)
		people, ok := cfg.Resource("people")
		require.True(t, ok)
		entity := people.Entity()
		assert.Equal(t, "people", entity.Table)
		assert.Equal(t, []string{"id", "created_at"}, entity.Guarded)
		assert.Equal(t, "draft", entity.Defaults["status"])

		tags, ok := cfg.Resource("tags")
		require.True(t, ok)
		assert.Equal(t, "tag_id", tags.PrimaryKey)
		assert.Nil(t, tags.Guarded)

		_, ok = cfg.Resource("ghosts")
		assert.False(t, ok)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("LEAPORM_STORE__PREFIX", "env_")
		t.Setenv("LEAPORM_LOG__LEVEL", "warn")

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "env_", cfg.Store.Prefix)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("LEAPORM_STORE__PREFIX", "env_")

		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--prefix", "flag_", "-o", "json", "--path", "other.db", "--dry-run"}))

		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "flag_", cfg.Store.Prefix)
		assert.Equal(t, "json", cfg.Output)
		assert.Equal(t, "other.db", cfg.Store.Path, "flag paths are not rebased")
		assert.Equal(t, "debug", cfg.Log.Level, "unset flags leave file values")
	})
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	other := t.TempDir()
	path := writeConfig(t, other, "store:\n  type: sqlite\n  prefix: x_\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "x_", cfg.Store.Prefix)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LEAPORM_TEST_PASSWORD", "s3cret")
	writeConfig(t, dir, "store:\n  type: sqlite\n  password: ${LEAPORM_TEST_PASSWORD}\n  username: ${LEAPORM_TEST_MISSING}\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Store.Password)
	assert.Equal(t, "${LEAPORM_TEST_MISSING}", cfg.Store.Username)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown store", content: "store:\n  type: oracle\n", wantErr: `unknown store type "oracle"`},
		{name: "bad log level", content: "log:\n  level: loud\n", wantErr: "Level"},
		{name: "bad port", content: "store:\n  port: 70000\n", wantErr: "Port"},
		{name: "resource without table", content: "resources:\n  - primary_key: id\n", wantErr: "Table"},
		{name: "duplicate resource", content: "resources:\n  - table: a\n  - table: a\n", wantErr: `resource "a" is declared twice`},
		{name: "bad output", content: "output: xml\n", wantErr: "Output"},
		{name: "malformed yaml", content: "store: [\n", wantErr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.content)

			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	assert.Empty(t, FindConfigFile(nested))

	path := filepath.Join(root, ConfigFileNameAlt)
	require.NoError(t, os.WriteFile(path, []byte("output: json\n"), 0o600))
	assert.Equal(t, path, FindConfigFile(nested))
}
