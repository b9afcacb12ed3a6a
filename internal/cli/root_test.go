package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaporm/internal/testutil"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/stores/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// peopleDB creates a SQLite file holding the people fixture.
func peopleDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	st := sqlite.New(testutil.NewTestLogger(t))
	ctx := context.Background()
	require.NoError(t, st.Connect(ctx, core.StoreConfig{Type: "sqlite", Path: path, Prefix: "wp_"}))
	require.NoError(t, st.Exec(ctx, testutil.PeopleTable))
	require.NoError(t, st.Exec(ctx, "INSERT INTO wp_people (name, age, status) VALUES ('ada', 36, 'live')"))
	require.NoError(t, st.Close())
	return path
}

func TestRoot_Version(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leaporm v"+Version)
}

func TestRoot_FlagsReachCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	db := peopleDB(t)

	out, err := run(t, "rows", "people", "--store", "sqlite", "--path", db, "--prefix", "wp_", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "ada"`)

	out, err = run(t, "count", "people", "--path", db, "--prefix", "wp_")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestRoot_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "count", "people", "--store", "oracle")
	assert.ErrorContains(t, err, `unknown store type "oracle"`)

	_, err = run(t, "count", "people", "--log-format", "xml")
	assert.ErrorContains(t, err, "Format")
}

func TestRoot_Completion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leaporm")
}
