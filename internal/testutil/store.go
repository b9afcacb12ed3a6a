package testutil

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/stores/sqlite"
	"github.com/stretchr/testify/require"
)

// PeopleTable is the fixture used across ORM, server and CLI tests.
const PeopleTable = `CREATE TABLE wp_people (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name VARCHAR(50) NOT NULL,
	age INT UNSIGNED NOT NULL,
	status VARCHAR(20) NULL
)`

// OpenSQLite opens an in-memory SQLite store with the "wp_" prefix and runs
// each statement against it. The store is closed on test cleanup.
func OpenSQLite(t testing.TB, statements ...string) *sqlite.Store {
	t.Helper()
	s := sqlite.New(NewTestLogger(t))
	require.NoError(t, s.Connect(context.Background(), core.StoreConfig{Type: "sqlite", Prefix: "wp_"}))
	t.Cleanup(func() { _ = s.Close() })

	for _, stmt := range statements {
		require.NoError(t, s.Exec(context.Background(), stmt))
	}
	return s
}

// OpenPeople opens an in-memory store holding the people fixture table.
func OpenPeople(t testing.TB) *sqlite.Store {
	t.Helper()
	return OpenSQLite(t, PeopleTable)
}
