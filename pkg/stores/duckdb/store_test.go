package duckdb

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Connect_Memory(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Connect(ctx, core.StoreConfig{Type: "duckdb"}))
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Exec(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body VARCHAR)"))

	res, err := s.Insert(ctx, core.Payload{Table: "notes", Data: map[string]any{"id": 7, "body": "hi"}, Key: "id"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.LastInsertID)

	row, err := s.GetRow(ctx, `SELECT body FROM "notes" WHERE "id" = ?`, 7)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "hi", row.Values["body"])
}

func TestStore_DescribeColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := New(nil)
	s.DB = db

	columns := []string{"column_name", "data_type", "character_maximum_length", "is_nullable", "column_default", "column_key"}
	mock.ExpectQuery(regexp.QuoteMeta("duckdb_constraints()")).
		WithArgs("analytics", "events").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id", "BIGINT", nil, "NO", "nextval('events_seq')", "PRI").
			AddRow("kind", "VARCHAR", nil, "YES", nil, ""))

	infos, err := s.DescribeColumns(context.Background(), "analytics.events")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "bigint", infos[0].Type)
	assert.Equal(t, "PRI", infos[0].Key)
	assert.Equal(t, "auto_increment", infos[0].Extra)
	assert.Equal(t, "varchar", infos[1].Type)
	assert.Equal(t, "YES", infos[1].Null)
	assert.NoError(t, mock.ExpectationsWereMet())
}
