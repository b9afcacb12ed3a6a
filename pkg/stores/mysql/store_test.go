package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      core.StoreConfig
		contains []string
	}{
		{
			name:     "defaults",
			cfg:      core.StoreConfig{Database: "app"},
			contains: []string{"tcp(localhost:3306)/app"},
		},
		{
			name: "credentials and options",
			cfg: core.StoreConfig{
				Host:     "db.internal",
				Port:     3307,
				Database: "wp",
				Username: "wp",
				Password: "secret",
				Options:  map[string]string{"charset": "utf8mb4", "tls": "skip-verify"},
			},
			contains: []string{"wp:secret@tcp(db.internal:3307)/wp", "charset=utf8mb4", "tls=skip-verify"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildMySQLDSN(tt.cfg)
			for _, want := range tt.contains {
				assert.Contains(t, dsn, want)
			}
		})
	}
}

func TestStore_DescribeColumns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := New(nil)
	s.DB = db

	mock.ExpectQuery("SHOW COLUMNS FROM `wp_people`").
		WillReturnRows(sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow([]byte("id"), []byte("int(10) unsigned"), []byte("NO"), []byte("PRI"), nil, []byte("auto_increment")).
			AddRow([]byte("status"), []byte("enum('draft','published')"), []byte("YES"), []byte(""), []byte("draft"), []byte("")))

	infos, err := s.DescribeColumns(context.Background(), "wp_people")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "id", infos[0].Field)
	assert.Equal(t, "PRI", infos[0].Key)
	assert.Equal(t, "auto_increment", infos[0].Extra)
	assert.Nil(t, infos[0].Default)

	assert.Equal(t, "enum('draft','published')", infos[1].Type)
	require.NotNil(t, infos[1].Default)
	assert.Equal(t, "draft", *infos[1].Default)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DescribeColumns_Error(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := New(nil)
	s.DB = db
	mock.ExpectQuery("SHOW COLUMNS FROM `missing`").WillReturnError(assert.AnError)

	_, err = s.DescribeColumns(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to describe missing")
}

func TestRegistered(t *testing.T) {
	assert.True(t, store.IsRegistered("mysql"))

	b, err := store.New(core.StoreConfig{Type: "mysql"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", b.Name())
	assert.Equal(t, "'it\\'s'", b.Quote("it's"))
}
