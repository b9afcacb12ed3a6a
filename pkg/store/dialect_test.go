package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDialect_Quote(t *testing.T) {
	tests := []struct {
		name    string
		dialect *Dialect
		value   any
		want    string
	}{
		{"nil", MySQL, nil, "NULL"},
		{"string", MySQL, "abc", "'abc'"},
		{"int", MySQL, 5, "'5'"},
		{"bool true", MySQL, true, "'1'"},
		{"bool false", SQLite, false, "'0'"},
		{"float", SQLite, 1.5, "'1.5'"},
		{"mysql quote", MySQL, "it's", `'it\'s'`},
		{"mysql backslash", MySQL, `a\b`, `'a\\b'`},
		{"mysql newline", MySQL, "a\nb", `'a\nb'`},
		{"ansi quote", SQLite, "it's", "'it''s'"},
		{"ansi backslash untouched", Postgres, `a\b`, `'a\b'`},
		{"time", Postgres, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "'2024-01-02 03:04:05'"},
		{"bytes", DuckDB, []byte("x"), "'x'"},
		{"non scalar", MySQL, []int{1}, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.Quote(tt.value))
		})
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	tests := []struct {
		name    string
		dialect *Dialect
		ident   string
		want    string
	}{
		{"mysql", MySQL, "wp_people", "`wp_people`"},
		{"mysql embedded quote", MySQL, "we`ird", "`we``ird`"},
		{"ansi", SQLite, "people", `"people"`},
		{"qualified", Postgres, "public.people", `"public"."people"`},
		{"star", MySQL, "*", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.QuoteIdent(tt.ident))
		})
	}
}

func TestDialect_FormatPlaceholder(t *testing.T) {
	assert.Equal(t, "?", MySQL.FormatPlaceholder(1))
	assert.Equal(t, "?", DuckDB.FormatPlaceholder(4))
	assert.Equal(t, "$1", Postgres.FormatPlaceholder(1))
	assert.Equal(t, "$12", Postgres.FormatPlaceholder(12))
}

func TestBindValue(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-01-02 03:04:05", BindValue(at))
	assert.Equal(t, "2024-01-02 03:04:05.5", BindValue(at.Add(500*time.Millisecond)))
	assert.Equal(t, 7, BindValue(7))
	assert.Nil(t, BindValue(nil))

	args := bindArgs([]any{"a", at})
	assert.Equal(t, []any{"a", "2024-01-02 03:04:05"}, args)
}
