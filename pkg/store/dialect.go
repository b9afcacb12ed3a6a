package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leaporm/pkg/schema"
)

// PlaceholderStyle selects how bind parameters are written.
type PlaceholderStyle int

// Placeholder styles.
const (
	// PlaceholderQuestion renders every parameter as "?".
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar renders parameters as "$1", "$2", ...
	PlaceholderDollar
)

// Dialect holds the statement-shaping rules of one backend.
type Dialect struct {
	Name        string
	IdentQuote  string
	Placeholder PlaceholderStyle
	// Returning is set when inserts report their identity through RETURNING.
	Returning bool
	// EmptyInsert is appended to "INSERT INTO t" when no column is written.
	EmptyInsert string
	// BackslashEscapes is set when string literals treat backslash as an escape.
	BackslashEscapes bool
	// Migrations names the goose dialect, empty when migrations are unsupported.
	Migrations string
}

// Predefined dialects.
var (
	MySQL = &Dialect{
		Name:             "mysql",
		IdentQuote:       "`",
		Placeholder:      PlaceholderQuestion,
		EmptyInsert:      "() VALUES ()",
		BackslashEscapes: true,
		Migrations:       "mysql",
	}
	SQLite = &Dialect{
		Name:        "sqlite",
		IdentQuote:  `"`,
		Placeholder: PlaceholderQuestion,
		EmptyInsert: "DEFAULT VALUES",
		Migrations:  "sqlite3",
	}
	Postgres = &Dialect{
		Name:        "postgres",
		IdentQuote:  `"`,
		Placeholder: PlaceholderDollar,
		Returning:   true,
		EmptyInsert: "DEFAULT VALUES",
		Migrations:  "postgres",
	}
	DuckDB = &Dialect{
		Name:        "duckdb",
		IdentQuote:  `"`,
		Placeholder: PlaceholderQuestion,
		Returning:   true,
		EmptyInsert: "DEFAULT VALUES",
	}
)

// FormatPlaceholder returns the placeholder for the n-th (1-based) parameter.
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes each dot-separated part of name.
func (d *Dialect) QuoteIdent(name string) string {
	if name == "*" {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = d.IdentQuote + strings.ReplaceAll(p, d.IdentQuote, d.IdentQuote+d.IdentQuote) + d.IdentQuote
	}
	return strings.Join(parts, ".")
}

// Quote renders value as a SQL literal: NULL, or a single-quoted string.
func (d *Dialect) Quote(value any) string {
	text, ok := schema.Stringify(schema.Coerce(BindValue(value)))
	if !ok {
		return "NULL"
	}
	if d.BackslashEscapes {
		return "'" + escapeBackslash(text) + "'"
	}
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}

var backslashEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"'", "\\'",
	`"`, `\"`,
	"\x00", "\\0",
	"\n", "\\n",
	"\r", "\\r",
	"\x1a", "\\Z",
)

// escapeBackslash mirrors the MySQL client's string escaping.
func escapeBackslash(s string) string {
	return backslashEscaper.Replace(s)
}

// BindValue converts a time.Time into the datetime text the stores keep, so
// bound parameters compare equal to stored values. Other values pass through.
func BindValue(value any) any {
	if t, ok := value.(time.Time); ok {
		text, _ := schema.Stringify(t)
		return text
	}
	return value
}

func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = BindValue(a)
	}
	return out
}
