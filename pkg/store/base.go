package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// BaseSQLStore provides common database/sql functionality for stores.
// Embed this struct in concrete backends; they only add Connect and
// DescribeColumns.
type BaseSQLStore struct {
	DB      *sql.DB
	Cfg     core.StoreConfig
	Log     *slog.Logger
	Dialect *Dialect
	Metrics *Metrics
}

// Name returns the dialect name.
func (b *BaseSQLStore) Name() string {
	if b.Dialect == nil {
		return ""
	}
	return b.Dialect.Name
}

// SQLDialect returns the dialect the store renders statements in.
func (b *BaseSQLStore) SQLDialect() *Dialect {
	return b.Dialect
}

// Close closes the database connection.
func (b *BaseSQLStore) Close() error {
	if b.DB != nil {
		b.log().Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLStore) IsConnected() bool {
	return b.DB != nil
}

// Handle returns the underlying connection pool.
func (b *BaseSQLStore) Handle() *sql.DB {
	return b.DB
}

// Prefix returns the configured table-name prefix.
func (b *BaseSQLStore) Prefix() string {
	return b.Cfg.Prefix
}

// Collate returns the configured table collation clause.
func (b *BaseSQLStore) Collate() string {
	return b.Cfg.Collate
}

// Logger returns the store logger, never nil.
func (b *BaseSQLStore) Logger() *slog.Logger {
	return b.log()
}

// SetMetrics attaches statement metrics.
func (b *BaseSQLStore) SetMetrics(m *Metrics) {
	b.Metrics = m
}

// Quote renders value as a SQL literal for this dialect.
func (b *BaseSQLStore) Quote(value any) string {
	return b.Dialect.Quote(value)
}

// QuoteIdent renders name as a quoted identifier for this dialect.
func (b *BaseSQLStore) QuoteIdent(name string) string {
	return b.Dialect.QuoteIdent(name)
}

// Placeholder returns the bind placeholder for the n-th parameter.
func (b *BaseSQLStore) Placeholder(n int) string {
	return b.Dialect.FormatPlaceholder(n)
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLStore) Exec(ctx context.Context, statement string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	start := time.Now()
	_, err := b.DB.ExecContext(ctx, statement)
	b.observe("exec", statement, nil, start, err)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// GetResults executes a query and returns all rows.
func (b *BaseSQLStore) GetResults(ctx context.Context, query string, args ...any) ([]core.Row, error) {
	return b.fetch(ctx, "select", query, args, 0)
}

// GetRow executes a query and returns its first row, or nil.
func (b *BaseSQLStore) GetRow(ctx context.Context, query string, args ...any) (*core.Row, error) {
	rows, err := b.fetch(ctx, "select", query, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetVar executes a query and returns the first column of the first row.
func (b *BaseSQLStore) GetVar(ctx context.Context, query string, args ...any) (any, error) {
	rows, err := b.fetch(ctx, "select", query, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0].Columns) == 0 {
		return nil, nil
	}
	return rows[0].Values[rows[0].Columns[0]], nil
}

// fetch runs query and scans at most limit rows (0 means all).
func (b *BaseSQLStore) fetch(ctx context.Context, op, query string, args []any, limit int) ([]core.Row, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	args = bindArgs(args)

	start := time.Now()
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		b.observe(op, query, args, start, err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		b.observe(op, query, args, start, err)
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := make([]core.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			b.observe(op, query, args, start, err)
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if raw, ok := v.([]byte); ok {
				values[i] = string(raw)
			}
		}
		out = append(out, *core.NewRow(columns, values))
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	if err := rows.Err(); err != nil {
		b.observe(op, query, args, start, err)
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	b.observe(op, query, args, start, nil)
	b.Metrics.addRows(b.Name(), len(out))
	return out, nil
}

// Insert writes p.Data into p.Table.
func (b *BaseSQLStore) Insert(ctx context.Context, p core.Payload) (core.Result, error) {
	if b.DB == nil {
		return core.Result{}, fmt.Errorf("database connection not established")
	}

	columns := sortedKeys(p.Data)
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.QuoteIdent(p.Table))

	args := make([]any, 0, len(columns))
	if len(columns) == 0 {
		sb.WriteString(" ")
		sb.WriteString(b.Dialect.EmptyInsert)
	} else {
		names := make([]string, len(columns))
		marks := make([]string, len(columns))
		for i, c := range columns {
			names[i] = b.QuoteIdent(c)
			marks[i] = b.Placeholder(i + 1)
			args = append(args, BindValue(p.Data[c]))
		}
		fmt.Fprintf(&sb, " (%s) VALUES (%s)", strings.Join(names, ", "), strings.Join(marks, ", "))
	}

	if b.Dialect.Returning && p.Key != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(b.QuoteIdent(p.Key))
		query := sb.String()

		start := time.Now()
		var id any
		err := b.DB.QueryRowContext(ctx, query, args...).Scan(&id)
		b.observe("insert", query, args, start, err)
		if err != nil {
			return core.Result{}, fmt.Errorf("failed to insert into %s: %w", p.Table, err)
		}
		return core.Result{LastInsertID: toInt64(id), RowsAffected: 1}, nil
	}

	query := sb.String()
	start := time.Now()
	res, err := b.DB.ExecContext(ctx, query, args...)
	b.observe("insert", query, args, start, err)
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to insert into %s: %w", p.Table, err)
	}

	out := core.Result{}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

// Update writes p.Data into the rows matching p.Where.
// An empty p.Data is a no-op.
func (b *BaseSQLStore) Update(ctx context.Context, p core.Payload) (core.Result, error) {
	if b.DB == nil {
		return core.Result{}, fmt.Errorf("database connection not established")
	}
	if len(p.Where) == 0 {
		return core.Result{}, fmt.Errorf("refusing to update %s without a filter", p.Table)
	}

	columns := sortedKeys(p.Data)
	if len(columns) == 0 {
		return core.Result{}, nil
	}

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+len(p.Where))
	for i, c := range columns {
		sets[i] = b.QuoteIdent(c) + " = " + b.Placeholder(i+1)
		args = append(args, BindValue(p.Data[c]))
	}
	where, whereArgs := b.whereClause(p.Where, len(args)+1)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", b.QuoteIdent(p.Table), strings.Join(sets, ", "), where)
	return b.write(ctx, "update", p.Table, query, args)
}

// Delete removes the rows matching p.Where.
func (b *BaseSQLStore) Delete(ctx context.Context, p core.Payload) (core.Result, error) {
	if b.DB == nil {
		return core.Result{}, fmt.Errorf("database connection not established")
	}
	if len(p.Where) == 0 {
		return core.Result{}, fmt.Errorf("refusing to delete from %s without a filter", p.Table)
	}

	where, args := b.whereClause(p.Where, 1)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", b.QuoteIdent(p.Table), where)
	return b.write(ctx, "delete", p.Table, query, args)
}

func (b *BaseSQLStore) write(ctx context.Context, op, table, query string, args []any) (core.Result, error) {
	start := time.Now()
	res, err := b.DB.ExecContext(ctx, query, args...)
	b.observe(op, query, args, start, err)
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to %s %s: %w", op, table, err)
	}
	out := core.Result{}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

// whereClause renders equality filters joined by AND, numbering
// placeholders from start. Nil values render IS NULL.
func (b *BaseSQLStore) whereClause(where map[string]any, start int) (string, []any) {
	keys := sortedKeys(where)
	parts := make([]string, len(keys))
	args := make([]any, 0, len(keys))
	n := start
	for i, k := range keys {
		v := where[k]
		if v == nil {
			parts[i] = b.QuoteIdent(k) + " IS NULL"
			continue
		}
		parts[i] = b.QuoteIdent(k) + " = " + b.Placeholder(n)
		args = append(args, BindValue(v))
		n++
	}
	return strings.Join(parts, " AND "), args
}

func (b *BaseSQLStore) observe(op, query string, args []any, start time.Time, err error) {
	elapsed := time.Since(start)
	b.Metrics.observe(b.Name(), op, elapsed, err)

	if err != nil {
		b.log().Warn("statement failed",
			slog.String("op", op),
			slog.String("sql", query),
			slog.String("error", err.Error()))
		return
	}
	b.log().Debug("statement executed",
		slog.String("op", op),
		slog.String("sql", query),
		slog.Int("args", len(args)),
		slog.Duration("duration", elapsed))
}

func (b *BaseSQLStore) log() *slog.Logger {
	if b.Log == nil {
		b.Log = slog.New(slog.DiscardHandler)
	}
	return b.Log
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case uint32:
		return int64(n)
	case []byte:
		var out int64
		_, _ = fmt.Sscan(string(n), &out)
		return out
	case string:
		var out int64
		_, _ = fmt.Sscan(n, &out)
		return out
	}
	return 0
}
