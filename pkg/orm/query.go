package orm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"github.com/leapstack-labs/leaporm/pkg/store"
)

// Condition is one conjunct of a WHERE clause.
type Condition struct {
	Column   string
	Operator Operator
	// Values holds the operands: none for null checks, two for BETWEEN.
	Values []any
}

// Query accumulates conditions against a model's table and hydrates
// matching rows into fresh model instances.
//
// Builder methods never fail; the first error is kept and returned by
// the terminal methods.
type Query struct {
	model      *Model
	conditions []Condition
	columns    []string
	limit      int
	offset     int
	err        error
}

// NewQuery starts an unfiltered, unlimited query over m's table.
func NewQuery(m *Model) *Query {
	return &Query{model: m}
}

// Err returns the first error recorded by a builder method.
func (q *Query) Err() error {
	return q.err
}

// Conditions returns a copy of the accumulated conditions.
func (q *Query) Conditions() []Condition {
	out := make([]Condition, len(q.conditions))
	copy(out, q.conditions)
	return out
}

// Where adds column = value, or column IS NULL when value is nil.
func (q *Query) Where(column string, value any) *Query {
	if value == nil {
		return q.add(column, IsNull)
	}
	return q.add(column, Equal, value)
}

// WhereNot adds column <> value, or column IS NOT NULL when value is nil.
func (q *Query) WhereNot(column string, value any) *Query {
	if value == nil {
		return q.add(column, IsNotNull)
	}
	return q.add(column, NotEqual, value)
}

// WhereKey filters on the primary key.
func (q *Query) WhereKey(id any) *Query {
	return q.Where(q.model.PrimaryColumn(), id)
}

// WhereOp adds a condition with an explicit operator.
// IN and BETWEEN take their operands through WhereIn and WhereBetween.
func (q *Query) WhereOp(column string, op Operator, value any) *Query {
	switch {
	case op.IsNullCheck():
		return q.add(column, op)
	case op.IsComparison():
		return q.add(column, op, value)
	}
	return q.fail(&core.ValidationError{
		Table:     q.model.Table(),
		Attribute: column,
		Reason:    fmt.Sprintf("cannot be filtered with %s through WhereOp", op),
	})
}

// WhereIn adds column IN (values...). At least one value is required.
func (q *Query) WhereIn(column string, values ...any) *Query {
	if len(values) == 0 {
		return q.fail(&core.ValidationError{Table: q.model.Table(), Attribute: column, Reason: "needs at least one IN value"})
	}
	return q.add(column, In, values...)
}

// WhereBetween adds column BETWEEN low AND high.
func (q *Query) WhereBetween(column string, low, high any) *Query {
	return q.add(column, Between, low, high)
}

// Select sets the default projection used when First or Get get no columns.
func (q *Query) Select(columns ...string) *Query {
	if err := q.checkColumns(columns); err != nil {
		return q.fail(err)
	}
	q.columns = columns
	return q
}

// Limit caps the number of rows. n <= 0 means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips n rows. Negative values are treated as 0.
func (q *Query) Offset(n int) *Query {
	q.offset = max(0, n)
	return q
}

// First returns the first matching row or nil.
func (q *Query) First(ctx context.Context, columns ...string) (*Model, error) {
	query, args, err := q.build(columns, 1)
	if err != nil {
		return nil, err
	}
	row, err := q.model.store.GetRow(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.model.Table(), err)
	}
	return q.model.Fresh().Init(row)
}

// Get returns every matching row. The slice is empty, not nil, when nothing matches.
func (q *Query) Get(ctx context.Context, columns ...string) ([]*Model, error) {
	query, args, err := q.build(columns, q.limit)
	if err != nil {
		return nil, err
	}
	rows, err := q.model.store.GetResults(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.model.Table(), err)
	}
	models := make([]*Model, 0, len(rows))
	for i := range rows {
		m, err := q.model.Fresh().Init(&rows[i])
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Count returns the number of matching rows, ignoring limit and offset.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	where, args := q.where(false)
	query := "SELECT COUNT(*) FROM " + q.model.store.QuoteIdent(q.model.Table()) + where
	v, err := q.model.store.GetVar(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", q.model.Table(), err)
	}
	return store.AsInt(v), nil
}

// Build renders the parameterized SELECT statement and its arguments.
func (q *Query) Build(columns ...string) (string, []any, error) {
	return q.build(columns, q.limit)
}

// SQL renders the SELECT statement with literals quoted inline.
// It is meant for display; execution goes through Build.
func (q *Query) SQL(columns ...string) (string, error) {
	query, _, err := q.render(columns, q.limit, true)
	return query, err
}

func (q *Query) build(columns []string, limit int) (string, []any, error) {
	return q.render(columns, limit, false)
}

func (q *Query) render(columns []string, limit int, literal bool) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(columns) == 0 {
		columns = q.columns
	}
	if err := q.checkColumns(columns); err != nil {
		return "", nil, err
	}

	st := q.model.store
	projection := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = st.QuoteIdent(c)
		}
		projection = strings.Join(quoted, ", ")
	}

	if limit <= 0 {
		limit = math.MaxInt64
	}

	where, args := q.where(literal)
	query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT %d OFFSET %d",
		projection, st.QuoteIdent(q.model.Table()), where, limit, q.offset)
	return query, args, nil
}

// where renders the WHERE clause. Placeholders are numbered from 1 unless
// literal is set, in which case values are quoted inline.
func (q *Query) where(literal bool) (string, []any) {
	if len(q.conditions) == 0 {
		return "", nil
	}
	st := q.model.store
	var args []any
	next := func(v any) string {
		if literal {
			return st.Quote(v)
		}
		args = append(args, v)
		return st.Placeholder(len(args))
	}

	parts := make([]string, 0, len(q.conditions))
	for _, c := range q.conditions {
		col := st.QuoteIdent(c.Column)
		switch c.Operator {
		case IsNull, IsNotNull:
			parts = append(parts, col+" "+string(c.Operator))
		case In:
			marks := make([]string, len(c.Values))
			for i, v := range c.Values {
				marks[i] = next(v)
			}
			parts = append(parts, col+" IN ("+strings.Join(marks, ", ")+")")
		case Between:
			low := next(c.Values[0])
			high := next(c.Values[1])
			parts = append(parts, col+" BETWEEN "+low+" AND "+high)
		default:
			parts = append(parts, col+" "+string(c.Operator)+" "+next(c.Values[0]))
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func (q *Query) add(column string, op Operator, values ...any) *Query {
	if q.err != nil {
		return q
	}
	if !q.model.schema.Has(column) {
		return q.fail(&core.SchemaError{Table: q.model.Table(), Column: column})
	}
	coerced := make([]any, len(values))
	for i, v := range values {
		if !schema.IsScalar(v) {
			return q.fail(&core.ValidationError{
				Table:     q.model.Table(),
				Attribute: column,
				Reason:    fmt.Sprintf("cannot be filtered by a %T value", v),
			})
		}
		coerced[i] = store.BindValue(schema.Coerce(v))
	}
	q.conditions = append(q.conditions, Condition{Column: column, Operator: op, Values: coerced})
	return q
}

func (q *Query) checkColumns(columns []string) error {
	for _, c := range columns {
		if c == "*" {
			continue
		}
		if !q.model.schema.Has(c) {
			return &core.SchemaError{Table: q.model.Table(), Column: c}
		}
	}
	return nil
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}
