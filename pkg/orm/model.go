package orm

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/leapstack-labs/leaporm/pkg/core"
	"github.com/leapstack-labs/leaporm/pkg/schema"
	"github.com/leapstack-labs/leaporm/pkg/store"
)

// DefaultPrimaryKey is used when an Entity names no primary key.
const DefaultPrimaryKey = "id"

// Entity declares how a model maps onto a table.
type Entity struct {
	// Table is the unprefixed table name; the store prefix is prepended.
	Table string
	// PrimaryKey defaults to "id".
	PrimaryKey string
	// Guarded names attributes that Set refuses and that are never persisted.
	// A nil slice guards the primary key; an empty non-nil slice guards nothing.
	Guarded []string
	// Defaults are applied to every new instance before its initial attributes.
	Defaults map[string]any
}

func (e Entity) normalize() Entity {
	if e.PrimaryKey == "" {
		e.PrimaryKey = DefaultPrimaryKey
	}
	if e.Guarded == nil {
		e.Guarded = []string{e.PrimaryKey}
	}
	return e
}

// State tracks where a model is in its lifecycle.
type State string

// Model lifecycle states.
const (
	StateNew       State = "new"
	StateHydrated  State = "hydrated"
	StateMutated   State = "mutated"
	StatePersisted State = "persisted"
	StateDeleted   State = "deleted"
)

// Model is an active-record style row bound to a table schema and a store.
// A Model is not safe for concurrent use.
type Model struct {
	store    core.Store
	entity   Entity
	schema   *schema.TableSchema
	attrs    *Attributes
	original *Attributes
	state    State
}

// New loads the schema of entity's table from st and returns a model
// carrying the entity defaults and then attrs.
func New(ctx context.Context, st core.Store, entity Entity, attrs map[string]any) (*Model, error) {
	entity = entity.normalize()
	ts, err := schema.Load(ctx, st, st.Prefix()+entity.Table)
	if err != nil {
		return nil, err
	}
	return NewWithSchema(st, entity, ts, attrs)
}

// NewWithSchema builds a model from an already loaded schema.
func NewWithSchema(st core.Store, entity Entity, ts *schema.TableSchema, attrs map[string]any) (*Model, error) {
	entity = entity.normalize()
	if !ts.IsPrimary(entity.PrimaryKey) {
		return nil, &core.ValidationError{
			Table:     ts.Table(),
			Attribute: entity.PrimaryKey,
			Reason:    fmt.Sprintf("is not the primary key of %s table", ts.Table()),
		}
	}

	m := &Model{
		store:    st,
		entity:   entity,
		schema:   ts,
		attrs:    NewAttributes(),
		original: NewAttributes(),
		state:    StateNew,
	}
	for _, k := range sortedKeys(entity.Defaults) {
		m.attrs.Set(k, schema.Coerce(entity.Defaults[k]))
	}
	if err := m.Fill(attrs); err != nil {
		return nil, err
	}
	return m, nil
}

// Fresh returns an empty instance sharing the schema, store and entity.
// Entity defaults are not applied.
func (m *Model) Fresh() *Model {
	return &Model{
		store:    m.store,
		entity:   m.entity,
		schema:   m.schema,
		attrs:    NewAttributes(),
		original: NewAttributes(),
		state:    StateNew,
	}
}

// Make returns a new instance of the same entity with defaults and attrs applied.
func (m *Model) Make(attrs map[string]any) (*Model, error) {
	return NewWithSchema(m.store, m.entity, m.schema, attrs)
}

// Table returns the prefixed table name.
func (m *Model) Table() string {
	return m.schema.Table()
}

// PrimaryColumn returns the primary key column name.
func (m *Model) PrimaryColumn() string {
	return m.entity.PrimaryKey
}

// Schema returns the table schema the model validates against.
func (m *Model) Schema() *schema.TableSchema {
	return m.schema
}

// Store returns the backing store.
func (m *Model) Store() core.Store {
	return m.store
}

// State returns the lifecycle state.
func (m *Model) State() State {
	return m.state
}

// IsGuarded reports whether name is a guarded attribute.
func (m *Model) IsGuarded(name string) bool {
	return slices.Contains(m.entity.Guarded, name)
}

// Get returns the attribute value or nil when unset.
func (m *Model) Get(name string) any {
	v, _ := m.attrs.Get(name)
	return v
}

// Has reports whether the attribute is set to a non-nil value.
func (m *Model) Has(name string) bool {
	return m.attrs.Has(name)
}

// Set validates value against the column and stores it.
// Booleans are stored as 0 or 1.
func (m *Model) Set(name string, value any) error {
	if err := m.checkLive("set " + name); err != nil {
		return err
	}
	if m.IsGuarded(name) {
		return &core.ValidationError{Table: m.Table(), Attribute: name, Reason: "is guarded and cannot be assigned"}
	}
	value = schema.Coerce(value)
	ok, err := m.schema.ValidateColumn(name, value)
	if err != nil {
		return err
	}
	if !ok {
		return &core.ValidationError{Table: m.Table(), Attribute: name, Reason: "is not valid"}
	}
	if t, ok := value.(time.Time); ok {
		if c, _ := m.schema.Column(name); c.Type.Category == schema.CategoryDatetime {
			value = schema.FormatTime(c.Type.Base, t)
		}
	}
	m.attrs.Set(name, value)
	m.state = StateMutated
	return nil
}

// Unset clears an attribute to the empty string.
func (m *Model) Unset(name string) {
	if m.state == StateDeleted {
		return
	}
	m.attrs.Set(name, "")
	m.state = StateMutated
}

// Fill sets each attribute in name order. The first failure aborts;
// attributes already applied stay applied.
func (m *Model) Fill(attrs map[string]any) error {
	for _, k := range sortedKeys(attrs) {
		if err := m.Set(k, attrs[k]); err != nil {
			return err
		}
	}
	return nil
}

// Init hydrates the model from a fetched row and records the row as the
// original snapshot. Guards are not applied. A nil row yields a nil model.
func (m *Model) Init(row *core.Row) (*Model, error) {
	if row == nil {
		return nil, nil
	}
	for _, col := range row.Columns {
		v := m.schema.Cast(col, row.Values[col])
		ok, err := m.schema.ValidateColumn(col, schema.Coerce(v))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &core.ValidationError{Table: m.Table(), Attribute: col, Reason: "holds a value that does not match its column type"}
		}
		m.attrs.Set(col, v)
		m.original.Set(col, v)
	}
	m.state = StateHydrated
	return m, nil
}

// Attributes returns the persistable projection: every attribute that is not guarded.
func (m *Model) Attributes() map[string]any {
	out := make(map[string]any, m.attrs.Len())
	for _, k := range m.attrs.Keys() {
		if m.IsGuarded(k) {
			continue
		}
		v, _ := m.attrs.Get(k)
		out[k] = v
	}
	return out
}

// ToMap returns every attribute, guarded ones included.
func (m *Model) ToMap() map[string]any {
	return m.attrs.Map()
}

// Keys returns the attribute names in the order they were first set.
func (m *Model) Keys() []string {
	return m.attrs.Keys()
}

// Original returns the snapshot taken at hydration or after the last write.
func (m *Model) Original() map[string]any {
	return m.original.Map()
}

// MarshalJSON encodes every attribute in insertion order.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.attrs)
}

// ValidateAttributes checks every schema column except the primary key,
// and rejects attributes the schema does not know.
func (m *Model) ValidateAttributes() error {
	return m.validate(m.schema.Columns())
}

// validatePresent checks only the attributes currently set.
func (m *Model) validatePresent() error {
	return m.validate(m.attrs.Keys())
}

func (m *Model) validate(columns []string) error {
	var unknown []string
	for _, k := range m.attrs.Keys() {
		if !m.schema.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return &core.ValidationError{Table: m.Table(), Unrecognized: unknown}
	}

	for _, col := range columns {
		if m.schema.IsPrimary(col) {
			continue
		}
		v, _ := m.attrs.Get(col)
		v = schema.Coerce(v)
		if schema.IsEmpty(v) && !m.schema.IsNullable(col) {
			return &core.ValidationError{Table: m.Table(), Attribute: col, Reason: "cannot be null"}
		}
		ok, err := m.schema.ValidateColumn(col, v)
		if err != nil {
			return err
		}
		if !ok {
			return &core.ValidationError{Table: m.Table(), Attribute: col, Reason: "is not valid"}
		}
	}
	return nil
}

// TotalItems counts the rows of the model's table.
func (m *Model) TotalItems(ctx context.Context) (int64, error) {
	v, err := m.store.GetVar(ctx, "SELECT COUNT(*) FROM "+m.store.QuoteIdent(m.Table()))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", m.Table(), err)
	}
	return store.AsInt(v), nil
}

// Save validates every column and inserts the persistable attributes.
// On success the primary key attribute holds the new id, which is returned.
func (m *Model) Save(ctx context.Context) (int64, error) {
	if err := m.checkLive("save"); err != nil {
		return 0, err
	}
	if err := m.ValidateAttributes(); err != nil {
		return 0, err
	}

	pk := m.PrimaryColumn()
	data := m.Attributes()
	res, err := m.store.Insert(ctx, core.Payload{Table: m.Table(), Data: data, Key: pk})
	if err != nil {
		return 0, &core.PersistenceError{Table: m.Table(), Op: "save", Err: err}
	}

	id := res.LastInsertID
	if explicit, ok := data[pk]; ok && explicit != nil {
		id = store.AsInt(explicit)
	} else {
		m.attrs.Set(pk, id)
	}
	m.commit()
	m.store.Logger().Debug("model saved", "table", m.Table(), "id", id)
	return id, nil
}

// Update validates the attributes that are set and writes them to the row
// identified by the primary key. When the key is not set it is looked up
// through the original snapshot.
func (m *Model) Update(ctx context.Context) error {
	if err := m.checkLive("update"); err != nil {
		return err
	}
	if err := m.validatePresent(); err != nil {
		return err
	}

	pk := m.PrimaryColumn()
	key := m.Get(pk)
	if key == nil {
		found, err := m.fetchPrimaryKey(ctx)
		if err != nil {
			return err
		}
		if found == nil {
			return &core.LogicError{Op: "update", Reason: "the primary key value cannot be resolved"}
		}
		key = found
	}

	_, err := m.store.Update(ctx, core.Payload{
		Table: m.Table(),
		Data:  m.Attributes(),
		Where: map[string]any{pk: key},
		Key:   pk,
	})
	if err != nil {
		return &core.PersistenceError{Table: m.Table(), Op: "update", Err: err}
	}
	if !m.attrs.Has(pk) {
		m.attrs.Set(pk, key)
	}
	m.commit()
	m.store.Logger().Debug("model updated", "table", m.Table(), "id", key)
	return nil
}

// SaveOrUpdate updates when the model exists and saves otherwise.
func (m *Model) SaveOrUpdate(ctx context.Context) error {
	exists, err := m.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return m.Update(ctx)
	}
	_, err = m.Save(ctx)
	return err
}

// Exists reports whether the model corresponds to a stored row. A set primary
// key is trusted; otherwise the original snapshot is looked up.
func (m *Model) Exists(ctx context.Context) (bool, error) {
	if m.Has(m.PrimaryColumn()) {
		return true, nil
	}
	key, err := m.fetchPrimaryKey(ctx)
	if err != nil {
		return false, err
	}
	return key != nil, nil
}

// Delete removes the row identified by the primary key attribute.
func (m *Model) Delete(ctx context.Context) error {
	if err := m.checkLive("delete"); err != nil {
		return err
	}
	pk := m.PrimaryColumn()
	key := m.Get(pk)
	if schema.IsEmpty(key) {
		return &core.LogicError{Op: "delete", Reason: "the model does not exist"}
	}

	_, err := m.store.Delete(ctx, core.Payload{Table: m.Table(), Where: map[string]any{pk: key}, Key: pk})
	if err != nil {
		return &core.PersistenceError{Table: m.Table(), Op: "delete", Err: err}
	}
	m.state = StateDeleted
	m.store.Logger().Debug("model deleted", "table", m.Table(), "id", key)
	return nil
}

// Query starts a query over the model's table.
func (m *Model) Query() *Query {
	return NewQuery(m)
}

// QueryFromOriginal builds an equality query from the original snapshot.
func (m *Model) QueryFromOriginal() *Query {
	q := m.Query()
	for _, k := range m.original.Keys() {
		v, _ := m.original.Get(k)
		q = q.Where(k, v)
	}
	return q
}

// Find returns the row whose primary key equals id, or nil.
func (m *Model) Find(ctx context.Context, id any, columns ...string) (*Model, error) {
	return m.Query().WhereKey(id).First(ctx, columns...)
}

// All returns up to limit rows starting at offset. A limit <= 0 means no limit.
func (m *Model) All(ctx context.Context, limit, offset int, columns ...string) ([]*Model, error) {
	return m.Query().Limit(limit).Offset(offset).Get(ctx, columns...)
}

// Where starts a query filtered by column = value (IS NULL for nil).
func (m *Model) Where(column string, value any) *Query {
	return m.Query().Where(column, value)
}

// FirstWhere returns the first row where column = value, or nil.
func (m *Model) FirstWhere(ctx context.Context, column string, value any, columns ...string) (*Model, error) {
	return m.Where(column, value).First(ctx, columns...)
}

// fetchPrimaryKey looks up the primary key of the row matching the original snapshot.
func (m *Model) fetchPrimaryKey(ctx context.Context) (any, error) {
	if m.original.Len() == 0 {
		return nil, nil
	}
	pk := m.PrimaryColumn()
	found, err := m.QueryFromOriginal().First(ctx, pk)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	return found.Get(pk), nil
}

func (m *Model) commit() {
	m.original = m.attrs.Clone()
	m.state = StatePersisted
}

func (m *Model) checkLive(op string) error {
	if m.state == StateDeleted {
		return &core.LogicError{Op: op, Reason: "the model has been deleted"}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
