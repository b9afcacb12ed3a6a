// Package orm maps table rows onto validated, active-record style models.
//
// A Model is bound to one table. Its schema is described through a
// core.Store when the model is built, and every attribute write is checked
// against the column's declared type, length and nullability:
//
//	m, err := orm.New(ctx, st, orm.Entity{Table: "people"}, map[string]any{"name": "a", "age": 5})
//	id, err := m.Save(ctx)
//	found, err := m.Find(ctx, id)
//
// Queries are built with Where and friends and executed with First or Get.
// Statements are always parameterized; Query.SQL renders a literal form
// for display only.
package orm
