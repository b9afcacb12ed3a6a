package schema

// Category is the validation family of a column type.
type Category string

// Type categories.
const (
	CategoryNumber   Category = "number"
	CategoryString   Category = "string"
	CategoryDatetime Category = "datetime"
	CategoryUnknown  Category = "unknown"
)

var categories = map[Category][]string{
	CategoryNumber: {
		"tinyint", "bit", "bool", "boolean",
		"smallint", "mediumint", "int", "dec",
		"integer", "bigint", "float", "double",
		"decimal", "numeric", "real",
		// postgres
		"smallserial", "serial", "bigserial", "int2", "int4", "int8", "float4", "float8",
		// duckdb
		"hugeint", "utinyint", "usmallint", "uinteger", "ubigint", "uhugeint",
	},
	CategoryString: {
		"char", "varchar", "binary", "varbinary",
		"tinyblob", "tinytext", "text", "blob",
		"mediumtext", "mediumblob", "longtext",
		"longblob", "enum", "set",
		// postgres, sqlite, duckdb
		"character", "clob", "nchar", "nvarchar", "bpchar", "citext",
		"uuid", "json", "jsonb", "bytea",
	},
	CategoryDatetime: {
		"date", "datetime", "timestamp", "time", "year", "timestamptz",
	},
}

var (
	byBase        = indexCategories()
	unsignedBases = map[string]bool{
		"utinyint": true, "usmallint": true, "uinteger": true, "ubigint": true, "uhugeint": true,
	}
)

func indexCategories() map[string]Category {
	idx := make(map[string]Category)
	for cat, bases := range categories {
		for _, b := range bases {
			idx[b] = cat
		}
	}
	return idx
}

// CategoryOf returns the category of a lower-cased base type.
func CategoryOf(base string) Category {
	if c, ok := byBase[base]; ok {
		return c
	}
	return CategoryUnknown
}
