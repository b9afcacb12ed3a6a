package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaporm/pkg/core"
)

// ColumnInfoFromRow maps a SHOW COLUMNS style row onto a ColumnInfo.
// Column names are matched case-insensitively.
func ColumnInfoFromRow(row core.Row) core.ColumnInfo {
	lower := make(map[string]any, len(row.Values))
	for k, v := range row.Values {
		lower[strings.ToLower(k)] = v
	}

	info := core.ColumnInfo{
		Field: AsString(lower["field"]),
		Type:  AsString(lower["type"]),
		Null:  AsString(lower["null"]),
		Key:   AsString(lower["key"]),
		Extra: AsString(lower["extra"]),
	}
	if d := lower["default"]; d != nil {
		s := AsString(d)
		info.Default = &s
	}
	return info
}

// CatalogColumn is one row of an information_schema based describe.
type CatalogColumn struct {
	Name      string
	DataType  string
	MaxLength any
	Nullable  string
	Default   any
	Identity  bool
	Key       string
}

// ColumnInfo renders the catalog row in the SHOW COLUMNS shape.
func (c CatalogColumn) ColumnInfo() core.ColumnInfo {
	typ := strings.ToLower(c.DataType)
	if c.MaxLength != nil {
		if n := AsInt(c.MaxLength); n > 0 && !strings.Contains(typ, "(") {
			typ = fmt.Sprintf("%s(%d)", typ, n)
		}
	}

	info := core.ColumnInfo{
		Field: c.Name,
		Type:  typ,
		Null:  strings.ToUpper(c.Nullable),
		Key:   c.Key,
	}
	if c.Default != nil {
		s := AsString(c.Default)
		info.Default = &s
		if strings.HasPrefix(strings.ToLower(s), "nextval(") {
			info.Extra = "auto_increment"
		}
	}
	if c.Identity {
		info.Extra = "auto_increment"
	}
	return info
}

// AsString renders a scanned value as text.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

// AsInt renders a scanned value as an integer, 0 when it is not one.
func AsInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	}
	i, err := strconv.ParseInt(strings.TrimSpace(AsString(v)), 10, 64)
	if err != nil {
		return 0
	}
	return i
}
