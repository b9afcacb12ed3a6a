package schema

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DatetimeLayout is the textual form of DATETIME and TIMESTAMP values.
const DatetimeLayout = "2006-01-02 15:04:05"

var (
	numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	yearPattern    = regexp.MustCompile(`^\d{4}$`)
	timePattern    = regexp.MustCompile(`^-?\d{1,3}:[0-5]\d(:[0-5]\d(\.\d{1,6})?)?$`)
)

// Validate reports whether value fits the column's type and length.
// Empty values are accepted on nullable columns regardless of type.
func (c *Column) Validate(value any) bool {
	value = Coerce(value)
	text, _ := Stringify(value)

	var validType bool
	switch c.Type.Category {
	case CategoryNumber:
		validType = c.validNumber(value, text)
	case CategoryString:
		validType = c.validString(value, text)
	case CategoryDatetime:
		validType = c.validDatetime(value, text)
	}

	// datetime(6) declares fractional precision, not a length
	validLength := c.Type.Length == Unrestricted ||
		c.Type.Category == CategoryDatetime ||
		utf8.RuneCountInString(text) <= c.Type.Length
	if validType && validLength {
		return true
	}
	return IsEmpty(value) && c.Nullable
}

func (c *Column) validNumber(value any, text string) bool {
	if !IsScalar(value) || !IsNumeric(text) {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return false
	}
	if c.Type.IsBoolean() && f != 0 && f != 1 {
		return false
	}
	if c.Type.Unsigned && math.Trunc(f) < 0 {
		return false
	}
	return true
}

func (c *Column) validString(value any, text string) bool {
	if c.Type.IsEnum() {
		return IsScalar(value) && slices.Contains(c.Type.Values, text)
	}
	return IsScalar(value)
}

func (c *Column) validDatetime(value any, text string) bool {
	if _, ok := value.(time.Time); ok {
		return true
	}
	if !IsScalar(value) {
		return false
	}

	switch strings.ToUpper(c.Type.Base) {
	case "YEAR":
		return yearPattern.MatchString(text)
	case "DATE":
		_, err := time.Parse(time.DateOnly, text)
		return err == nil
	case "TIME":
		return timePattern.MatchString(text)
	case "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		// fractional seconds are accepted after the seconds field
		if _, err := time.Parse(DatetimeLayout, text); err == nil {
			return true
		}
		_, err := time.Parse(time.RFC3339Nano, text)
		return err == nil
	}
	return false
}

// Cast normalizes a value read from the store.
// Drivers that parse datetime columns into time.Time get the column's text form back.
func (c *Column) Cast(value any) any {
	if t, ok := value.(time.Time); ok && c.Type.Category == CategoryDatetime {
		return FormatTime(c.Type.Base, t)
	}
	if c.Type.Category != CategoryNumber {
		return value
	}
	s, ok := value.(string)
	if !ok || !IsNumeric(s) {
		return value
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if c.Type.Base == "decimal" || c.Type.Base == "numeric" || c.Type.Base == "dec" {
		// keep exact decimal text
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return value
}

// FormatTime renders t in the textual form of a column whose base type is base.
func FormatTime(base string, t time.Time) string {
	switch strings.ToUpper(base) {
	case "YEAR":
		return t.Format("2006")
	case "DATE":
		return t.Format(time.DateOnly)
	case "TIME":
		return t.Format(time.TimeOnly)
	}
	text, _ := Stringify(t)
	return text
}

// Coerce converts booleans to 0 or 1 and byte slices to strings.
func Coerce(value any) any {
	switch v := value.(type) {
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case []byte:
		return string(v)
	}
	return value
}

// IsScalar reports whether value is a string, a number, a boolean or a time.
func IsScalar(value any) bool {
	switch value.(type) {
	case string, []byte, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return true
	}
	return false
}

// IsEmpty reports whether value is nil or the empty string.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	return false
}

// IsNumeric reports whether s is a decimal number, optionally signed or with an exponent.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(strings.TrimSpace(s))
}

// Stringify returns the textual form of a scalar. ok is false for nil and non-scalars.
func Stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		if v.Nanosecond() == 0 {
			return v.Format(DatetimeLayout), true
		}
		return v.Format(DatetimeLayout + ".999999"), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	}
	return "", false
}
