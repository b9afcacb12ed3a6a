package schema

import (
	"regexp"
	"strconv"
	"strings"
)

// Unrestricted is the length reported for types without a plain numeric length suffix.
const Unrestricted = -1

var (
	lengthPattern   = regexp.MustCompile(`\((\d*)\)`)
	baseTypePattern = regexp.MustCompile(`^[a-zA-Z_]*`)
)

// TypeDescriptor is the parsed form of a column type description such as
// "varchar(255)", "int(10) unsigned" or "enum('a','b')".
type TypeDescriptor struct {
	Raw      string
	Base     string
	Length   int
	Unsigned bool
	// Values holds the literal list of enum and set types.
	Values   []string
	Category Category
}

// ParseType parses a raw type description.
func ParseType(raw string) TypeDescriptor {
	base := BaseType(raw)
	td := TypeDescriptor{
		Raw:      raw,
		Base:     base,
		Length:   Length(raw),
		Unsigned: strings.Contains(strings.ToLower(raw), "unsigned") || unsignedBases[base],
		Category: CategoryOf(base),
	}
	if base == "enum" || base == "set" {
		td.Values = EnumValues(raw)
	}
	return td
}

// IsEnum reports whether the type restricts values to a literal list.
func (t TypeDescriptor) IsEnum() bool {
	return t.Base == "enum" || t.Base == "set"
}

// IsBoolean reports whether the type is a boolean alias.
func (t TypeDescriptor) IsBoolean() bool {
	return t.Base == "bool" || t.Base == "boolean"
}

// Length returns the declared length of raw, or Unrestricted.
// Only a plain numeric suffix counts: "decimal(10,2)" is Unrestricted.
func Length(raw string) int {
	m := lengthPattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return Unrestricted
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Unrestricted
	}
	return n
}

// BaseType strips the length and qualifiers from raw: "int(10) unsigned" is "int".
func BaseType(raw string) string {
	return strings.ToLower(baseTypePattern.FindString(strings.TrimSpace(raw)))
}

// EnumValues extracts the quoted literals of an enum or set type description.
// Doubled quotes and backslash escapes inside a literal are unescaped.
func EnumValues(raw string) []string {
	start := strings.IndexByte(raw, '(')
	end := strings.LastIndexByte(raw, ')')
	if start < 0 || end <= start {
		return nil
	}
	body := raw[start+1 : end]

	var (
		values []string
		cur    strings.Builder
		inLit  bool
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if !inLit {
			if c == '\'' {
				inLit = true
				cur.Reset()
			}
			continue
		}
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case c == '\'' && i+1 < len(body) && body[i+1] == '\'':
			i++
			cur.WriteByte('\'')
		case c == '\'':
			inLit = false
			values = append(values, cur.String())
		default:
			cur.WriteByte(c)
		}
	}
	return values
}
