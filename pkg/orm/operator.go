package orm

// Operator is a comparison token rendered into a WHERE clause.
type Operator string

// Supported operators.
const (
	Equal          Operator = "="
	NotEqual       Operator = "<>"
	Greater        Operator = ">"
	Less           Operator = "<"
	GreaterOrEqual Operator = ">="
	LessOrEqual    Operator = "<="
	Between        Operator = "BETWEEN"
	Like           Operator = "LIKE"
	In             Operator = "IN"
	IsNull         Operator = "IS NULL"
	IsNotNull      Operator = "IS NOT NULL"
)

// Operators lists every supported operator.
var Operators = []Operator{
	Equal, NotEqual, Greater, Less, GreaterOrEqual, LessOrEqual,
	Between, Like, In, IsNull, IsNotNull,
}

func (o Operator) String() string {
	return string(o)
}

// IsNullCheck reports whether the operator takes no operand.
func (o Operator) IsNullCheck() bool {
	return o == IsNull || o == IsNotNull
}

// IsComparison reports whether the operator takes exactly one scalar operand.
func (o Operator) IsComparison() bool {
	switch o {
	case Equal, NotEqual, Greater, Less, GreaterOrEqual, LessOrEqual, Like:
		return true
	}
	return false
}
