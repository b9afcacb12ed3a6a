package core

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError is returned when an operation references a column the table does not have.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("the %s column doesn't exist in %s table", e.Column, e.Table)
}

// ValidationError is returned when an attribute write or a filter value is rejected.
type ValidationError struct {
	Table string
	// Attribute is empty when the error concerns several attributes.
	Attribute string
	Reason    string
	// Unrecognized lists attribute names the schema does not know.
	Unrecognized []string
}

func (e *ValidationError) Error() string {
	if len(e.Unrecognized) > 0 {
		return fmt.Sprintf("following attributes are unrecognized: %s", strings.Join(e.Unrecognized, ", "))
	}
	if e.Attribute == "" {
		return e.Reason
	}
	return fmt.Sprintf("the %q attribute %s", e.Attribute, e.Reason)
}

// PersistenceError is returned when the store rejects a write.
type PersistenceError struct {
	Table string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("an error occurred while trying to %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// LogicError is returned when an operation needs an identity the model cannot resolve.
type LogicError struct {
	Op     string
	Reason string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Reason)
}

// IsSchemaError reports whether err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPersistenceError reports whether err is or wraps a *PersistenceError.
func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

// IsLogicError reports whether err is or wraps a *LogicError.
func IsLogicError(err error) bool {
	var target *LogicError
	return errors.As(err, &target)
}
