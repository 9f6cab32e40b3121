package store

import (
	"errors"
	"fmt"

	"github.com/roach88/hrportal/internal/dialect"
	"github.com/roach88/hrportal/internal/model"
)

// SchemaError represents a violation of the schema or of its provisioning
// order.
//
// Constraint codes are raised by the database on writes. Ordering codes are
// raised by provisioning and teardown. Access codes are raised by the entity
// methods.
type SchemaError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Table and Column locate the violation when known.
	Table  string
	Column string

	// Message is a human-readable description.
	Message string

	// Err is the underlying driver error, if any.
	Err error
}

// ErrorCode categorizes schema errors.
type ErrorCode string

const (
	ErrCodeUniqueViolation     ErrorCode = "UNIQUE_VIOLATION"
	ErrCodeCheckViolation      ErrorCode = "CHECK_VIOLATION"
	ErrCodeNotNullViolation    ErrorCode = "NOT_NULL_VIOLATION"
	ErrCodeForeignKeyViolation ErrorCode = "FOREIGN_KEY_VIOLATION"

	// ErrCodeInvalidValue indicates a value rejected before reaching the
	// database, such as an enum member outside its set.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeDuplicateEntity indicates provisioning a table or column that
	// already exists.
	ErrCodeDuplicateEntity ErrorCode = "DUPLICATE_ENTITY"

	// ErrCodeMissingDependency indicates provisioning a table whose
	// referenced table does not exist.
	ErrCodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"

	// ErrCodeDependentsExist indicates tearing down a table still referenced
	// from outside the migration.
	ErrCodeDependentsExist ErrorCode = "DEPENDENTS_EXIST"

	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	loc := e.Table
	if e.Column != "" {
		loc += "." + e.Column
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, loc)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying driver error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the SchemaError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsConstraintError returns true if a write was rejected by a constraint.
// Uses errors.As to handle wrapped errors.
func IsConstraintError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeUniqueViolation, ErrCodeCheckViolation, ErrCodeNotNullViolation,
		ErrCodeForeignKeyViolation, ErrCodeInvalidValue:
		return true
	}
	return false
}

// IsOrderingError returns true if provisioning or teardown was attempted out
// of dependency order.
func IsOrderingError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeDuplicateEntity, ErrCodeMissingDependency, ErrCodeDependentsExist:
		return true
	}
	return false
}

// IsNotFound returns true if the addressed row does not exist.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

var violationCodes = map[dialect.Violation]ErrorCode{
	dialect.ViolationUnique:         ErrCodeUniqueViolation,
	dialect.ViolationCheck:          ErrCodeCheckViolation,
	dialect.ViolationNotNull:        ErrCodeNotNullViolation,
	dialect.ViolationForeignKey:     ErrCodeForeignKeyViolation,
	dialect.ViolationDuplicateTable: ErrCodeDuplicateEntity,
	dialect.ViolationMissingTable:   ErrCodeMissingDependency,
}

// classify converts a driver error into a SchemaError when the dialect
// recognizes it, and wraps it with op otherwise.
func (s *Store) classify(err error, op, table string) error {
	if err == nil {
		return nil
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return err
	}
	if code, ok := violationCodes[s.dialect.Classify(err)]; ok {
		return &SchemaError{Code: code, Table: table, Message: op + " rejected", Err: err}
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}

// invalidValue wraps an enum or input validation failure.
func invalidValue(table, column string, err error) error {
	var ee *model.EnumError
	if errors.As(err, &ee) && column == "" {
		column = ee.Field
	}
	return &SchemaError{Code: ErrCodeInvalidValue, Table: table, Column: column, Message: err.Error(), Err: err}
}

func notFound(table string, id int64) error {
	return &SchemaError{Code: ErrCodeNotFound, Table: table, Message: fmt.Sprintf("no row with id %d", id)}
}
