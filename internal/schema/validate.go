package schema

import (
	"fmt"
	"strings"
)

// Validation error codes (S100-S199)
const (
	ErrDuplicateMigration  = "S101" // migration name declared twice
	ErrDuplicateTable      = "S102" // table created twice
	ErrMissingPrimaryKey   = "S103" // create step without id or primary_key
	ErrDuplicateColumn     = "S104" // column declared twice in one table
	ErrUnknownReference    = "S105" // foreign key to a table never created
	ErrInvalidEnum         = "S106" // enum without values or default outside values
	ErrSetNullNotNullable  = "S107" // set_null on a NOT NULL column
	ErrInvalidDecimal      = "S108" // decimal precision/scale out of range
	ErrInvalidAlter        = "S109" // alter of unknown table or NOT NULL column without default
	ErrUnknownPrimaryKey   = "S110" // primary_key names an unknown column
	ErrForeignWithoutRef   = "S111" // foreign column without references, or references on another type
	ErrDependencyCycle     = "S112" // steps of a migration reference each other in a cycle
	ErrInvalidColumnType   = "S113" // unknown column type or kind
	ErrInvalidDefaultValue = "S114" // default incompatible with the column type
)

// ValidationError represents one schema rule violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every violation found in a definition.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

var validTypes = map[ColumnType]bool{
	TypeID: true, TypeForeign: true, TypeString: true, TypeText: true,
	TypeBoolean: true, TypeInteger: true, TypeDecimal: true, TypeEnum: true,
	TypeJSON: true, TypeTimestamp: true,
}

// Validate checks a definition against the schema rules.
// Returns all errors found (does not fail-fast).
func Validate(def Definition) ValidationErrors {
	var errs ValidationErrors
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	migrations := make(map[string]bool)
	created := make(map[string]bool) // tables created by earlier migrations

	for _, m := range def.Migrations {
		if migrations[m.Name] {
			add(ErrDuplicateMigration, m.Name, "migration declared more than once")
		}
		migrations[m.Name] = true

		inMigration := make(map[string]bool)
		for _, t := range m.Tables {
			if t.Kind == KindCreate {
				inMigration[t.Name] = true
			}
		}

		createdSoFar := make(map[string]bool)
		for _, t := range m.Tables {
			field := m.Name + "." + t.Key()
			switch t.Kind {
			case KindCreate:
				if created[t.Name] || createdSoFar[t.Name] {
					add(ErrDuplicateTable, field, "table %q is created more than once", t.Name)
				}
				createdSoFar[t.Name] = true
				validateKeys(t, field, add)
			case KindAlter:
				if !created[t.Name] && !createdSoFar[t.Name] {
					add(ErrInvalidAlter, field, "altered table %q is not created by an earlier step", t.Name)
				}
			default:
				add(ErrInvalidColumnType, field, "unknown step kind %q", t.Kind)
			}

			seen := make(map[string]bool)
			for _, c := range t.Columns {
				colField := field + "." + c.Name
				if seen[c.Name] {
					add(ErrDuplicateColumn, colField, "column declared more than once")
				}
				seen[c.Name] = true
				validateColumn(c, colField, add)

				if c.References != "" && !created[c.References] && !inMigration[c.References] {
					add(ErrUnknownReference, colField, "references unknown table %q", c.References)
				}
				if t.Kind == KindAlter && !c.Nullable && c.Default == nil {
					add(ErrInvalidAlter, colField, "columns added to an existing table must be nullable or have a default")
				}
			}
		}

		if _, err := ProvisionOrder(m); err != nil {
			add(ErrDependencyCycle, m.Name, "%v", err)
		}

		for name := range createdSoFar {
			created[name] = true
		}
	}

	return errs
}

func validateKeys(t Table, field string, add func(code, field, format string, args ...any)) {
	hasID := false
	for _, c := range t.Columns {
		if c.Type == TypeID {
			hasID = true
		}
	}
	if !hasID && len(t.PrimaryKey) == 0 {
		add(ErrMissingPrimaryKey, field, "table needs an id column or a primary_key")
	}
	if hasID && len(t.PrimaryKey) > 0 {
		add(ErrMissingPrimaryKey, field, "table declares both an id column and a primary_key")
	}
	for _, pk := range t.PrimaryKey {
		if _, ok := t.Column(pk); !ok {
			add(ErrUnknownPrimaryKey, field, "primary_key column %q is not declared", pk)
		}
	}
}

func validateColumn(c Column, field string, add func(code, field, format string, args ...any)) {
	if !validTypes[c.Type] {
		add(ErrInvalidColumnType, field, "unknown column type %q", c.Type)
		return
	}

	switch {
	case c.Type == TypeForeign && c.References == "":
		add(ErrForeignWithoutRef, field, "foreign column needs references")
	case c.Type != TypeForeign && c.References != "":
		add(ErrForeignWithoutRef, field, "references is only valid on foreign columns")
	}
	if c.OnDelete == ActionSetNull && !c.Nullable {
		add(ErrSetNullNotNullable, field, "set_null requires a nullable column")
	}

	switch c.Type {
	case TypeEnum:
		if len(c.Values) == 0 {
			add(ErrInvalidEnum, field, "enum needs at least one value")
		}
		if c.Default != nil {
			s, ok := c.Default.(string)
			if !ok || !containsString(c.Values, s) {
				add(ErrInvalidEnum, field, "default %v is not one of %v", c.Default, c.Values)
			}
		}
	case TypeDecimal:
		if c.Precision <= 0 || c.Scale < 0 || c.Scale > c.Precision {
			add(ErrInvalidDecimal, field, "decimal(%d,%d) is out of range", c.Precision, c.Scale)
		}
	case TypeBoolean:
		if _, ok := c.Default.(bool); c.Default != nil && !ok {
			add(ErrInvalidDefaultValue, field, "boolean default must be true or false")
		}
	case TypeInteger:
		if _, ok := c.Default.(int64); c.Default != nil && !ok {
			add(ErrInvalidDefaultValue, field, "integer default must be an int")
		}
	case TypeID, TypeForeign, TypeJSON, TypeTimestamp:
		if c.Default != nil {
			add(ErrInvalidDefaultValue, field, "%s columns take no default", c.Type)
		}
	}
	if c.Type != TypeEnum && len(c.Values) > 0 {
		add(ErrInvalidEnum, field, "values is only valid on enum columns")
	}
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
