package schema

import (
	"fmt"
	"strings"
)

// ColumnType is the logical storage type of a column. Dialects map it to a
// concrete SQL type.
type ColumnType string

const (
	TypeID        ColumnType = "id"
	TypeForeign   ColumnType = "foreign"
	TypeString    ColumnType = "string"
	TypeText      ColumnType = "text"
	TypeBoolean   ColumnType = "boolean"
	TypeInteger   ColumnType = "integer"
	TypeDecimal   ColumnType = "decimal"
	TypeEnum      ColumnType = "enum"
	TypeJSON      ColumnType = "json"
	TypeTimestamp ColumnType = "timestamp"
)

// Action is the referential action taken on the referencing row when the
// referenced row is deleted.
type Action string

const (
	// ActionRestrict emits no ON DELETE clause; the delete fails while
	// referencing rows exist.
	ActionRestrict Action = "restrict"
	ActionCascade  Action = "cascade"
	ActionSetNull  Action = "set_null"
)

// StepKind distinguishes table creation from extension of an existing table.
type StepKind string

const (
	KindCreate StepKind = "create"
	KindAlter  StepKind = "alter"
)

// Column describes one column.
type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable,omitempty"`
	Unique   bool       `json:"unique,omitempty"`

	// Default is nil, bool, int64 or string.
	Default any `json:"default,omitempty"`

	// Values lists the members of an enum column.
	Values []string `json:"values,omitempty"`

	Precision int `json:"precision,omitempty"`
	Scale     int `json:"scale,omitempty"`

	// References names the table a foreign column points at. The referenced
	// column is always that table's id.
	References string `json:"references,omitempty"`
	OnDelete   Action `json:"on_delete,omitempty"`
}

// IsForeignKey reports whether the column references another table.
func (c Column) IsForeignKey() bool {
	return c.References != ""
}

// Table is one migration step.
type Table struct {
	Name       string   `json:"name"`
	Kind       StepKind `json:"kind"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_key,omitempty"`
	Timestamps bool     `json:"timestamps,omitempty"`
}

// Key identifies the step in logs and errors: the table name for creations,
// "table(+col,...)" for alterations.
func (t Table) Key() string {
	if t.Kind != KindAlter {
		return t.Name
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return fmt.Sprintf("%s(+%s)", t.Name, strings.Join(names, ","))
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// References returns the distinct tables this step depends on, in column
// order. An alter step depends on the table it alters. Self references are
// excluded.
func (t Table) References() []string {
	var refs []string
	seen := map[string]bool{t.Name: true}
	if t.Kind == KindAlter {
		refs = append(refs, t.Name)
	}
	for _, c := range t.Columns {
		if c.References == "" || seen[c.References] {
			continue
		}
		seen[c.References] = true
		refs = append(refs, c.References)
	}
	return refs
}

// Migration is a named, versioned set of steps applied and retracted as a
// unit.
type Migration struct {
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}

// Creates returns the names of the tables created by the migration.
func (m Migration) Creates() []string {
	var names []string
	for _, t := range m.Tables {
		if t.Kind == KindCreate {
			names = append(names, t.Name)
		}
	}
	return names
}

// Definition is the full ordered list of migrations.
type Definition struct {
	Migrations []Migration `json:"migrations"`
}

// Migration returns the named migration.
func (d Definition) Migration(name string) (Migration, bool) {
	for _, m := range d.Migrations {
		if m.Name == name {
			return m, true
		}
	}
	return Migration{}, false
}

// Table returns the final shape of a table after every migration has been
// applied: its create step plus the columns of any later alter steps.
func (d Definition) Table(name string) (Table, bool) {
	var out Table
	found := false
	for _, m := range d.Migrations {
		for _, t := range m.Tables {
			if t.Name != name {
				continue
			}
			if t.Kind == KindCreate {
				out = t
				out.Columns = append([]Column(nil), t.Columns...)
				found = true
				continue
			}
			out.Columns = append(out.Columns, t.Columns...)
		}
	}
	return out, found
}

// Tables returns every table name created by the definition, in declaration
// order.
func (d Definition) Tables() []string {
	var names []string
	for _, m := range d.Migrations {
		names = append(names, m.Creates()...)
	}
	return names
}
