// Package dialect renders schema definitions into SQL for a specific
// database engine and reads back the live structure of provisioned tables.
//
// Two dialects are provided:
//   - SQLite, used with the "sqlite3" (github.com/mattn/go-sqlite3) and
//     "sqlite" (modernc.org/sqlite) drivers
//   - Postgres, used with the "postgres" (github.com/lib/pq) driver
//
// Identifiers are always double-quoted; the questions table has a column
// named "order".
package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/hrportal/internal/schema"
)

// Driver names accepted by ForDriver.
const (
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Violation classifies a driver error.
type Violation string

const (
	ViolationNone           Violation = ""
	ViolationUnique         Violation = "unique"
	ViolationCheck          Violation = "check"
	ViolationNotNull        Violation = "not_null"
	ViolationForeignKey     Violation = "foreign_key"
	ViolationDuplicateTable Violation = "duplicate_table"
	ViolationMissingTable   Violation = "missing_table"
)

// Dialect renders DDL and inspects the catalog of one database engine.
type Dialect interface {
	// Name is "sqlite" or "postgres".
	Name() string

	CreateTable(t schema.Table) (string, error)
	AddColumn(table string, c schema.Column) (string, error)
	DropTable(table string) string
	DropColumn(table, column string) string

	// Rebind rewrites ? placeholders into the engine's native form.
	Rebind(query string) string

	// Classify maps a driver error to a Violation.
	Classify(err error) Violation

	TableExists(ctx context.Context, q Querier, table string) (bool, error)
	ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error)

	// ReferencingTables lists the other tables holding a foreign key to table.
	ReferencingTables(ctx context.Context, q Querier, table string) ([]string, error)

	// Describe reads the live structure of the named tables. Missing tables
	// are skipped.
	Describe(ctx context.Context, q Querier, tables []string) (schema.Catalog, error)
}

// ForDriver returns the dialect spoken by a database/sql driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return SQLite{}, nil
	case DriverPostgres:
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: must be one of %s, %s, %s",
			driver, DriverSQLite3, DriverSQLite, DriverPostgres)
	}
}

// ForName returns the dialect with the given Name.
func ForName(name string) (Dialect, error) {
	switch name {
	case "sqlite":
		return SQLite{}, nil
	case "postgres":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q: must be sqlite or postgres", name)
	}
}

// StepStatements renders the statements that apply one step.
func StepStatements(d Dialect, t schema.Table) ([]string, error) {
	if t.Kind == schema.KindAlter {
		stmts := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			stmt, err := d.AddColumn(t.Name, c)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		return stmts, nil
	}
	stmt, err := d.CreateTable(t)
	if err != nil {
		return nil, err
	}
	return []string{stmt}, nil
}

// RetractStatements renders the statements that undo one step. Alter steps
// drop their columns in reverse order.
func RetractStatements(d Dialect, t schema.Table) []string {
	if t.Kind != schema.KindAlter {
		return []string{d.DropTable(t.Name)}
	}
	stmts := make([]string, 0, len(t.Columns))
	for i := len(t.Columns) - 1; i >= 0; i-- {
		stmts = append(stmts, d.DropColumn(t.Name, t.Columns[i].Name))
	}
	return stmts
}

// ProvisionStatements renders every statement of m in provisioning order.
func ProvisionStatements(d Dialect, m schema.Migration) ([]string, error) {
	ordered, err := schema.ProvisionOrder(m)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, t := range ordered {
		s, err := StepStatements(d, t)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", t.Key(), err)
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// TeardownStatements renders every statement of m in teardown order.
func TeardownStatements(d Dialect, m schema.Migration) ([]string, error) {
	ordered, err := schema.TeardownOrder(m)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, t := range ordered {
		stmts = append(stmts, RetractStatements(d, t)...)
	}
	return stmts, nil
}

// Script joins statements into a runnable SQL script.
func Script(stmts []string) string {
	if len(stmts) == 0 {
		return ""
	}
	return strings.Join(stmts, ";\n\n") + ";\n"
}

// Quote double-quotes an identifier for either dialect.
func Quote(name string) string {
	return quoteIdent(name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func enumCheck(c schema.Column) string {
	values := make([]string, len(c.Values))
	for i, v := range c.Values {
		values[i] = quoteString(v)
	}
	return fmt.Sprintf("CHECK (%s IN (%s))", quoteIdent(c.Name), strings.Join(values, ", "))
}

func onDeleteClause(a schema.Action) string {
	switch a {
	case schema.ActionCascade:
		return " ON DELETE CASCADE"
	case schema.ActionSetNull:
		return " ON DELETE SET NULL"
	default:
		return ""
	}
}

// columnRenderer supplies the engine-specific pieces of a column definition.
type columnRenderer interface {
	sqlType(c schema.Column) string
	boolLiteral(b bool) string
	jsonCheck(c schema.Column) string
}

// renderColumn builds `"name" TYPE [NOT NULL] [DEFAULT v] [UNIQUE] [CHECK]
// [REFERENCES]` for any column but the id.
func renderColumn(r columnRenderer, c schema.Column) (string, error) {
	var b strings.Builder
	b.WriteString(quoteIdent(c.Name))
	b.WriteString(" ")
	b.WriteString(r.sqlType(c))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		lit, err := defaultLiteral(r, c.Default)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.Name, err)
		}
		b.WriteString(" DEFAULT ")
		b.WriteString(lit)
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	switch c.Type {
	case schema.TypeEnum:
		b.WriteString(" ")
		b.WriteString(enumCheck(c))
	case schema.TypeJSON:
		if check := r.jsonCheck(c); check != "" {
			b.WriteString(" ")
			b.WriteString(check)
		}
	}
	if c.References != "" {
		fmt.Fprintf(&b, " REFERENCES %s (%s)%s", quoteIdent(c.References), quoteIdent("id"), onDeleteClause(c.OnDelete))
	}
	return b.String(), nil
}

func defaultLiteral(r columnRenderer, v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return r.boolLiteral(val), nil
	case int64:
		return fmt.Sprintf("%d", val), nil
	case int:
		return fmt.Sprintf("%d", val), nil
	case string:
		return quoteString(val), nil
	default:
		return "", fmt.Errorf("unsupported default %T", v)
	}
}

// createTable renders CREATE TABLE with one column per line.
func createTable(r columnRenderer, t schema.Table, idColumn func(schema.Column) string) (string, error) {
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		if c.Type == schema.TypeID {
			lines = append(lines, idColumn(c))
			continue
		}
		line, err := renderColumn(r, c)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}
		lines = append(lines, line)
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, "PRIMARY KEY ("+quoteIdents(t.PrimaryKey)+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", quoteIdent(t.Name), strings.Join(lines, ",\n    ")), nil
}

// addColumn renders ALTER TABLE ... ADD COLUMN.
func addColumn(r columnRenderer, table string, c schema.Column) (string, error) {
	if c.Type == schema.TypeID {
		return "", fmt.Errorf("cannot add id column %s to existing table %s", c.Name, table)
	}
	if c.Unique {
		return "", fmt.Errorf("cannot add unique column %s to existing table %s", c.Name, table)
	}
	def, err := renderColumn(r, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), def), nil
}

// collectStrings reads a single-column result set fully before returning, so
// callers never hold rows open while issuing the next query on a one
// connection pool.
func collectStrings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func countIsPositive(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
