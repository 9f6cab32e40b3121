package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/roach88/hrportal/internal/schema"
)

// SQLite renders DDL for SQLite. Foreign keys are only enforced when the
// connection runs with PRAGMA foreign_keys = ON.
type SQLite struct{}

var _ Dialect = SQLite{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) sqlType(c schema.Column) string {
	switch c.Type {
	case schema.TypeForeign, schema.TypeInteger:
		return "INTEGER"
	case schema.TypeString, schema.TypeEnum:
		return "VARCHAR(255)"
	case schema.TypeText, schema.TypeJSON:
		return "TEXT"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDecimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", c.Precision, c.Scale)
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "INTEGER"
	}
}

func (SQLite) boolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// jsonCheck rejects malformed documents. json_valid(NULL) is NULL, which a
// CHECK constraint accepts.
func (SQLite) jsonCheck(c schema.Column) string {
	return fmt.Sprintf("CHECK (json_valid(%s))", quoteIdent(c.Name))
}

func (d SQLite) CreateTable(t schema.Table) (string, error) {
	return createTable(d, t, func(c schema.Column) string {
		return quoteIdent(c.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
	})
}

func (d SQLite) AddColumn(table string, c schema.Column) (string, error) {
	return addColumn(d, table, c)
}

func (SQLite) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + quoteIdent(table)
}

// DropColumn requires SQLite 3.35 or later. The column must not be indexed
// or part of a table-level constraint.
func (SQLite) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(table), quoteIdent(column))
}

func (SQLite) Rebind(query string) string { return query }

// Classify understands both SQLite drivers. The extended result codes are
// authoritative; the message text is a fallback for errors that lost them.
func (SQLite) Classify(err error) Violation {
	if err == nil {
		return ViolationNone
	}

	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		switch mattnErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ViolationUnique
		case sqlite3.ErrConstraintForeignKey:
			return ViolationForeignKey
		case sqlite3.ErrConstraintCheck:
			return ViolationCheck
		case sqlite3.ErrConstraintNotNull:
			return ViolationNotNull
		}
	}

	var moderncErr *msqlite.Error
	if errors.As(err, &moderncErr) {
		switch moderncErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ViolationUnique
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ViolationForeignKey
		case sqlite3lib.SQLITE_CONSTRAINT_CHECK:
			return ViolationCheck
		case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return ViolationNotNull
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ViolationUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ViolationForeignKey
	case strings.Contains(msg, "CHECK constraint failed"):
		return ViolationCheck
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return ViolationNotNull
	case strings.Contains(msg, "already exists"):
		return ViolationDuplicateTable
	case strings.Contains(msg, "no such table"):
		return ViolationMissingTable
	}
	return ViolationNone
}

func (SQLite) TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	return countIsPositive(ctx, q,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
}

func (SQLite) ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	return countIsPositive(ctx, q,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column)
}

func (SQLite) ReferencingTables(ctx context.Context, q Querier, table string) ([]string, error) {
	return collectStrings(ctx, q, `
		SELECT DISTINCT m.name
		FROM sqlite_master AS m
		JOIN pragma_foreign_key_list(m.name) AS f
		WHERE m.type = 'table' AND f."table" = ? AND m.name <> ?
		ORDER BY m.name`, table, table)
}

func (d SQLite) Describe(ctx context.Context, q Querier, tables []string) (schema.Catalog, error) {
	var cat schema.Catalog
	for _, name := range tables {
		exists, err := d.TableExists(ctx, q, name)
		if err != nil {
			return schema.Catalog{}, fmt.Errorf("describe %s: %w", name, err)
		}
		if !exists {
			continue
		}
		info, err := d.describeTable(ctx, q, name)
		if err != nil {
			return schema.Catalog{}, fmt.Errorf("describe %s: %w", name, err)
		}
		cat.Tables = append(cat.Tables, info)
	}
	cat.Normalize()
	return cat, nil
}

func (SQLite) describeTable(ctx context.Context, q Querier, table string) (schema.TableInfo, error) {
	info := schema.TableInfo{Name: table}

	columns, err := scanAll(ctx, q, func(rows *sql.Rows) (schema.ColumnInfo, error) {
		var c schema.ColumnInfo
		var dflt sql.NullString
		err := rows.Scan(&c.Name, &c.Type, &c.NotNull, &dflt, &c.PrimaryKey)
		c.Default = dflt.String
		return c, err
	}, `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return info, err
	}
	info.Columns = columns

	fks, err := scanAll(ctx, q, func(rows *sql.Rows) (schema.ForeignKeyInfo, error) {
		var fk schema.ForeignKeyInfo
		var to sql.NullString
		err := rows.Scan(&fk.Column, &fk.RefTable, &to, &fk.OnDelete)
		fk.RefColumn = to.String
		return fk, err
	}, `SELECT "from", "table", "to", on_delete FROM pragma_foreign_key_list(?)`, table)
	if err != nil {
		return info, err
	}
	info.ForeignKeys = fks

	indexes, err := collectStrings(ctx, q,
		`SELECT name FROM pragma_index_list(?) WHERE "unique" = 1 AND origin <> 'pk' ORDER BY name`, table)
	if err != nil {
		return info, err
	}
	for _, index := range indexes {
		cols, err := collectStrings(ctx, q, `SELECT name FROM pragma_index_info(?) ORDER BY seqno`, index)
		if err != nil {
			return info, err
		}
		info.Unique = append(info.Unique, cols)
	}
	return info, nil
}

// scanAll runs query and maps every row with scan, closing the rows before
// returning.
func scanAll[T any](ctx context.Context, q Querier, scan func(*sql.Rows) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
