package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/hrportal/internal/schema"
)

// Postgres renders DDL for PostgreSQL. Tables are created in the
// connection's current schema.
type Postgres struct{}

var _ Dialect = Postgres{}

// SQLSTATE codes of interest.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgDuplicateTable      = "42P07"
	pgUndefinedTable      = "42P01"
)

func (Postgres) Name() string { return "postgres" }

func (Postgres) sqlType(c schema.Column) string {
	switch c.Type {
	case schema.TypeForeign:
		return "BIGINT"
	case schema.TypeInteger:
		return "INTEGER"
	case schema.TypeString, schema.TypeEnum:
		return "VARCHAR(255)"
	case schema.TypeText:
		return "TEXT"
	case schema.TypeJSON:
		return "JSONB"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDecimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", c.Precision, c.Scale)
	case schema.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "BIGINT"
	}
}

func (Postgres) boolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// jsonCheck is empty: JSONB rejects malformed input itself.
func (Postgres) jsonCheck(schema.Column) string { return "" }

func (d Postgres) CreateTable(t schema.Table) (string, error) {
	return createTable(d, t, func(c schema.Column) string {
		return quoteIdent(c.Name) + " BIGSERIAL PRIMARY KEY"
	})
}

func (d Postgres) AddColumn(table string, c schema.Column) (string, error) {
	return addColumn(d, table, c)
}

func (Postgres) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + quoteIdent(table)
}

func (Postgres) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(table), quoteIdent(column))
}

// Rebind numbers ? placeholders as $1, $2, ... leaving quoted literals and
// identifiers untouched.
func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func (Postgres) Classify(err error) Violation {
	if err == nil {
		return ViolationNone
	}
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return ViolationNone
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ViolationUnique
	case pgForeignKeyViolation:
		return ViolationForeignKey
	case pgCheckViolation:
		return ViolationCheck
	case pgNotNullViolation:
		return ViolationNotNull
	case pgDuplicateTable:
		return ViolationDuplicateTable
	case pgUndefinedTable:
		return ViolationMissingTable
	}
	return ViolationNone
}

func (Postgres) TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	return countIsPositive(ctx, q, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`, table)
}

func (Postgres) ColumnExists(ctx context.Context, q Querier, table, column string) (bool, error) {
	return countIsPositive(ctx, q, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`, table, column)
}

func (Postgres) ReferencingTables(ctx context.Context, q Querier, table string) ([]string, error) {
	return collectStrings(ctx, q, `
		SELECT DISTINCT tc.table_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.constraint_schema = tc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = current_schema()
			AND ccu.table_name = $1
			AND tc.table_name <> $1
		ORDER BY tc.table_name`, table)
}

func (d Postgres) Describe(ctx context.Context, q Querier, tables []string) (schema.Catalog, error) {
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

func (Postgres) describeTable(ctx context.Context, q Querier, table string) (schema.TableInfo, error) {
	info := schema.TableInfo{Name: table}

	pk, err := collectStrings(ctx, q, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON kcu.constraint_name = tc.constraint_name AND kcu.constraint_schema = tc.constraint_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = current_schema()
			AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`, table)
	if err != nil {
		return info, err
	}
	pkPos := make(map[string]int, len(pk))
	for i, c := range pk {
		pkPos[c] = i + 1
	}

	columns, err := scanAll(ctx, q, func(rows *sql.Rows) (schema.ColumnInfo, error) {
		var c schema.ColumnInfo
		var nullable string
		var dflt sql.NullString
		err := rows.Scan(&c.Name, &c.Type, &nullable, &dflt)
		c.NotNull = nullable == "NO"
		c.Default = dflt.String
		c.PrimaryKey = pkPos[c.Name]
		return c, err
	}, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return info, err
	}
	info.Columns = columns

	fks, err := scanAll(ctx, q, func(rows *sql.Rows) (schema.ForeignKeyInfo, error) {
		var fk schema.ForeignKeyInfo
		err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete)
		return fk, err
	}, `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name, rc.delete_rule
		FROM information_schema.referential_constraints AS rc
		JOIN information_schema.key_column_usage AS kcu
			ON kcu.constraint_name = rc.constraint_name AND kcu.constraint_schema = rc.constraint_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = rc.constraint_name AND ccu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = current_schema() AND kcu.table_name = $1
		ORDER BY kcu.column_name`, table)
	if err != nil {
		return info, err
	}
	info.ForeignKeys = fks

	type uniqueColumn struct{ constraint, column string }
	uniques, err := scanAll(ctx, q, func(rows *sql.Rows) (uniqueColumn, error) {
		var u uniqueColumn
		err := rows.Scan(&u.constraint, &u.column)
		return u, err
	}, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON kcu.constraint_name = tc.constraint_name AND kcu.constraint_schema = tc.constraint_schema
		WHERE tc.constraint_type = 'UNIQUE'
			AND tc.table_schema = current_schema()
			AND tc.table_name = $1
		ORDER BY tc.constraint_name, kcu.ordinal_position`, table)
	if err != nil {
		return info, err
	}
	var current string
	for _, u := range uniques {
		if u.constraint != current || len(info.Unique) == 0 {
			info.Unique = append(info.Unique, nil)
			current = u.constraint
		}
		last := len(info.Unique) - 1
		info.Unique[last] = append(info.Unique[last], u.column)
	}
	return info, nil
}
