package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/hrportal/internal/dialect"
	"github.com/roach88/hrportal/internal/model"
	"github.com/roach88/hrportal/internal/schema"
)

// table returns the final shape of a managed table, so callers can only
// address declared identifiers.
func (s *Store) table(name string) (schema.Table, error) {
	t, ok := s.def.Table(name)
	if !ok {
		return schema.Table{}, &SchemaError{Code: ErrCodeInvalidValue, Table: name, Message: "unknown table"}
	}
	return t, nil
}

func (s *Store) column(table, name string) (schema.Column, error) {
	t, err := s.table(table)
	if err != nil {
		return schema.Column{}, err
	}
	c, ok := t.Column(name)
	if !ok {
		return schema.Column{}, &SchemaError{Code: ErrCodeInvalidValue, Table: table, Column: name, Message: "unknown column"}
	}
	return c, nil
}

// Count returns the number of rows of table whose columns equal every value
// in where. A nil value matches NULL.
func (s *Store) Count(ctx context.Context, table string, where map[string]any) (int, error) {
	if _, err := s.table(table); err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	for _, k := range keys {
		if _, err := s.column(table, k); err != nil {
			return 0, err
		}
		if where[k] == nil {
			conds = append(conds, dialect.Quote(k)+" IS NULL")
			continue
		}
		conds = append(conds, dialect.Quote(k)+" = ?")
		args = append(args, where[k])
	}

	query := "SELECT COUNT(*) FROM " + dialect.Quote(table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var n int
	if err := s.queryRow(ctx, s.db, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Exists reports whether table has a row with the given id.
func (s *Store) Exists(ctx context.Context, table string, id int64) (bool, error) {
	n, err := s.Count(ctx, table, map[string]any{"id": id})
	return n > 0, err
}

// Lookup returns one column of the row id of table, normalized across
// drivers: booleans as bool, integers as int64, decimals and text as string,
// JSON as its canonical text, timestamps as time.Time, NULL as nil.
func (s *Store) Lookup(ctx context.Context, table string, id int64, column string) (any, error) {
	c, err := s.column(table, column)
	if err != nil {
		return nil, err
	}
	if _, err := s.column(table, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE \"id\" = ?", dialect.Quote(column), dialect.Quote(table))
	row := s.queryRow(ctx, s.db, query, id)

	var value any
	switch c.Type {
	case schema.TypeBoolean:
		var v sql.NullBool
		err = row.Scan(&v)
		if v.Valid {
			value = v.Bool
		}
	case schema.TypeID, schema.TypeForeign, schema.TypeInteger:
		var v sql.NullInt64
		err = row.Scan(&v)
		if v.Valid {
			value = v.Int64
		}
	case schema.TypeDecimal:
		var v model.NullSalary
		err = row.Scan(&v)
		if v.Valid {
			value = v.Salary.String()
		}
	case schema.TypeTimestamp:
		var v nullTime
		err = row.Scan(&v)
		if v.Valid {
			value = v.Time
		}
	case schema.TypeJSON:
		var v model.Payload
		err = row.Scan(&v)
		if v != nil {
			value = string(v)
		}
	default:
		var v sql.NullString
		err = row.Scan(&v)
		if v.Valid {
			value = v.String
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(table, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s.%s: %w", table, column, err)
	}
	return value, nil
}

// Delete removes the row id of table. The database applies the declared
// ON DELETE actions to every row referencing it.
func (s *Store) Delete(ctx context.Context, table string, id int64) error {
	if _, err := s.column(table, "id"); err != nil {
		return err
	}
	ok, err := s.exec(ctx, s.db, "DELETE FROM "+dialect.Quote(table)+` WHERE "id" = ?`, id)
	if err != nil {
		return s.classify(err, "delete", table)
	}
	if !ok {
		return notFound(table, id)
	}
	s.logger.Debug("deleted row", logAttrs(table, id)...)
	return nil
}

// transition moves a survey or vacancy to next, stamping column.
func (s *Store) transition(ctx context.Context, table string, id int64, next model.Status, column string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := s.queryRow(ctx, tx, "SELECT \"status\" FROM "+dialect.Quote(table)+` WHERE "id" = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(table, id)
		}
		if err != nil {
			return fmt.Errorf("read %s status: %w", table, err)
		}
		if !model.Status(current).CanTransition(next) {
			return &SchemaError{Code: ErrCodeInvalidTransition, Table: table, Column: "status",
				Message: fmt.Sprintf("cannot move %d from %s to %s", id, current, next)}
		}

		now := s.timestamp()
		query := fmt.Sprintf(`UPDATE %s SET "status" = ?, %s = ?, "updated_at" = ? WHERE "id" = ?`,
			dialect.Quote(table), dialect.Quote(column))
		if _, err := s.exec(ctx, tx, query, string(next), now, now, id); err != nil {
			return s.classify(err, "update", table)
		}
		s.logger.Debug("status changed", append(logAttrs(table, id), "from", current, "to", string(next))...)
		return nil
	})
}
