package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/hrportal/internal/dialect"
	"github.com/roach88/hrportal/internal/schema"
)

const ledgerTable = "schema_migrations"

// LedgerEntry is one applied migration.
type LedgerEntry struct {
	Name        string    `json:"name"`
	RunID       string    `json:"run_id"`
	Checksum    string    `json:"checksum"`
	Fingerprint string    `json:"fingerprint"`
	AppliedAt   time.Time `json:"applied_at"`
}

// MigrationStatus reports the state of one declared migration.
type MigrationStatus struct {
	Name    string       `json:"name"`
	Applied bool         `json:"applied"`
	Entry   *LedgerEntry `json:"entry,omitempty"`

	// Drifted is set when the migration was applied with a definition whose
	// checksum differs from the current one.
	Drifted bool `json:"drifted"`
}

func (s *Store) ensureLedger(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS "schema_migrations" (
    "name" VARCHAR(255) PRIMARY KEY,
    "run_id" VARCHAR(36) NOT NULL,
    "checksum" VARCHAR(64) NOT NULL,
    "fingerprint" VARCHAR(64) NOT NULL,
    "applied_at" TIMESTAMP NOT NULL
)`)
	return err
}

// Provision creates every table of m in dependency order and records m in
// the ledger, all in one transaction.
//
// Fails with DUPLICATE_ENTITY when a table (or added column) already exists
// and with MISSING_DEPENDENCY when a referenced table does not. Nothing is
// left behind on failure.
func (s *Store) Provision(ctx context.Context, m schema.Migration) error {
	ordered, err := schema.ProvisionOrder(m)
	if err != nil {
		return fmt.Errorf("provision %s: %w", m.Name, err)
	}

	runID := s.runIDs.Generate()
	s.logger.Info("provisioning migration", "migration", m.Name, "run_id", runID, "steps", len(ordered))

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, step := range ordered {
			if err := s.checkProvision(ctx, tx, step); err != nil {
				return err
			}
			stmts, err := dialect.StepStatements(s.dialect, step)
			if err != nil {
				return fmt.Errorf("render %s: %w", step.Key(), err)
			}
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return s.classify(err, "provision", step.Name)
				}
			}
			s.logger.Debug("provisioned step", "migration", m.Name, "step", step.Key())
		}

		fingerprint, err := s.fingerprint(ctx, tx, touchedTables(m))
		if err != nil {
			return err
		}
		checksum, err := schema.Checksum(m)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.dialect.Rebind(
			`INSERT INTO "schema_migrations" ("name", "run_id", "checksum", "fingerprint", "applied_at") VALUES (?, ?, ?, ?, ?)`),
			m.Name, runID, checksum, fingerprint, s.timestamp())
		if err != nil {
			return s.classify(err, "record migration", ledgerTable)
		}
		s.logger.Info("provisioned migration", "migration", m.Name, "fingerprint", fingerprint)
		return nil
	})
}

// checkProvision verifies that step can run against the live catalog.
func (s *Store) checkProvision(ctx context.Context, q dialect.Querier, step schema.Table) error {
	exists, err := s.dialect.TableExists(ctx, q, step.Name)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", step.Name, err)
	}

	if step.Kind == schema.KindAlter {
		if !exists {
			return &SchemaError{Code: ErrCodeMissingDependency, Table: step.Name,
				Message: "cannot extend a table that does not exist"}
		}
		for _, c := range step.Columns {
			has, err := s.dialect.ColumnExists(ctx, q, step.Name, c.Name)
			if err != nil {
				return fmt.Errorf("inspect %s.%s: %w", step.Name, c.Name, err)
			}
			if has {
				return &SchemaError{Code: ErrCodeDuplicateEntity, Table: step.Name, Column: c.Name,
					Message: "column already exists"}
			}
		}
	} else if exists {
		return &SchemaError{Code: ErrCodeDuplicateEntity, Table: step.Name, Message: "table already exists"}
	}

	for _, ref := range step.References() {
		if ref == step.Name {
			continue
		}
		ok, err := s.dialect.TableExists(ctx, q, ref)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", ref, err)
		}
		if !ok {
			return &SchemaError{Code: ErrCodeMissingDependency, Table: step.Name,
				Message: fmt.Sprintf("referenced table %s does not exist", ref)}
		}
	}
	return nil
}

// Teardown drops every table of m in the exact reverse of the provisioning
// order, retracts the columns m added to existing tables, and removes m from
// the ledger, all in one transaction.
//
// Absent tables and columns are skipped. Fails with DEPENDENTS_EXIST when a
// table outside m still references a table of m.
func (s *Store) Teardown(ctx context.Context, m schema.Migration) error {
	ordered, err := schema.TeardownOrder(m)
	if err != nil {
		return fmt.Errorf("teardown %s: %w", m.Name, err)
	}

	s.logger.Info("tearing down migration", "migration", m.Name, "steps", len(ordered))

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, step := range ordered {
			stmts, err := s.retractStatements(ctx, tx, step)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return s.classify(err, "teardown", step.Name)
				}
			}
		}
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM "schema_migrations" WHERE "name" = ?`), m.Name); err != nil {
			return fmt.Errorf("remove %s from ledger: %w", m.Name, err)
		}
		s.logger.Info("tore down migration", "migration", m.Name)
		return nil
	})
}

// retractStatements returns the statements undoing step, skipping what is
// already gone, after checking nothing outside still depends on it.
func (s *Store) retractStatements(ctx context.Context, q dialect.Querier, step schema.Table) ([]string, error) {
	if step.Kind == schema.KindAlter {
		var stmts []string
		for i := len(step.Columns) - 1; i >= 0; i-- {
			c := step.Columns[i]
			has, err := s.dialect.ColumnExists(ctx, q, step.Name, c.Name)
			if err != nil {
				return nil, fmt.Errorf("inspect %s.%s: %w", step.Name, c.Name, err)
			}
			if !has {
				s.logger.Debug("column already absent", "table", step.Name, "column", c.Name)
				continue
			}
			stmts = append(stmts, s.dialect.DropColumn(step.Name, c.Name))
		}
		return stmts, nil
	}

	exists, err := s.dialect.TableExists(ctx, q, step.Name)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", step.Name, err)
	}
	if !exists {
		s.logger.Debug("table already absent", "table", step.Name)
		return nil, nil
	}

	dependents, err := s.dialect.ReferencingTables(ctx, q, step.Name)
	if err != nil {
		return nil, fmt.Errorf("inspect dependents of %s: %w", step.Name, err)
	}
	if len(dependents) > 0 {
		return nil, &SchemaError{Code: ErrCodeDependentsExist, Table: step.Name,
			Message: fmt.Sprintf("still referenced by %v", dependents)}
	}
	return []string{s.dialect.DropTable(step.Name)}, nil
}

// Up provisions every declared migration not yet in the ledger, in
// declaration order. It returns the names of the migrations applied.
func (s *Store) Up(ctx context.Context) ([]string, error) {
	applied, err := s.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, e := range applied {
		done[e.Name] = true
	}

	var ran []string
	for _, m := range s.def.Migrations {
		if done[m.Name] {
			continue
		}
		if err := s.Provision(ctx, m); err != nil {
			return ran, err
		}
		ran = append(ran, m.Name)
	}
	return ran, nil
}

// Down tears down the last steps applied migrations, most recent first. It
// returns the names of the migrations torn down.
func (s *Store) Down(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, nil
	}
	applied, err := s.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, e := range applied {
		done[e.Name] = true
	}

	var ran []string
	for _, m := range slices.Backward(s.def.Migrations) {
		if len(ran) == steps {
			break
		}
		if !done[m.Name] {
			continue
		}
		if err := s.Teardown(ctx, m); err != nil {
			return ran, err
		}
		ran = append(ran, m.Name)
	}
	return ran, nil
}

// Applied returns the ledger entries ordered by name.
func (s *Store) Applied(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT "name", "run_id", "checksum", "fingerprint", "applied_at" FROM "schema_migrations" ORDER BY "name"`)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var at nullTime
		if err := rows.Scan(&e.Name, &e.RunID, &e.Checksum, &e.Fingerprint, &at); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		e.AppliedAt = at.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Status reports every declared migration with its ledger entry, plus any
// ledger entry whose migration is no longer declared.
func (s *Store) Status(ctx context.Context) ([]MigrationStatus, error) {
	applied, err := s.Applied(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]LedgerEntry, len(applied))
	for _, e := range applied {
		byName[e.Name] = e
	}

	out := make([]MigrationStatus, 0, len(s.def.Migrations))
	for _, m := range s.def.Migrations {
		st := MigrationStatus{Name: m.Name}
		if e, ok := byName[m.Name]; ok {
			checksum, err := schema.Checksum(m)
			if err != nil {
				return nil, err
			}
			st.Applied = true
			st.Entry = &e
			st.Drifted = e.Checksum != checksum
			delete(byName, m.Name)
		}
		out = append(out, st)
	}
	for _, e := range applied {
		if _, orphan := byName[e.Name]; orphan {
			out = append(out, MigrationStatus{Name: e.Name, Applied: true, Entry: &e, Drifted: true})
		}
	}
	return out, nil
}

// Inspect reads the live structure of every table the definition manages.
// Tables not provisioned are left out.
func (s *Store) Inspect(ctx context.Context) (schema.Catalog, error) {
	cat, err := s.dialect.Describe(ctx, s.db, s.def.Tables())
	if err != nil {
		return schema.Catalog{}, fmt.Errorf("inspect catalog: %w", err)
	}
	return cat, nil
}

// Fingerprint hashes the live structure returned by Inspect.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	cat, err := s.Inspect(ctx)
	if err != nil {
		return "", err
	}
	return schema.Fingerprint(cat)
}

func (s *Store) fingerprint(ctx context.Context, q dialect.Querier, tables []string) (string, error) {
	cat, err := s.dialect.Describe(ctx, q, tables)
	if err != nil {
		return "", fmt.Errorf("inspect catalog: %w", err)
	}
	return schema.Fingerprint(cat)
}

// touchedTables lists the tables a migration creates or alters.
func touchedTables(m schema.Migration) []string {
	var names []string
	for _, t := range m.Tables {
		if !slices.Contains(names, t.Name) {
			names = append(names, t.Name)
		}
	}
	return names
}

// logAttrs is shared by the entity methods' debug logs.
func logAttrs(table string, id int64) []any {
	return []any{slog.String("table", table), slog.Int64("id", id)}
}
