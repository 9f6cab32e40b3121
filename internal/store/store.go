package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/hrportal/internal/dialect"
	"github.com/roach88/hrportal/internal/schema"
)

// Store provides provisioning, the migration ledger and entity access on one
// database.
type Store struct {
	db      *sql.DB
	driver  string
	dialect dialect.Dialect
	def     schema.Definition
	logger  *slog.Logger
	now     func() time.Time
	runIDs  RunIDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for provisioning and teardown events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the source of created_at, updated_at and ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRunIDGenerator sets the generator of ledger run ids.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(s *Store) { s.runIDs = g }
}

// WithDefinition replaces the embedded project definition.
func WithDefinition(def schema.Definition) Option {
	return func(s *Store) { s.def = def }
}

// Open connects to the database behind driver and dsn, applies the session
// settings the driver needs and creates the migration ledger if missing.
//
// No project table is created; call Up or Provision for that.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	d, err := dialect.ForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.Name() == "sqlite" {
		// SQLite only supports one writer at a time, and PRAGMA settings are
		// per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	s := &Store{
		db:      db,
		driver:  driver,
		dialect: d,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		runIDs:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.def.Migrations) == 0 {
		s.def = schema.MustLoad()
	}

	if err := s.ensureLedger(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration ledger: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the connection.
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

// Definition returns the schema definition the store manages.
func (s *Store) Definition() schema.Definition {
	return s.def
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// timestamp returns the store clock in UTC at microsecond precision, the
// finest both engines keep.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertID runs an INSERT ... RETURNING "id" and returns the new id.
func (s *Store) insertID(ctx context.Context, q dialect.Querier, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// exec runs a statement and reports whether it touched any row.
func (s *Store) exec(ctx context.Context, q dialect.Querier, query string, args ...any) (bool, error) {
	res, err := q.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) queryRow(ctx context.Context, q dialect.Querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
