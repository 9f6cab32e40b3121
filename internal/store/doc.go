// Package store is the Schema Store: it opens the database, provisions and
// tears down schema migrations, keeps the migration ledger, and offers the
// typed entity access used to exercise the referential-integrity rules.
//
// # Provisioning
//
// A migration is provisioned inside one transaction. Steps run in
// dependency order (see schema.ProvisionOrder). Before each step the live
// catalog is checked:
//   - a table the step creates must not exist yet (DUPLICATE_ENTITY)
//   - every table it references must exist (MISSING_DEPENDENCY)
//
// SQLite accepts a REFERENCES clause naming a missing table, so this check
// is made explicitly rather than left to the engine.
//
// # Teardown
//
// Teardown runs the exact reverse order in one transaction. Absent tables are
// skipped. A table still referenced by a table outside the migration fails
// the whole teardown with DEPENDENTS_EXIST.
//
// # Database Configuration
//
// SQLite connections (drivers "sqlite3" and "sqlite") run with:
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Enforce REFERENCES and ON DELETE actions
//
// and a single open connection. PostgreSQL (driver "postgres") needs no
// session setup.
package store
