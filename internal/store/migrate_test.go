package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp_AppliesEveryMigrationInOrder(t *testing.T) {
	s := openTestStore(t, "sqlite3")
	ctx := context.Background()

	ran, err := s.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users_table", "0002_create_project_tables"}, ran)

	entries, err := s.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run-0001", entries[0].RunID)
	assert.Equal(t, "run-0002", entries[1].RunID)
	assert.Len(t, entries[1].Fingerprint, 64)
	assert.False(t, entries[0].AppliedAt.IsZero())

	// Nothing left to apply.
	ran, err = s.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)
}

func TestProvision_TwiceFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Provision(ctx, migration(t, s, "0002_create_project_tables"))
	requireCode(t, err, ErrCodeDuplicateEntity)
	assert.True(t, IsOrderingError(err))

	err = s.Provision(ctx, migration(t, s, "0001_create_users_table"))
	requireCode(t, err, ErrCodeDuplicateEntity)
}

func TestProvision_MissingDependencyRollsBack(t *testing.T) {
	s := openTestStore(t, "sqlite3")
	ctx := context.Background()

	// users does not exist yet, so the project tables cannot be provisioned.
	err := s.Provision(ctx, migration(t, s, "0002_create_project_tables"))
	requireCode(t, err, ErrCodeMissingDependency)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "users", se.Table)

	// roles was created before the failing step and must be gone again.
	ok, err := s.Dialect().TableExists(ctx, s.DB(), "roles")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := s.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTeardown_ExactReverse(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Teardown(ctx, migration(t, s, "0002_create_project_tables")))

	for _, table := range []string{"roles", "permissions", "permission_role", "modules", "surveys",
		"questions", "responses", "answer_details", "vacancies", "applications"} {
		ok, err := s.Dialect().TableExists(ctx, s.DB(), table)
		require.NoError(t, err)
		assert.False(t, ok, table)
	}

	// The pre-existing table survives without its role reference.
	ok, err := s.Dialect().TableExists(ctx, s.DB(), "users")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Dialect().ColumnExists(ctx, s.DB(), "users", "role_id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTeardown_DependentsExist(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// users is still referenced by surveys, vacancies, responses and
	// applications.
	err := s.Teardown(ctx, migration(t, s, "0001_create_users_table"))
	requireCode(t, err, ErrCodeDependentsExist)

	ok, err := s.Dialect().TableExists(ctx, s.DB(), "users")
	require.NoError(t, err)
	assert.True(t, ok)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status[0].Applied)
}

func TestTeardown_SkipsAbsentTables(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.DB().Exec(`DROP TABLE "answer_details"`)
	require.NoError(t, err)

	require.NoError(t, s.Teardown(ctx, migration(t, s, "0002_create_project_tables")))

	// Twice is harmless too.
	require.NoError(t, s.Teardown(ctx, migration(t, s, "0002_create_project_tables")))
}

func TestRoundTrip_IdenticalFingerprint(t *testing.T) {
	for _, driver := range []string{"sqlite3", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			s := openTestStore(t, driver)
			ctx := context.Background()

			_, err := s.Up(ctx)
			require.NoError(t, err)
			first, err := s.Fingerprint(ctx)
			require.NoError(t, err)

			down, err := s.Down(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"0002_create_project_tables", "0001_create_users_table"}, down)

			cat, err := s.Inspect(ctx)
			require.NoError(t, err)
			assert.Empty(t, cat.Tables)

			_, err = s.Up(ctx)
			require.NoError(t, err)
			second, err := s.Fingerprint(ctx)
			require.NoError(t, err)

			assert.Equal(t, first, second)
		})
	}
}

func TestRoundTrip_LedgerFingerprintStable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	before, err := s.Applied(ctx)
	require.NoError(t, err)

	_, err = s.Down(ctx, 1)
	require.NoError(t, err)
	_, err = s.Up(ctx)
	require.NoError(t, err)

	after, err := s.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, before[1].Fingerprint, after[1].Fingerprint)
	assert.Equal(t, before[1].Checksum, after[1].Checksum)
	assert.NotEqual(t, before[1].RunID, after[1].RunID)
}

func TestDown_Steps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ran, err := s.Down(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ran)

	ran, err = s.Down(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_create_project_tables"}, ran)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)
	assert.Nil(t, status[1].Entry)

	// Asking for more than is applied stops at the first migration.
	ran, err = s.Down(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users_table"}, ran)
}

func TestStatus_DetectsDrift(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.DB().Exec(`UPDATE "schema_migrations" SET "checksum" = 'stale' WHERE "name" = '0001_create_users_table'`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO "schema_migrations" ("name", "run_id", "checksum", "fingerprint", "applied_at")
		VALUES ('0000_removed', 'run-x', 'c', 'f', '2025-01-01 00:00:00')`)
	require.NoError(t, err)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 3)

	assert.True(t, status[0].Drifted)
	assert.False(t, status[1].Drifted)
	assert.Equal(t, "0000_removed", status[2].Name)
	assert.True(t, status[2].Drifted)
}

func TestInspect_DescribesProvisionedTables(t *testing.T) {
	s := createTestStore(t)

	cat, err := s.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, cat.Tables, 11)

	surveys, ok := cat.Table("surveys")
	require.True(t, ok)
	actions := map[string]string{}
	for _, fk := range surveys.ForeignKeys {
		actions[fk.Column] = fk.OnDelete
	}
	assert.Equal(t, map[string]string{"module_id": "SET NULL", "created_by": "CASCADE"}, actions)
}
