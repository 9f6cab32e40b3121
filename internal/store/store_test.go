package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open("sqlite3", path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t, "sqlite3")

	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpen_ModerncDriver(t *testing.T) {
	s := openTestStore(t, "sqlite")

	assert.Equal(t, "sqlite", s.Dialect().Name())
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestOpen_CreatesLedgerOnly(t *testing.T) {
	s := openTestStore(t, "sqlite3")
	ctx := context.Background()

	ok, err := s.Dialect().TableExists(ctx, s.DB(), ledgerTable)
	require.NoError(t, err)
	assert.True(t, ok)

	cat, err := s.Inspect(ctx)
	require.NoError(t, err)
	assert.Empty(t, cat.Tables)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open("sqlite3", path)
		require.NoError(t, err, "iteration %d", i)
		if i == 0 {
			_, err = s.Up(context.Background())
			require.NoError(t, err)
		}
		s.Close()
	}

	s, err := Open("sqlite3", path)
	require.NoError(t, err)
	defer s.Close()

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	for _, st := range status {
		assert.True(t, st.Applied, st.Name)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "root@/db")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}
