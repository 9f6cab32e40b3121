package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hrportal/internal/model"
	"github.com/roach88/hrportal/internal/schema"
	"github.com/roach88/hrportal/internal/testutil"
)

// openTestStore opens an empty store on a fresh SQLite file.
func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(driver, path,
		WithClock(testutil.NewDeterministicClock().Now),
		WithRunIDGenerator(testutil.NewSequentialRunIDs("")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestStore opens a store with every migration applied.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s := openTestStore(t, "sqlite3")
	_, err := s.Up(context.Background())
	require.NoError(t, err)
	return s
}

func migration(t *testing.T, s *Store, name string) schema.Migration {
	t.Helper()
	m, ok := s.Definition().Migration(name)
	require.True(t, ok, "migration %s not declared", name)
	return m
}

func mustUser(t *testing.T, s *Store, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), model.User{Name: email, Email: email, Password: "secret"})
	require.NoError(t, err)
	return u
}

func mustRole(t *testing.T, s *Store, name string) model.Role {
	t.Helper()
	r, err := s.CreateRole(context.Background(), model.Role{Name: name})
	require.NoError(t, err)
	return r
}

func mustPermission(t *testing.T, s *Store, name string) model.Permission {
	t.Helper()
	p, err := s.CreatePermission(context.Background(), model.Permission{Name: name})
	require.NoError(t, err)
	return p
}

func mustSurvey(t *testing.T, s *Store, author int64) model.Survey {
	t.Helper()
	sv, err := s.CreateSurvey(context.Background(), model.Survey{Title: "Onboarding", CreatedBy: author})
	require.NoError(t, err)
	return sv
}

func mustVacancy(t *testing.T, s *Store, author int64) model.Vacancy {
	t.Helper()
	v, err := s.CreateVacancy(context.Background(), model.Vacancy{
		Title:       "Backend engineer",
		Description: "Go services",
		CreatedBy:   author,
	})
	require.NoError(t, err)
	return v
}

func count(t *testing.T, s *Store, table string, where map[string]any) int {
	t.Helper()
	n, err := s.Count(context.Background(), table, where)
	require.NoError(t, err)
	return n
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
}
