package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HRPORTAL_DB_DRIVER", "")
	os.Unsetenv("HRPORTAL_DB_DRIVER")
	t.Setenv("HRPORTAL_DB_DSN", "")
	os.Unsetenv("HRPORTAL_DB_DSN")
	t.Setenv("HRPORTAL_LOG_LEVEL", "")
	os.Unsetenv("HRPORTAL_LOG_LEVEL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{DBDriver: "sqlite3", DBDSN: "hrportal.db", LogLevel: "info"}, cfg)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HRPORTAL_DB_DRIVER", "postgres")
	t.Setenv("HRPORTAL_DB_DSN", "postgres://localhost/hr?sslmode=disable")
	t.Setenv("HRPORTAL_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/hr?sslmode=disable", cfg.DBDSN)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HRPORTAL_DB_DRIVER=sqlite\nHRPORTAL_DB_DSN=from-file.db\n"), 0o600))

	t.Setenv("HRPORTAL_DB_DSN", "from-env.db")
	// Registered so the value loaded from the file is cleared after the test.
	t.Setenv("HRPORTAL_DB_DRIVER", "")
	os.Unsetenv("HRPORTAL_DB_DRIVER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "from-env.db", cfg.DBDSN)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)

	// The default file is optional.
	t.Chdir(t.TempDir())
	_, err = Load(DefaultEnvFile)
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{DBDriver: "sqlite3", DBDSN: "x.db", LogLevel: "warn"}, ""},
		{"driver", Config{DBDriver: "mysql", DBDSN: "x", LogLevel: "info"}, "HRPORTAL_DB_DRIVER"},
		{"dsn", Config{DBDriver: "sqlite", LogLevel: "info"}, "HRPORTAL_DB_DSN"},
		{"level", Config{DBDriver: "sqlite", DBDSN: "x", LogLevel: "loud"}, "HRPORTAL_LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
