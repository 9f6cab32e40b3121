package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCUE(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestValidateBuiltInSchema(t *testing.T) {
	out, _, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Schema valid (2 migrations, 11 tables)")
}

func TestValidateBuiltInSchemaJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(11), data["tables"])
}

func TestValidateUnknownReference(t *testing.T) {
	path := writeCUE(t, `
migrations: [{
	name: "0001_orphans"
	tables: [{
		name: "orphans"
		columns: [
			{name: "id", type: "id"},
			{name: "parent_id", type: "foreign", references: "parents", on_delete: "cascade"},
		]
	}]
}]
`)

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Schema invalid")
	assert.Contains(t, out, "[S105] 0001_orphans.orphans.parent_id")
}

func TestValidateCompileError(t *testing.T) {
	path := writeCUE(t, "migrations: [{name: 1\n")

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_COMPILE]")
}

func TestValidateMissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
