package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeCreatesCopy(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "env.template")
	active := filepath.Join(dir, ".env")
	content := []byte("DB_HOST=postgres\n# comment stays as-is\nDB_PORT=5432\n")
	require.NoError(t, os.WriteFile(template, content, 0o600))

	created, err := Materialize(template, active)

	require.NoError(t, err)
	assert.True(t, created)
	got, err := os.ReadFile(active)
	require.NoError(t, err)
	assert.Equal(t, content, got, "contents are copied byte for byte")
}

func TestMaterializeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "env.template")
	active := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(template, []byte("KEY=template\n"), 0o600))
	live := []byte("KEY=live-and-edited\n")
	require.NoError(t, os.WriteFile(active, live, 0o600))

	created, err := Materialize(template, active)

	require.NoError(t, err)
	assert.False(t, created)
	got, err := os.ReadFile(active)
	require.NoError(t, err)
	assert.Equal(t, live, got)
}

func TestMaterializeMissingTemplate(t *testing.T) {
	dir := t.TempDir()

	_, err := Materialize(filepath.Join(dir, "nope.template"), filepath.Join(dir, ".env"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.env")
	require.NoError(t, os.WriteFile(path, []byte("CHECKERCTL_LOG_DIR=/var/log/callchecker\nCHECKERCTL_PROJECT=cc\n"), 0o600))

	vars, err := LoadEnvFile(path)

	require.NoError(t, err)
	assert.Equal(t, "/var/log/callchecker", vars["CHECKERCTL_LOG_DIR"])
	assert.Equal(t, "cc", vars["CHECKERCTL_PROJECT"])
}

func TestMergeLaterOverridesEarlier(t *testing.T) {
	merged := Merge(
		Vars{"A": "1", "B": "1"},
		Vars{"B": "2", "C": "2"},
	)

	assert.Equal(t, Vars{"A": "1", "B": "2", "C": "2"}, merged)
}
