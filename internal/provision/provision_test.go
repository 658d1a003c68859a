package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masta-danila/callchecker/internal/config"
)

func TestRenderLogrotate(t *testing.T) {
	cfg := config.Default()
	cfg.LogDir = "/opt/callchecker/logs"

	data, err := RenderLogrotate(cfg)

	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "/opt/callchecker/logs/*.log {")
	assert.Contains(t, text, "daily")
	assert.Contains(t, text, "rotate 30")
	assert.Contains(t, text, "compress")
	assert.Contains(t, text, "missingok")
}

func TestRenderLogrotateWithoutCompression(t *testing.T) {
	cfg := config.Default()
	cfg.Logrotate.Compress = false

	data, err := RenderLogrotate(cfg)

	require.NoError(t, err)
	assert.NotContains(t, string(data), "compress")
}

func TestCheckBinariesReportsMissingRequired(t *testing.T) {
	prov := New(nil)
	prov.lookPath = func(name string) (string, error) {
		if name == "docker" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	prov.runCommand = func(context.Context, string, ...string) error {
		t.Fatal("compose plugin must not be probed without docker")
		return nil
	}

	err := prov.CheckBinaries(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "docker")
}

func TestCheckBinariesReportsMissingComposePlugin(t *testing.T) {
	prov := New(nil)
	prov.lookPath = func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}
	var probed [][]string
	prov.runCommand = func(_ context.Context, name string, args ...string) error {
		probed = append(probed, append([]string{name}, args...))
		return errors.New("unknown command: compose")
	}

	err := prov.CheckBinaries(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "compose plugin")
	assert.Equal(t, [][]string{{"docker", "compose", "version"}}, probed)
}

func TestCheckBinariesToleratesMissingOptional(t *testing.T) {
	prov := New(nil)
	prov.lookPath = func(name string) (string, error) {
		if name == "rsync" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	prov.runCommand = func(context.Context, string, ...string) error { return nil }

	assert.NoError(t, prov.CheckBinaries(context.Background()))
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.CredentialsFile = filepath.Join(dir, "google_sheet", "credentials.json")

	require.NoError(t, New(nil).EnsureDirs(cfg))

	assert.DirExists(t, cfg.LogDir)
	assert.DirExists(t, filepath.Join(dir, "google_sheet"))
}

func TestWriteLogrotate(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	path := filepath.Join(dir, "callchecker")

	require.NoError(t, New(nil).WriteLogrotate(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotate 30")
}
