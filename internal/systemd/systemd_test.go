package systemd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	data, err := Render(Unit{
		Name:             "callchecker-bitrix24",
		Description:      "Callchecker Bitrix24 sync",
		WorkingDirectory: "/opt/callchecker",
		ExecStart:        "/usr/bin/python3 bitrix24/main.py",
	})

	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Description=Callchecker Bitrix24 sync")
	assert.Contains(t, text, "WorkingDirectory=/opt/callchecker")
	assert.Contains(t, text, "ExecStart=/usr/bin/python3 bitrix24/main.py")
	assert.Contains(t, text, "Restart=on-failure")
	assert.Contains(t, text, "RestartSec=5")
	assert.Contains(t, text, "WantedBy=multi-user.target")
}

func TestRenderRejectsIncompleteUnits(t *testing.T) {
	_, err := Render(Unit{Name: "", ExecStart: "/bin/true"})
	assert.Error(t, err)

	_, err = Render(Unit{Name: "cc", ExecStart: " "})
	assert.Error(t, err)
}

func TestUnitFileName(t *testing.T) {
	assert.Equal(t, "cc.service", Unit{Name: "cc"}.FileName())
	assert.Equal(t, "cc.service", Unit{Name: "cc.service"}.FileName())
}

func TestInstallWritesUnitsAndEnablesThem(t *testing.T) {
	dir := t.TempDir()
	installer := NewInstaller(dir, nil)

	var calls [][]string
	installer.systemctl = func(_ context.Context, args ...string) error {
		calls = append(calls, args)
		return nil
	}

	units := []Unit{
		{Name: "callchecker-bitrix24", ExecStart: "/usr/bin/python3 bitrix24/main.py"},
		{Name: "callchecker-sheets", ExecStart: "/usr/bin/python3 google_sheet/main.py"},
	}
	require.NoError(t, installer.Install(context.Background(), units))

	for _, u := range units {
		_, err := os.Stat(filepath.Join(dir, u.FileName()))
		assert.NoError(t, err, "unit file %s must be written", u.FileName())
	}

	require.Len(t, calls, 3)
	assert.Equal(t, []string{"daemon-reload"}, calls[0], "daemon reloads once before enabling")
	assert.Equal(t, []string{"enable", "--now", "callchecker-bitrix24.service"}, calls[1])
	assert.Equal(t, []string{"enable", "--now", "callchecker-sheets.service"}, calls[2])
}

func TestInstallNoUnitsIsNoop(t *testing.T) {
	installer := NewInstaller(t.TempDir(), nil)
	installer.systemctl = func(context.Context, ...string) error {
		t.Fatal("systemctl must not run without units")
		return nil
	}

	require.NoError(t, installer.Install(context.Background(), nil))
}

func TestInstallStopsOnRenderError(t *testing.T) {
	dir := t.TempDir()
	installer := NewInstaller(dir, nil)
	installer.systemctl = func(context.Context, ...string) error {
		t.Fatal("systemctl must not run when rendering fails")
		return nil
	}

	err := installer.Install(context.Background(), []Unit{{Name: "broken"}})

	require.Error(t, err)
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".service"))
	}
}
