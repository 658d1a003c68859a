package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masta-danila/callchecker/internal/env"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "callchecker", cfg.Project)
	assert.Equal(t, 2*time.Second, cfg.PollIntervalDuration())
	assert.Equal(t, 10*time.Second, cfg.SettleDelayDuration())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "deploy.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Project, cfg.Project)
	assert.NotEmpty(t, cfg.Services)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project: callchecker-staging
settleDelay: 3s
services:
  - name: postgres
    required: true
    startupTimeout: 90s
    probe: [pg_isready, -U, callchecker]
  - name: sheet-sync
`), 0o644))

	cfg, err := Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, "callchecker-staging", cfg.Project)
	assert.Equal(t, 3*time.Second, cfg.SettleDelayDuration())
	require.Len(t, cfg.Services, 2)
	assert.Equal(t, 90*time.Second, cfg.StartupTimeoutDuration(cfg.Services[0]))
	assert.Equal(t, 60*time.Second, cfg.StartupTimeoutDuration(cfg.Services[1]), "empty timeout uses the default")
	assert.Equal(t, "docker-compose.yml", cfg.ComposeFile, "unset keys keep defaults")
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "deploy.yaml"), env.Vars{
		"CHECKERCTL_PROJECT": "cc-test",
		"CHECKERCTL_LOG_DIR": "/var/log/callchecker",
	})

	require.NoError(t, err)
	assert.Equal(t, "cc-test", cfg.Project)
	assert.Equal(t, "/var/log/callchecker", cfg.LogDir)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty project", func(c *Config) { c.Project = " " }},
		{"empty compose file", func(c *Config) { c.ComposeFile = "" }},
		{"zero tail lines", func(c *Config) { c.LogTailLines = 0 }},
		{"bad poll interval", func(c *Config) { c.PollInterval = "soon" }},
		{"negative poll interval", func(c *Config) { c.PollInterval = "-2s" }},
		{"empty service name", func(c *Config) { c.Services = append(c.Services, Service{Name: ""}) }},
		{"duplicate service", func(c *Config) { c.Services = append(c.Services, Service{Name: "postgres"}) }},
		{"bad startup timeout", func(c *Config) { c.Services[0].StartupTimeout = "forever" }},
		{"negative startup timeout", func(c *Config) { c.Services[0].StartupTimeout = "-1s" }},
		{"unit without exec", func(c *Config) { c.Units = append(c.Units, Unit{Name: "cc"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLockPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".callchecker.deploy.lock", cfg.LockPath())
}
