package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masta-danila/callchecker/internal/config"
)

func TestSequencerServicesUsesConfiguredTimeouts(t *testing.T) {
	cfg := config.Default()

	services := sequencerServices(cfg, 0)

	require.Len(t, services, len(cfg.Services))
	for i, svc := range services {
		assert.Equal(t, cfg.Services[i].Name, svc.Name)
		assert.Equal(t, cfg.StartupTimeoutDuration(cfg.Services[i]), svc.StartupTimeout)
	}
}

func TestSequencerServicesTimeoutOverride(t *testing.T) {
	cfg := config.Default()

	services := sequencerServices(cfg, 90*time.Second)

	require.Len(t, services, len(cfg.Services))
	for _, svc := range services {
		assert.Equal(t, 90*time.Second, svc.StartupTimeout)
	}
}

func TestDeployCommandAcceptsTimeoutFlag(t *testing.T) {
	cmd := newDeployCommand(&Options{ConfigPath: defaultConfigPath})

	require.NoError(t, cmd.Flags().Set("timeout", "90s"))

	got, err := cmd.Flags().GetDuration("timeout")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, got)
}
