package cli

import (
	"fmt"
	"time"

	"github.com/masta-danila/callchecker/internal/config"
	"github.com/masta-danila/callchecker/internal/env"
	"github.com/masta-danila/callchecker/internal/sequencer"
	"github.com/masta-danila/callchecker/internal/systemd"
)

// loadConfig loads deploy.yaml with overrides from the optional --env-file.
func loadConfig(opts *Options) (*config.Config, error) {
	var extra env.Vars
	if opts.EnvFile != "" {
		vars, err := env.LoadEnvFile(opts.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("load env file %q: %w", opts.EnvFile, err)
		}
		extra = vars
	}
	return config.Load(opts.ConfigPath, extra)
}

// preflightChecks builds the ordered preflight checks for a deployment.
func preflightChecks(cfg *config.Config) []sequencer.Check {
	return []sequencer.Check{
		sequencer.BinaryInPath("docker binary reachable", "docker"),
		sequencer.CommandSucceeds("docker daemon reachable", "docker", "info"),
		sequencer.FileExists("compose file present", cfg.ComposeFile),
		sequencer.FileExists("credentials file present", cfg.CredentialsFile),
		sequencer.AnyFileExists("env configuration present", cfg.EnvFile, cfg.EnvTemplate),
	}
}

// sequencerServices converts configured services into sequencer descriptors.
// A positive timeoutOverride replaces every service's configured startup timeout.
func sequencerServices(cfg *config.Config, timeoutOverride time.Duration) []sequencer.Service {
	out := make([]sequencer.Service, 0, len(cfg.Services))
	for _, svc := range cfg.Services {
		timeout := cfg.StartupTimeoutDuration(svc)
		if timeoutOverride > 0 {
			timeout = timeoutOverride
		}
		out = append(out, sequencer.Service{
			Name:           svc.Name,
			Required:       svc.Required,
			Probe:          svc.Probe,
			StartupTimeout: timeout,
		})
	}
	return out
}

// systemdUnits converts configured units into installable unit descriptors.
func systemdUnits(cfg *config.Config) []systemd.Unit {
	out := make([]systemd.Unit, 0, len(cfg.Units))
	for _, u := range cfg.Units {
		out = append(out, systemd.Unit{
			Name:             u.Name,
			Description:      u.Description,
			WorkingDirectory: u.WorkingDirectory,
			ExecStart:        u.ExecStart,
			Restart:          u.Restart,
			RestartSec:       u.RestartSec,
		})
	}
	return out
}
