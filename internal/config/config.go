// Package config contains the loader and strongly typed model for deploy.yaml.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	envcfg "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/masta-danila/callchecker/internal/env"
)

// Config describes a deployable Callchecker installation.
// It mirrors the structure of deploy.yaml; a handful of path-like fields can
// additionally be overridden through CHECKERCTL_* environment variables.
type Config struct {
	// Project is the short project name used for the compose project and lock file.
	Project string `yaml:"project" env:"CHECKERCTL_PROJECT"`
	// ComposeFile is the path to the compose definition for the stack.
	ComposeFile string `yaml:"composeFile" env:"CHECKERCTL_COMPOSE_FILE"`
	// EnvTemplate is the template copied to EnvFile on first deploy.
	EnvTemplate string `yaml:"envTemplate" env:"CHECKERCTL_ENV_TEMPLATE"`
	// EnvFile is the active environment file consumed by the stack.
	EnvFile string `yaml:"envFile" env:"CHECKERCTL_ENV_FILE"`
	// CredentialsFile is the Google service-account credentials path checked in preflight.
	CredentialsFile string `yaml:"credentialsFile" env:"CHECKERCTL_CREDENTIALS_FILE"`
	// LogDir is where the stack writes its log files.
	LogDir string `yaml:"logDir" env:"CHECKERCTL_LOG_DIR"`
	// PollInterval is the string-form readiness polling interval (e.g. "2s").
	PollInterval string `yaml:"pollInterval,omitempty"`
	// SettleDelay is the string-form pause before the post-deploy status query.
	SettleDelay string `yaml:"settleDelay,omitempty"`
	// ErrorMarker is the substring scanned for in recent logs, case-insensitively.
	ErrorMarker string `yaml:"errorMarker,omitempty"`
	// LogTailLines is how many log lines to fetch for diagnostics and scanning.
	LogTailLines int `yaml:"logTailLines,omitempty"`
	// Services lists the managed services in startup order.
	Services []Service `yaml:"services,omitempty"`
	// Units lists systemd units installable for the stack.
	Units []Unit `yaml:"units,omitempty"`
	// Logrotate describes the rotation policy materialized by provisioning.
	Logrotate Logrotate `yaml:"logrotate,omitempty"`
}

// Service describes one managed service and its readiness gate.
type Service struct {
	// Name is the compose service name.
	Name string `yaml:"name"`
	// Required marks services whose readiness timeout fails the whole run.
	Required bool `yaml:"required,omitempty"`
	// StartupTimeout is the string-form readiness budget (e.g. "60s").
	// Empty values fall back to the built-in default.
	StartupTimeout string `yaml:"startupTimeout,omitempty"`
	// Probe is the readiness command argv executed inside the service.
	// Services without a probe are started but not gated on.
	Probe []string `yaml:"probe,omitempty,flow"`
}

// Unit describes a systemd unit installable for the stack.
type Unit struct {
	// Name is the unit name; a ".service" suffix is appended when missing.
	Name string `yaml:"name"`
	// Description is the human-readable unit description.
	Description string `yaml:"description,omitempty"`
	// WorkingDirectory is the directory the unit runs in.
	WorkingDirectory string `yaml:"workingDirectory,omitempty"`
	// ExecStart is the command line the unit executes.
	ExecStart string `yaml:"execStart"`
	// Restart sets the systemd restart policy (default "on-failure").
	Restart string `yaml:"restart,omitempty"`
	// RestartSec sets the restart delay in seconds (default 5).
	RestartSec int `yaml:"restartSec,omitempty"`
}

// Logrotate describes the external log-rotation policy for the stack's logs.
type Logrotate struct {
	// Frequency is the rotation cadence (e.g. "daily").
	Frequency string `yaml:"frequency,omitempty"`
	// Rotate is the number of rotated generations to keep.
	Rotate int `yaml:"rotate,omitempty"`
	// Compress toggles compression of rotated files.
	Compress bool `yaml:"compress"`
}

const (
	defaultPollInterval   = 2 * time.Second
	defaultSettleDelay    = 10 * time.Second
	defaultStartupTimeout = 60 * time.Second
)

// Default returns the built-in configuration matching a stock Callchecker
// installation. Loading deploy.yaml overlays on top of it, so a missing or
// partial file still yields a runnable config.
func Default() *Config {
	return &Config{
		Project:         "callchecker",
		ComposeFile:     "docker-compose.yml",
		EnvTemplate:     ".env.template",
		EnvFile:         ".env",
		CredentialsFile: "google_sheet/credentials.json",
		LogDir:          "logs",
		PollInterval:    "2s",
		SettleDelay:     "10s",
		ErrorMarker:     "error",
		LogTailLines:    50,
		Services: []Service{
			{Name: "postgres", Required: true, StartupTimeout: "60s", Probe: []string{"pg_isready", "-U", "callchecker"}},
			{Name: "redis", StartupTimeout: "30s", Probe: []string{"redis-cli", "ping"}},
			{Name: "bitrix24-sync"},
			{Name: "dialogue-recognition"},
			{Name: "dialogue-analysis"},
			{Name: "sheet-sync"},
		},
		Logrotate: Logrotate{Frequency: "daily", Rotate: 30, Compress: true},
	}
}

// Load reads deploy.yaml from path, applies CHECKERCTL_* overrides from the
// process environment merged with extra, validates the result and returns it.
// A missing file is not an error: the defaults describe a stock installation.
func Load(path string, extra env.Vars) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	opts := envcfg.Options{Environment: env.Merge(env.FromOS(), extra)}
	if err := envcfg.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the sequencer relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return fmt.Errorf("config: project must not be empty")
	}
	if strings.TrimSpace(c.ComposeFile) == "" {
		return fmt.Errorf("config: composeFile must not be empty")
	}
	if c.LogTailLines <= 0 {
		return fmt.Errorf("config: logTailLines must be positive, got %d", c.LogTailLines)
	}
	if d, err := parseDuration(c.PollInterval, defaultPollInterval); err != nil {
		return fmt.Errorf("config: pollInterval: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("config: pollInterval must be positive, got %s", d)
	}
	if _, err := parseDuration(c.SettleDelay, defaultSettleDelay); err != nil {
		return fmt.Errorf("config: settleDelay: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Services))
	for _, svc := range c.Services {
		name := strings.TrimSpace(svc.Name)
		if name == "" {
			return fmt.Errorf("config: service with empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("config: duplicate service %q", name)
		}
		seen[name] = struct{}{}
		d, err := parseDuration(svc.StartupTimeout, defaultStartupTimeout)
		if err != nil {
			return fmt.Errorf("config: service %q: startupTimeout: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("config: service %q: startupTimeout must be positive, got %s", name, d)
		}
	}

	for _, unit := range c.Units {
		if strings.TrimSpace(unit.Name) == "" {
			return fmt.Errorf("config: unit with empty name")
		}
		if strings.TrimSpace(unit.ExecStart) == "" {
			return fmt.Errorf("config: unit %q: execStart must not be empty", unit.Name)
		}
	}
	return nil
}

// PollIntervalDuration resolves the effective readiness polling interval.
func (c *Config) PollIntervalDuration() time.Duration {
	d, err := parseDuration(c.PollInterval, defaultPollInterval)
	if err != nil {
		return defaultPollInterval
	}
	return d
}

// SettleDelayDuration resolves the effective post-deploy settle delay.
func (c *Config) SettleDelayDuration() time.Duration {
	d, err := parseDuration(c.SettleDelay, defaultSettleDelay)
	if err != nil {
		return defaultSettleDelay
	}
	return d
}

// StartupTimeoutDuration resolves the effective readiness budget for a service.
func (c *Config) StartupTimeoutDuration(svc Service) time.Duration {
	d, err := parseDuration(svc.StartupTimeout, defaultStartupTimeout)
	if err != nil {
		return defaultStartupTimeout
	}
	return d
}

// LockPath returns the path of the exclusive run-lock file for this project.
func (c *Config) LockPath() string {
	return "." + c.Project + ".deploy.lock"
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
