// Package provision prepares a host for running the Callchecker stack:
// required tooling present, directory layout in place, log rotation configured.
package provision

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/masta-danila/callchecker/internal/config"
)

var logrotateTemplate = template.Must(template.New("logrotate").Parse(`{{.LogGlob}} {
    {{.Frequency}}
    rotate {{.Rotate}}
{{- if .Compress}}
    compress
    delaycompress
{{- end}}
    missingok
    notifempty
    copytruncate
}
`))

// Provisioner runs host-preparation steps. It never installs packages itself;
// missing tools are reported for the operator to fix.
type Provisioner struct {
	logger *slog.Logger

	// lookPath and runCommand are swappable in tests.
	lookPath   func(name string) (string, error)
	runCommand func(ctx context.Context, name string, args ...string) error
}

// New constructs a Provisioner.
func New(logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		logger:   logger,
		lookPath: exec.LookPath,
		runCommand: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// CheckBinaries verifies the required tooling is usable: docker with its
// compose plugin and git must be present, rsync only produces a warning.
func (p *Provisioner) CheckBinaries(ctx context.Context) error {
	required := []string{"docker", "git"}
	optional := []string{"rsync"}

	missing := make([]string, 0, len(required))
	for _, tool := range required {
		if _, err := p.lookPath(tool); err != nil {
			p.logger.Error("required tool missing", "tool", tool, "error", err)
			missing = append(missing, tool)
			continue
		}
		p.logger.Info("tool check ok", "tool", tool)
	}

	if _, err := p.lookPath("docker"); err == nil {
		if err := p.runCommand(ctx, "docker", "compose", "version"); err != nil {
			p.logger.Error("docker compose plugin missing", "error", err)
			missing = append(missing, "docker compose plugin")
		} else {
			p.logger.Info("tool check ok", "tool", "docker compose")
		}
	}

	for _, tool := range optional {
		if _, err := p.lookPath(tool); err != nil {
			p.logger.Warn("optional tool not found", "tool", tool)
			continue
		}
		p.logger.Info("tool check ok", "tool", tool)
	}

	if len(missing) > 0 {
		return fmt.Errorf("required tools missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EnsureDirs creates the log directory and the credentials file's parent
// directory when absent.
func (p *Provisioner) EnsureDirs(cfg *config.Config) error {
	dirs := []string{cfg.LogDir}
	if credDir := filepath.Dir(cfg.CredentialsFile); credDir != "." && credDir != "/" {
		dirs = append(dirs, credDir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
		p.logger.Info("directory ready", "dir", dir)
	}
	return nil
}

// WriteLogrotate renders the rotation policy for the stack's log files and
// writes it to path. Rewriting an existing policy is safe: the content is a
// pure function of the config.
func (p *Provisioner) WriteLogrotate(cfg *config.Config, path string) error {
	data, err := RenderLogrotate(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write logrotate policy %q: %w", path, err)
	}
	p.logger.Info("logrotate policy written", "path", path)
	return nil
}

// RenderLogrotate produces the logrotate configuration for the stack's log directory.
func RenderLogrotate(cfg *config.Config) ([]byte, error) {
	policy := cfg.Logrotate
	if policy.Frequency == "" {
		policy.Frequency = "daily"
	}
	if policy.Rotate <= 0 {
		policy.Rotate = 30
	}

	params := struct {
		LogGlob   string
		Frequency string
		Rotate    int
		Compress  bool
	}{
		LogGlob:   filepath.Join(cfg.LogDir, "*.log"),
		Frequency: policy.Frequency,
		Rotate:    policy.Rotate,
		Compress:  policy.Compress,
	}

	var buf bytes.Buffer
	if err := logrotateTemplate.Execute(&buf, params); err != nil {
		return nil, fmt.Errorf("render logrotate policy: %w", err)
	}
	return buf.Bytes(), nil
}
