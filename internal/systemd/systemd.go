// Package systemd renders and installs unit files for the stack services.
package systemd

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
)

// DefaultUnitDir is the standard location for locally installed unit files.
const DefaultUnitDir = "/etc/systemd/system"

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Description}}
After=network-online.target docker.service
Wants=network-online.target

[Service]
Type=simple
WorkingDirectory={{.WorkingDirectory}}
ExecStart={{.ExecStart}}
Restart={{.Restart}}
RestartSec={{.RestartSec}}

[Install]
WantedBy=multi-user.target
`))

// Unit describes a single installable service unit.
type Unit struct {
	Name             string
	Description      string
	WorkingDirectory string
	ExecStart        string
	Restart          string
	RestartSec       int
}

// FileName returns the unit's file name with a ".service" suffix.
func (u Unit) FileName() string {
	if strings.HasSuffix(u.Name, ".service") {
		return u.Name
	}
	return u.Name + ".service"
}

// Render produces the unit file contents for u, applying defaults for the
// description and restart policy.
func Render(u Unit) ([]byte, error) {
	if strings.TrimSpace(u.Name) == "" {
		return nil, fmt.Errorf("unit name must not be empty")
	}
	if strings.TrimSpace(u.ExecStart) == "" {
		return nil, fmt.Errorf("unit %q: ExecStart must not be empty", u.Name)
	}
	if u.Description == "" {
		u.Description = u.Name
	}
	if u.Restart == "" {
		u.Restart = "on-failure"
	}
	if u.RestartSec <= 0 {
		u.RestartSec = 5
	}
	if u.WorkingDirectory == "" {
		u.WorkingDirectory = "/opt/callchecker"
	}

	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, u); err != nil {
		return nil, fmt.Errorf("render unit %q: %w", u.Name, err)
	}
	return buf.Bytes(), nil
}

// Installer writes unit files and registers them with systemd.
type Installer struct {
	UnitDir string
	logger  *slog.Logger

	// systemctl is swappable so tests can install units without systemd.
	systemctl func(ctx context.Context, args ...string) error
}

// NewInstaller constructs an Installer targeting unitDir (DefaultUnitDir when empty).
func NewInstaller(unitDir string, logger *slog.Logger) *Installer {
	if unitDir == "" {
		unitDir = DefaultUnitDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		UnitDir: unitDir,
		logger:  logger,
		systemctl: func(ctx context.Context, args ...string) error {
			cmd := exec.CommandContext(ctx, "systemctl", args...)
			cmd.Stdout = os.Stderr
			cmd.Stderr = os.Stderr
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("systemctl %s failed: %w", strings.Join(args, " "), err)
			}
			return nil
		},
	}
}

// Install renders each unit into the unit directory, reloads the systemd
// daemon once and enables every unit with --now.
func (i *Installer) Install(ctx context.Context, units []Unit) error {
	if len(units) == 0 {
		return nil
	}

	for _, u := range units {
		data, err := Render(u)
		if err != nil {
			return err
		}
		path := filepath.Join(i.UnitDir, u.FileName())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write unit file %q: %w", path, err)
		}
		i.logger.Info("unit file installed", "unit", u.FileName(), "path", path)
	}

	if err := i.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	for _, u := range units {
		if err := i.systemctl(ctx, "enable", "--now", u.FileName()); err != nil {
			return err
		}
		i.logger.Info("unit enabled", "unit", u.FileName())
	}
	return nil
}
