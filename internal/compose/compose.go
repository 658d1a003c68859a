// Package compose provides low-level integration with the docker compose CLI.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Client wraps docker compose execution for a single project.
type Client struct {
	// Project is the compose project name (-p).
	Project string
	// File is the compose file path (-f).
	File string
	// Dir is the working directory commands run in; empty means the current one.
	Dir string
	// Output receives streamed command output; defaults to os.Stderr.
	Output io.Writer
}

// NewClient constructs a compose client for the given project and compose file.
func NewClient(project, file string, output io.Writer) *Client {
	return &Client{
		Project: project,
		File:    file,
		Output:  output,
	}
}

// Build builds all service images.
func (c *Client) Build(ctx context.Context) error {
	return c.run(ctx, "build")
}

// Up starts all services detached, pruning containers that no longer exist in the file.
func (c *Client) Up(ctx context.Context) error {
	return c.run(ctx, "up", "-d", "--remove-orphans")
}

// Down stops and removes all services.
func (c *Client) Down(ctx context.Context) error {
	return c.run(ctx, "down", "--remove-orphans")
}

// Status returns the compose ps listing for the project.
func (c *Client) Status(ctx context.Context) (string, error) {
	out, err := c.runAndCapture(ctx, "ps", "--all")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// Logs fetches the most recent tail lines of logs. An empty service selects
// the combined logs of every service.
func (c *Client) Logs(ctx context.Context, service string, tail int) (string, error) {
	args := []string{"logs", "--no-color", "--tail", strconv.Itoa(tail)}
	if service != "" {
		args = append(args, service)
	}
	out, err := c.runAndCapture(ctx, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Probe executes a readiness command inside a running service container.
// A non-zero exit means not ready.
func (c *Client) Probe(ctx context.Context, service string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("probe for service %q has no command", service)
	}
	args := append([]string{"exec", "-T", service}, argv...)
	_, err := c.runAndCapture(ctx, args...)
	return err
}

func (c *Client) run(ctx context.Context, args ...string) error {
	cmd := c.command(ctx, args...)
	out := c.Output
	if out == nil {
		out = os.Stderr
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker compose %s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}

func (c *Client) runAndCapture(ctx context.Context, args ...string) ([]byte, error) {
	cmd := c.command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("docker compose %s failed: %s: %w", strings.Join(args, " "), msg, err)
		}
		return nil, fmt.Errorf("docker compose %s failed: %w", strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "docker", c.composeArgs(args...)...)
	cmd.Dir = c.Dir
	return cmd
}

// composeArgs prepends the compose subcommand and project selection flags.
func (c *Client) composeArgs(args ...string) []string {
	full := make([]string, 0, len(args)+5)
	full = append(full, "compose")
	if c.Project != "" {
		full = append(full, "-p", c.Project)
	}
	if c.File != "" {
		full = append(full, "-f", c.File)
	}
	return append(full, args...)
}
