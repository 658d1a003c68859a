// Package env contains helpers for loading environment variables and
// materializing the active .env file from its template.
package env

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Vars represents a simple string-to-string map of variables.
type Vars map[string]string

// FromOS builds a Vars map from the current process environment.
func FromOS() Vars {
	out := make(Vars)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

// Merge merges several Vars maps into one, later maps overriding earlier keys.
func Merge(sets ...Vars) Vars {
	out := make(Vars)
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// LoadEnvFile loads a single .env-style file into Vars.
func LoadEnvFile(path string) (Vars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	envMap, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %q: %w", path, err)
	}
	out := make(Vars, len(envMap))
	for k, v := range envMap {
		out[k] = v
	}
	return out, nil
}

// Materialize copies the template env file to the active path unless the
// active file already exists. The active file is never overwritten, so
// repeated runs leave live configuration untouched. It reports whether a new
// file was created. The file contents are opaque: they are copied byte for
// byte, never parsed.
func Materialize(template, active string) (bool, error) {
	if _, err := os.Stat(active); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat active env file %q: %w", active, err)
	}

	src, err := os.Open(template)
	if err != nil {
		return false, fmt.Errorf("open env template %q: %w", template, err)
	}
	defer func() { _ = src.Close() }()

	// O_EXCL guards against a racing second materialization.
	dst, err := os.OpenFile(active, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("create active env file %q: %w", active, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(active)
		return false, fmt.Errorf("copy env template to %q: %w", active, err)
	}
	if err := dst.Close(); err != nil {
		return false, fmt.Errorf("close active env file %q: %w", active, err)
	}
	return true, nil
}
