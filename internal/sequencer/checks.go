package sequencer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Check is a named precondition validated before any mutating action.
type Check struct {
	// Name identifies the check in logs and failure messages.
	Name string
	// Run performs the check; a nil return means it passed.
	Run func(ctx context.Context) error
}

// FileExists returns a check that verifies path is an existing regular file.
func FileExists(name, path string) Check {
	return Check{
		Name: name,
		Run: func(context.Context) error {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %q: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%q is a directory, expected a file", path)
			}
			return nil
		},
	}
}

// AnyFileExists returns a check that passes when at least one of the paths is
// an existing file. Used for config that may exist either as a live file or
// only as a template.
func AnyFileExists(name string, paths ...string) Check {
	return Check{
		Name: name,
		Run: func(context.Context) error {
			for _, path := range paths {
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return nil
				}
			}
			return fmt.Errorf("none of %v exists", paths)
		},
	}
}

// BinaryInPath returns a check that verifies bin is reachable in PATH.
func BinaryInPath(name, bin string) Check {
	return Check{
		Name: name,
		Run: func(context.Context) error {
			if _, err := exec.LookPath(bin); err != nil {
				return fmt.Errorf("%s not found in PATH: %w", bin, err)
			}
			return nil
		},
	}
}

// CommandSucceeds returns a check that runs argv and requires a zero exit.
// Output is discarded; only reachability is of interest.
func CommandSucceeds(name string, argv ...string) Check {
	return Check{
		Name: name,
		Run: func(ctx context.Context) error {
			if len(argv) == 0 {
				return fmt.Errorf("empty command")
			}
			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("%v: %w", argv, err)
			}
			return nil
		},
	}
}
