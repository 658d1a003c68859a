// Package lock implements an exclusive advisory lock guarding deployments
// against concurrent invocation. The lock is held for the lifetime of the
// process and released automatically by the kernel if the process dies, so no
// stale-lock cleanup is needed.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrHeld indicates another process currently holds the lock.
var ErrHeld = errors.New("deployment already in progress")

// Lock is an acquired exclusive run lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes an exclusive non-blocking flock on path and stamps it with the
// current PID for diagnostics. It returns ErrHeld (wrapped, with the holder's
// PID when readable) if another process has the lock.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", path, err)
	}

	if err := flockExclusive(f); err != nil {
		holder := readHolder(f)
		_ = f.Close()
		if holder > 0 {
			return nil, fmt.Errorf("%w (pid %d, lock file %s)", ErrHeld, holder, path)
		}
		return nil, fmt.Errorf("%w (lock file %s)", ErrHeld, path)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}

	return &Lock{path: path, file: f}, nil
}

// Release unlocks and closes the lock file. The file itself is left in place:
// removing it would race with a concurrent Acquire on the same path.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := funlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("unlock %q: %w", l.path, unlockErr)
	}
	return closeErr
}

func readHolder(f *os.File) int {
	buf := make([]byte, 32)
	n, err := f.ReadAt(buf, 0)
	if n == 0 && err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}
