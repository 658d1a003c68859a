// Package retry provides a bounded timed-retry combinator for readiness polling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut indicates that a probe never succeeded within its budget.
var ErrTimedOut = errors.New("timed out waiting for readiness")

// Clock abstracts time so polling loops can be tested with a virtual clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RealClock is the wall-clock Clock implementation.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep blocks the calling goroutine for d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Probe is a side-effecting readiness check. A nil return means ready.
type Probe func(ctx context.Context) error

// UntilReady runs probe every interval until it succeeds or budget is spent.
// The loop is time-bounded, not attempt-bounded: it decrements the remaining
// budget by interval after every failed attempt and stops once it reaches
// zero, so at most ceil(budget/interval) attempts are made. Cancelling ctx
// stops the loop early with the context's error. On exhaustion the returned
// error wraps ErrTimedOut together with the last probe error.
func UntilReady(ctx context.Context, probe Probe, interval, budget time.Duration, clock Clock) error {
	if probe == nil {
		return fmt.Errorf("retry: probe must not be nil")
	}
	if interval <= 0 {
		return fmt.Errorf("retry: interval must be positive, got %s", interval)
	}
	if budget <= 0 {
		return fmt.Errorf("retry: budget must be positive, got %s", budget)
	}
	if clock == nil {
		clock = RealClock{}
	}

	remaining := budget
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr := probe(ctx)
		if lastErr == nil {
			return nil
		}

		remaining -= interval
		if remaining <= 0 {
			return fmt.Errorf("%w after %s (last error: %v)", ErrTimedOut, budget, lastErr)
		}
		clock.Sleep(interval)
	}
}
