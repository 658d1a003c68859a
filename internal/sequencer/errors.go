package sequencer

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfigMissing indicates that neither the active env file nor its
// template exists, so the environment cannot be materialized.
var ErrConfigMissing = errors.New("environment configuration missing: no active env file and no template")

// PreflightError indicates a preflight check failed. Nothing has been mutated
// when it is returned.
type PreflightError struct {
	// Check is the name of the failed check.
	Check string
	// Err is the underlying check failure.
	Err error
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("preflight check %q failed: %v", e.Check, e.Err)
}

func (e *PreflightError) Unwrap() error { return e.Err }

// IsPreflightError reports whether err is a failed preflight check.
func IsPreflightError(err error) bool {
	var target *PreflightError
	return errors.As(err, &target)
}

// TimeoutError indicates a required service never became ready within its
// startup budget.
type TimeoutError struct {
	// Service is the service that timed out.
	Service string
	// Budget is the startup timeout that was exhausted.
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service %q not ready after %s", e.Service, e.Budget)
}

// IsTimeoutError reports whether err is a required-service readiness timeout.
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// OrchestratorError wraps a failed orchestrator operation.
type OrchestratorError struct {
	// Op is the orchestrator operation that failed (build, down, up, status).
	Op string
	// Err is the underlying failure.
	Err error
}

func (e *OrchestratorError) Error() string {
	return fmt.Sprintf("orchestrator %s failed: %v", e.Op, e.Err)
}

func (e *OrchestratorError) Unwrap() error { return e.Err }

// IsOrchestratorError reports whether err is a failed orchestrator operation.
func IsOrchestratorError(err error) bool {
	var target *OrchestratorError
	return errors.As(err, &target)
}
