// Package sequencer implements the readiness-gated deployment procedure for
// the Callchecker stack: preflight checks, environment materialization, a
// one-shot rebuild of all services, per-service readiness gates, and a
// post-deploy status report. The procedure is stateless; every run recomputes
// from scratch and is safe to re-run after a failure.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/masta-danila/callchecker/internal/env"
	"github.com/masta-danila/callchecker/internal/retry"
)

// Orchestrator is the capability surface the sequencer needs from the
// external service orchestrator. All operations are opaque one-shot commands.
type Orchestrator interface {
	// Build builds all service images.
	Build(ctx context.Context) error
	// Up starts all services.
	Up(ctx context.Context) error
	// Down stops all services.
	Down(ctx context.Context) error
	// Status returns an aggregate status listing.
	Status(ctx context.Context) (string, error)
	// Logs fetches the most recent tail lines of a service's logs; an empty
	// service selects the combined logs of all services.
	Logs(ctx context.Context, service string, tail int) (string, error)
	// Probe executes a readiness command inside a running service.
	Probe(ctx context.Context, service string, argv []string) error
}

// Service describes one managed service and its readiness gate.
type Service struct {
	// Name is the orchestrator-level service name.
	Name string
	// Required marks services whose readiness timeout fails the whole run.
	Required bool
	// Probe is the readiness command argv; empty means no gate.
	Probe []string
	// StartupTimeout bounds how long readiness polling may take.
	StartupTimeout time.Duration
}

// Config carries everything a single run needs. It is constructed once at the
// entry point and never re-read ad hoc.
type Config struct {
	// EnvTemplate is the template copied to EnvFile when the latter is absent.
	EnvTemplate string
	// EnvFile is the active environment file.
	EnvFile string
	// Checks are the preflight checks, run in order and fail-fast.
	Checks []Check
	// Services are the managed services, gated in order.
	Services []Service
	// PollInterval is the fixed readiness polling interval.
	PollInterval time.Duration
	// SettleDelay is the pause before the post-deploy status query.
	SettleDelay time.Duration
	// ErrorMarker is the substring scanned for in recent logs, case-insensitively.
	ErrorMarker string
	// LogTailLines is how many log lines to fetch for diagnostics and scanning.
	LogTailLines int
	// SkipBuild skips the image build and only restarts services.
	SkipBuild bool
	// StartUnits, when set, runs as the pluggable final step after the stack
	// is up (e.g. installing and starting init-system units).
	StartUnits func(ctx context.Context) error
}

// ServiceResult records the readiness outcome for one service.
type ServiceResult struct {
	Name     string
	Required bool
	Ready    bool
	Waited   time.Duration
}

// Outcome summarizes a single deployment run.
type Outcome struct {
	// RunID uniquely identifies this run in logs.
	RunID string
	// StartedAt is when the run began.
	StartedAt time.Time
	// Elapsed is the total run duration.
	Elapsed time.Duration
	// Success is the aggregate result. Warnings do not clear it.
	Success bool
	// FailedService names the required service whose timeout failed the run.
	FailedService string
	// Services holds per-service readiness results in deployment order.
	Services []ServiceResult
	// Warnings lists non-fatal findings (optional-service timeouts, log markers).
	Warnings []string
}

// Sequencer executes the deployment procedure against an Orchestrator.
type Sequencer struct {
	cfg    Config
	orch   Orchestrator
	clock  retry.Clock
	logger *slog.Logger
}

// New validates cfg and constructs a Sequencer. A nil clock selects the wall
// clock; a nil logger selects slog.Default.
func New(cfg Config, orch Orchestrator, clock retry.Clock, logger *slog.Logger) (*Sequencer, error) {
	if orch == nil {
		return nil, fmt.Errorf("sequencer requires an orchestrator")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.LogTailLines <= 0 {
		cfg.LogTailLines = 50
	}
	for _, svc := range cfg.Services {
		if strings.TrimSpace(svc.Name) == "" {
			return nil, fmt.Errorf("sequencer: service with empty name")
		}
		if len(svc.Probe) > 0 && svc.StartupTimeout <= 0 {
			return nil, fmt.Errorf("sequencer: service %q has a probe but no positive startup timeout", svc.Name)
		}
	}
	if clock == nil {
		clock = retry.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{cfg: cfg, orch: orch, clock: clock, logger: logger}, nil
}

// Run executes the full deployment sequence and returns its outcome. The
// returned error, when non-nil, is terminal for this run; the operator is the
// recovery agent and re-invokes after fixing the cause. The Outcome is valid
// in both cases.
func (s *Sequencer) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{
		RunID:     uuid.NewString(),
		StartedAt: s.clock.Now(),
	}
	logger := s.logger.With("run", out.RunID)

	fail := func(err error) (Outcome, error) {
		out.Success = false
		out.Elapsed = s.clock.Now().Sub(out.StartedAt)
		return out, err
	}

	// Preflight: fail-fast, nothing mutated yet.
	for _, check := range s.cfg.Checks {
		if err := check.Run(ctx); err != nil {
			logger.Error("preflight check failed", "check", check.Name, "error", err)
			return fail(&PreflightError{Check: check.Name, Err: err})
		}
		logger.Info("preflight check ok", "check", check.Name)
	}

	// Materialize environment configuration, idempotently.
	created, err := env.Materialize(s.cfg.EnvTemplate, s.cfg.EnvFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fail(ErrConfigMissing)
		}
		return fail(err)
	}
	if created {
		logger.Info("active env file created from template", "template", s.cfg.EnvTemplate, "file", s.cfg.EnvFile)
	} else {
		logger.Info("active env file already present, left untouched", "file", s.cfg.EnvFile)
	}

	// Rebuild and restart all services, one shot.
	if !s.cfg.SkipBuild {
		logger.Info("building service images")
		if err := s.orch.Build(ctx); err != nil {
			return fail(&OrchestratorError{Op: "build", Err: err})
		}
	}
	logger.Info("restarting services")
	if err := s.orch.Down(ctx); err != nil {
		return fail(&OrchestratorError{Op: "down", Err: err})
	}
	if err := s.orch.Up(ctx); err != nil {
		return fail(&OrchestratorError{Op: "up", Err: err})
	}

	// Readiness gates, one service at a time, each with its own budget.
	for _, svc := range s.cfg.Services {
		res := ServiceResult{Name: svc.Name, Required: svc.Required}
		if len(svc.Probe) == 0 {
			res.Ready = true
			out.Services = append(out.Services, res)
			continue
		}

		logger.Info("waiting for service readiness", "service", svc.Name, "timeout", svc.StartupTimeout)
		waitStart := s.clock.Now()
		err := retry.UntilReady(ctx, func(ctx context.Context) error {
			return s.orch.Probe(ctx, svc.Name, svc.Probe)
		}, s.cfg.PollInterval, svc.StartupTimeout, s.clock)
		res.Waited = s.clock.Now().Sub(waitStart)

		if err == nil {
			res.Ready = true
			out.Services = append(out.Services, res)
			logger.Info("service ready", "service", svc.Name, "waited", res.Waited)
			continue
		}
		out.Services = append(out.Services, res)

		if svc.Required {
			logger.Error("required service not ready", "service", svc.Name, "error", err)
			s.dumpLogTail(ctx, logger, svc.Name)
			out.FailedService = svc.Name
			return fail(&TimeoutError{Service: svc.Name, Budget: svc.StartupTimeout})
		}

		warning := "service " + svc.Name + " not ready within its startup timeout"
		out.Warnings = append(out.Warnings, warning)
		logger.Warn("optional service not ready, continuing", "service", svc.Name, "error", err)
	}

	if s.cfg.StartUnits != nil {
		logger.Info("running service-startup step")
		if err := s.cfg.StartUnits(ctx); err != nil {
			return fail(err)
		}
	}

	// Let the stack settle, then report aggregate status.
	if s.cfg.SettleDelay > 0 {
		s.clock.Sleep(s.cfg.SettleDelay)
	}
	status, err := s.orch.Status(ctx)
	if err != nil {
		return fail(&OrchestratorError{Op: "status", Err: err})
	}
	for _, line := range strings.Split(status, "\n") {
		if line != "" {
			logger.Info("stack status", "line", line)
		}
	}

	// Best-effort log scan: a marker hit downgrades to success-with-warnings.
	if s.cfg.ErrorMarker != "" {
		logs, err := s.orch.Logs(ctx, "", s.cfg.LogTailLines)
		switch {
		case err != nil:
			out.Warnings = append(out.Warnings, "recent logs unavailable for scanning")
			logger.Warn("could not fetch recent logs for scanning", "error", err)
		case strings.Contains(strings.ToLower(logs), strings.ToLower(s.cfg.ErrorMarker)):
			warning := "recent logs contain marker " + s.cfg.ErrorMarker
			out.Warnings = append(out.Warnings, warning)
			logger.Warn("error marker found in recent logs", "marker", s.cfg.ErrorMarker)
		}
	}

	out.Success = true
	out.Elapsed = s.clock.Now().Sub(out.StartedAt)
	logger.Info("deployment complete", "elapsed", out.Elapsed, "warnings", len(out.Warnings))
	return out, nil
}

// dumpLogTail fetches and logs a failed service's recent logs for diagnostics.
func (s *Sequencer) dumpLogTail(ctx context.Context, logger *slog.Logger, service string) {
	tail, err := s.orch.Logs(ctx, service, s.cfg.LogTailLines)
	if err != nil {
		logger.Warn("could not fetch log tail for failed service", "service", service, "error", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(tail, "\n"), "\n") {
		if line != "" {
			logger.Info("service log", "service", service, "line", line)
		}
	}
}
