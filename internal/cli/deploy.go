package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/masta-danila/callchecker/internal/compose"
	"github.com/masta-danila/callchecker/internal/lock"
	"github.com/masta-danila/callchecker/internal/logging"
	"github.com/masta-danila/callchecker/internal/retry"
	"github.com/masta-danila/callchecker/internal/sequencer"
	"github.com/masta-danila/callchecker/internal/systemd"
)

// newDeployCommand creates the "deploy" subcommand that runs the readiness-gated deployment.
func newDeployCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Rebuild, restart and readiness-gate the Callchecker stack",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			runLock, err := lock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = runLock.Release() }()

			skipBuild, _ := cmd.Flags().GetBool("skip-build")
			installUnits, _ := cmd.Flags().GetBool("install-units")
			timeoutOverride, _ := cmd.Flags().GetDuration("timeout")

			client := compose.NewClient(cfg.Project, cfg.ComposeFile, logging.NewWriter(logger, "compose"))

			seqCfg := sequencer.Config{
				EnvTemplate:  cfg.EnvTemplate,
				EnvFile:      cfg.EnvFile,
				Checks:       preflightChecks(cfg),
				Services:     sequencerServices(cfg, timeoutOverride),
				PollInterval: cfg.PollIntervalDuration(),
				SettleDelay:  cfg.SettleDelayDuration(),
				ErrorMarker:  cfg.ErrorMarker,
				LogTailLines: cfg.LogTailLines,
				SkipBuild:    skipBuild,
			}

			if installUnits && len(cfg.Units) > 0 {
				unitDir := cmd.Flag("unit-dir").Value.String()
				installer := systemd.NewInstaller(unitDir, logger)
				units := systemdUnits(cfg)
				seqCfg.StartUnits = func(ctx context.Context) error {
					return installer.Install(ctx, units)
				}
			}

			seq, err := sequencer.New(seqCfg, client, retry.RealClock{}, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			outcome, err := seq.Run(ctx)
			for _, res := range outcome.Services {
				logger.Info("service result", "service", res.Name, "ready", res.Ready, "required", res.Required, "waited", res.Waited)
			}
			for _, warning := range outcome.Warnings {
				logger.Warn("deployment warning", "warning", warning)
			}
			if err != nil {
				return err
			}

			logger.Info("deployment succeeded", "run", outcome.RunID, "elapsed", outcome.Elapsed)
			return nil
		},
	}

	cmd.Flags().Bool("skip-build", false, "Skip image build and only restart services")
	cmd.Flags().Bool("install-units", false, "Install and start systemd units after the stack is ready")
	cmd.Flags().String("unit-dir", systemd.DefaultUnitDir, "Directory to install systemd unit files into")
	cmd.Flags().Duration("timeout", 0, "Override every service's startup timeout (e.g. 90s)")

	return cmd
}
