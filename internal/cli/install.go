package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/masta-danila/callchecker/internal/systemd"
)

// newInstallUnitsCommand creates the "install-units" subcommand that renders
// and installs systemd units for the stack. It exists standalone so operators
// can register units without running a full deploy.
func newInstallUnitsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install-units",
		Short: "Render and install systemd unit files for the stack",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if len(cfg.Units) == 0 {
				return fmt.Errorf("no units defined in %s", opts.ConfigPath)
			}

			unitDir := cmd.Flag("unit-dir").Value.String()
			installer := systemd.NewInstaller(unitDir, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if err := installer.Install(ctx, systemdUnits(cfg)); err != nil {
				return err
			}
			logger.Info("units installed", "count", len(cfg.Units), "dir", installer.UnitDir)
			return nil
		},
	}

	cmd.Flags().String("unit-dir", systemd.DefaultUnitDir, "Directory to install systemd unit files into")

	return cmd
}
