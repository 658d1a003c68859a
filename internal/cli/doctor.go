package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newDoctorCommand creates the "doctor" subcommand that runs preflight checks
// without deploying. Unlike deploy, doctor runs every check and reports all
// failures at once.
func newDoctorCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run deployment preflight checks and report the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			failed := 0
			for _, check := range preflightChecks(cfg) {
				if err := check.Run(ctx); err != nil {
					logger.Error("doctor check failed", "check", check.Name, "error", err)
					failed++
					continue
				}
				logger.Info("doctor check ok", "check", check.Name)
			}

			if failed > 0 {
				return fmt.Errorf("doctor found %d failing check(s); see log for details", failed)
			}
			logger.Info("doctor checks completed successfully")
			return nil
		},
	}
}
