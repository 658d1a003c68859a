package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/masta-danila/callchecker/internal/provision"
)

// newProvisionCommand creates the "provision" subcommand that prepares a host
// for running the stack.
func newProvisionCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Prepare the host: check tooling, create directories, configure log rotation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			prov := provision.New(logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if err := prov.CheckBinaries(ctx); err != nil {
				return err
			}
			if err := prov.EnsureDirs(cfg); err != nil {
				return err
			}

			logrotatePath := cmd.Flag("logrotate-path").Value.String()
			if logrotatePath == "" {
				logrotatePath = filepath.Join("/etc/logrotate.d", cfg.Project)
			}
			if err := prov.WriteLogrotate(cfg, logrotatePath); err != nil {
				return err
			}

			logger.Info("host provisioning complete", "project", cfg.Project)
			return nil
		},
	}

	cmd.Flags().String("logrotate-path", "", "Where to write the logrotate policy (default /etc/logrotate.d/<project>)")

	return cmd
}
