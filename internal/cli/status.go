package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/masta-danila/callchecker/internal/compose"
	"github.com/masta-danila/callchecker/internal/logging"
)

// newStatusCommand creates the "status" subcommand that shows stack status
// and scans recent logs for the configured error marker.
func newStatusCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of the stack services",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			client := compose.NewClient(cfg.Project, cfg.ComposeFile, logging.NewWriter(logger, "compose"))

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			status, err := client.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, status)

			if cfg.ErrorMarker == "" {
				return nil
			}
			logs, err := client.Logs(ctx, "", cfg.LogTailLines)
			if err != nil {
				logger.Warn("could not fetch recent logs for scanning", "error", err)
				return nil
			}
			if strings.Contains(strings.ToLower(logs), strings.ToLower(cfg.ErrorMarker)) {
				logger.Warn("error marker found in recent logs", "marker", cfg.ErrorMarker)
			} else {
				logger.Info("no error marker in recent logs", "marker", cfg.ErrorMarker)
			}
			return nil
		},
	}
}
