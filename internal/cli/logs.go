package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/masta-danila/callchecker/internal/compose"
	"github.com/masta-danila/callchecker/internal/logging"
)

// newLogsCommand creates the "logs" subcommand that tails a service's recent logs.
func newLogsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [service]",
		Short: "Fetch recent logs for one service or the whole stack",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			service := ""
			if len(args) > 0 {
				service = args[0]
			}

			tail, _ := cmd.Flags().GetInt("tail")
			if tail <= 0 {
				tail = cfg.LogTailLines
			}

			client := compose.NewClient(cfg.Project, cfg.ComposeFile, logging.NewWriter(logger, "compose"))

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			out, err := client.Logs(ctx, service, tail)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, out)
			return nil
		},
	}

	cmd.Flags().Int("tail", 0, "Number of log lines to fetch (defaults to logTailLines from config)")

	return cmd
}
