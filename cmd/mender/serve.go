package main

import (
	"github.com/aretw0/mender/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP diagnostics API",
	Long: `Starts the run manager behind a JSON API over HTTP, with Prometheus metrics
and a server-sent event stream per run. Reports are archived in Redis when
redis.addr is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().Int("max-retries", 0, "Consecutive planning failures before giving up")
	serveCmd.Flags().Int("max-steps", 0, "Step budget of each run call")
}
