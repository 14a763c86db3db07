package main

import (
	"os"

	"github.com/aretw0/mender/internal/cli"
	"github.com/aretw0/mender/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one triage to completion and print its report",
	Long: `Runs the configured scenario through the orchestrator and prints the
summary and transition table. Use --graph or --link to add the flowchart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		withGraph, _ := cmd.Flags().GetBool("graph")
		withLink, _ := cmd.Flags().GetBool("link")

		interactive := tui.IsInteractive(os.Stdout)
		opts := cli.RunOptions{
			JSON:   jsonMode,
			Plain:  plain || !interactive,
			Banner: interactive && !jsonMode,
			Graph:  withGraph,
			Link:   withLink,
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunOnce(ctx, cfg, opts, logger, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Print the report as JSON")
	runCmd.Flags().Bool("plain", false, "Print markdown without terminal styling")
	runCmd.Flags().Bool("graph", false, "Append the Mermaid flowchart of the run")
	runCmd.Flags().Bool("link", false, "Append a mermaid.live link to the flowchart")
	runCmd.Flags().Int("max-retries", 0, "Consecutive planning failures before giving up")
	runCmd.Flags().Int("max-steps", 0, "Step budget of the run")
}
