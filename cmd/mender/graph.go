package main

import (
	"github.com/aretw0/mender/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Run the scenario and print the execution flowchart",
	Long:  `Runs the configured scenario and outputs a Mermaid diagram (graph TD) of the transitions it took.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		link, _ := cmd.Flags().GetBool("link")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.RunGraph(ctx, cfg, link, logger, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("link", false, "Print a mermaid.live link instead of the diagram")
}
