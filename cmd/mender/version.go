package main

import (
	"fmt"

	"github.com/aretw0/mender"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mender",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mender version %s\n", mender.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
