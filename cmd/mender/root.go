package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/mender/internal/cli"
	"github.com/aretw0/mender/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mender",
	Short: "Mender triages infrastructure failures and dispatches repair crews",
	Long: `Mender walks a failure through detection, impact analysis, repair planning,
crew assignment and rescheduling, recording every transition on the way.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")
}

// loadConfig reads the file named by --config, then MENDER_* variables, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if flags.Lookup("max-retries") != nil && flags.Changed("max-retries") {
		cfg.Orchestrator.MaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Lookup("max-steps") != nil && flags.Changed("max-steps") {
		cfg.Orchestrator.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.HTTP.Addr, _ = flags.GetString("addr")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
