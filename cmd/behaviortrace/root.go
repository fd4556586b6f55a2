package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/behaviortrace/pkg/config"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "behaviortrace",
	Short: "Behavioral telemetry ingestion API and tracker tooling",
	Long: `behaviortrace collects batched browser interaction telemetry
(pointer movement, clicks, scrolls, key timing, page views) and serves it
back through a small query API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnv(envFiles...)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load environment from these .env files (default ./.env if present)")
}
