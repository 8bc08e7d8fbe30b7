// Package cmd defines and implements the CLI commands for the tract-agent
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tract-agent",
		Short: "A data collection agent for food desert analysis.",
		Long: `tract-agent collects Census demographic data and nearby store
locations for a fixed sample of census tracts, scores each record for
quality, and adaptively paces its requests. Each run emits raw data
files, dataset metadata, an HTML quality report and a text summary.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches . and $HOME/.fooddesert)")

	cmd.AddCommand(newCollectCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
