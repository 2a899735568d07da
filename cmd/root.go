// Package cmd wires the command-line interface.
package cmd

import (
	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logLevel string

// rootCmd is the timid-github root command.
var rootCmd = &cobra.Command{
	Use:           "timid-github",
	Short:         "GitHub pull request integration for the timid test runner",
	Long:          "Clone a repository, merge a pull request into its base branch, run the configured test steps, and report the outcome back to the pull request as commit statuses.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// Execute runs the root command and returns its error.
func Execute() error {
	return rootCmd.Execute()
}
