// Package cmd holds the nanosearch command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nanosearch",
		Short:         "boolean query front end and in-memory search service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, toml or json)")

	root.AddCommand(
		newServeCmd(),
		newParseCmd(),
		newFieldCmd(),
		newHashKeyCmd(),
	)
	return root
}
