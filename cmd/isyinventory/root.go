package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. The root command runs the node
// server; subcommands are operator tools.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "isyinventory",
		Short: "ISY inventory node server for Polyglot",
		Long: `Polls an ISY controller for its nodes, scenes, variables and programs
and reports the counts as driver values of a Polyglot controller node.

The configuration file defaults to configs/config.yaml, or ISYINV_CONFIG
when set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(), "path to the YAML configuration file")
	cmd.AddCommand(newTokenCmd(&configPath))

	return cmd
}
