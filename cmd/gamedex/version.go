package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gamedex/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gamedex version",
	Args:  cobra.NoArgs,
	// The version needs no config file.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "gamedex", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
