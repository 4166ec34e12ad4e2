package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Overridden at build time: -ldflags "-X main.version=v0.x.y"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jobqst %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
