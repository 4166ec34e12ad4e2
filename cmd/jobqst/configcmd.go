package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the resolved config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.EnsureDefaultConfig(cfgPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config file and report every problem",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configPathCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadRaw()
	if err != nil {
		return err
	}
	_, v := config.NormalizeAndValidate(cfg)
	for _, e := range v.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", e)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
	}
	if !v.OK() {
		return fmt.Errorf("%s: %d problem(s)", path, len(v.Errors))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	return nil
}
