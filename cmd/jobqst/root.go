package main

import (
	"fmt"
	"path/filepath"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "jobqst",
	Short: "Job discovery and analysis engine",
	Long: "jobqst scrapes job boards, merges duplicate postings and scores the\n" +
		"survivors against your candidate profile. `run` does one cycle;\n" +
		"`serve` keeps a local HTTP API plus scheduled runs going.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"path to config file (default: ~/.config/jobqst/config.yaml, created on first run)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override app.log_level (debug, info, warn, error)")
}

// loadRaw bootstraps the config file if needed and parses it, without
// validating. Commands that only need a couple of fields (secrets,
// config validate) use this so an unrelated config problem does not
// lock them out.
func loadRaw() (config.Config, string, error) {
	path, err := config.EnsureDefaultConfig(cfgPath)
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	if err := config.OverlayCompanies(&cfg, filepath.Join(filepath.Dir(path), "companies.yaml")); err != nil {
		return cfg, path, err
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	return cfg, path, nil
}

// loadConfig is loadRaw plus normalization. Validation errors are fatal;
// warnings ride along for the caller to log.
func loadConfig() (config.Config, config.Validation, string, error) {
	cfg, path, err := loadRaw()
	if err != nil {
		return cfg, config.Validation{}, path, err
	}
	norm, v := config.NormalizeAndValidate(cfg)
	if !v.OK() {
		return norm, v, path, fmt.Errorf("%s: %d config problem(s), run `jobqst config validate`", path, len(v.Errors))
	}
	return norm, v, path, nil
}

func logWarnings(logger log.Logger, v config.Validation) {
	for _, w := range v.Warnings {
		logger.Warn().Msg(w)
	}
}
