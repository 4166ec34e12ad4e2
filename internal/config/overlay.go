package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CompaniesFile is an optional side file holding just the ATS company
// lists, so a shared watchlist can be dropped in without touching the
// main config.
type CompaniesFile struct {
	Greenhouse []Company `yaml:"greenhouse"`
	Lever      []Company `yaml:"lever"`
}

// OverlayCompanies replaces the company lists from companiesPath when
// the file exists. A missing file is not an error.
func OverlayCompanies(cfg *Config, companiesPath string) error {
	b, err := os.ReadFile(companiesPath)
	if err != nil {
		return nil
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return err
	}

	if len(cf.Greenhouse) > 0 {
		cfg.Scrape.Greenhouse.Companies = cf.Greenhouse
	}
	if len(cf.Lever) > 0 {
		cfg.Scrape.Lever.Companies = cf.Lever
	}
	return nil
}
