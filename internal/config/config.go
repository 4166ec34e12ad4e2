// Package config loads, validates and persists the YAML configuration.
// The file lives at ~/.config/jobqst/config.yaml by default and is
// created from an embedded commented template on first run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Company identifies one ATS board to walk.
type Company struct {
	Slug string `yaml:"slug" json:"slug" validate:"required"`
	Name string `yaml:"name" json:"name"`
}

// Feed is one RSS/Atom feed to poll.
type Feed struct {
	URL  string `yaml:"url" json:"url" validate:"required,url"`
	Name string `yaml:"name" json:"name"`
}

type Config struct {
	App struct {
		// DataDir holds the database, cache and lock file. Empty
		// resolves to the directory of the config file itself.
		DataDir  string `yaml:"data_dir" json:"data_dir"`
		LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"app" json:"app"`

	// Profile is the path of the candidate profile scored against.
	// Empty resolves to profile.yaml in the data dir.
	Profile string `yaml:"profile" json:"profile"`

	Scrape struct {
		Terms              []string `yaml:"terms" json:"terms"`
		MaxConcurrency     int      `yaml:"max_concurrency" json:"max_concurrency" validate:"gte=0,lte=16"`
		MaxPerTerm         int      `yaml:"max_per_term" json:"max_per_term" validate:"gte=0,lte=500"`
		Retries            int      `yaml:"retries" json:"retries" validate:"gte=-1,lte=5"`
		UnitTimeoutSeconds int      `yaml:"unit_timeout_seconds" json:"unit_timeout_seconds" validate:"gte=0,lte=600"`

		Browser struct {
			PoolSize int  `yaml:"pool_size" json:"pool_size" validate:"gte=0,lte=8"`
			Headful  bool `yaml:"headful" json:"headful"`
		} `yaml:"browser" json:"browser"`

		Eluta struct {
			Enabled  bool `yaml:"enabled" json:"enabled"`
			MaxPages int  `yaml:"max_pages" json:"max_pages" validate:"gte=0,lte=10"`
		} `yaml:"eluta" json:"eluta"`

		Greenhouse struct {
			Enabled   bool      `yaml:"enabled" json:"enabled"`
			Companies []Company `yaml:"companies" json:"companies" validate:"dive"`
		} `yaml:"greenhouse" json:"greenhouse"`

		Lever struct {
			Enabled   bool      `yaml:"enabled" json:"enabled"`
			Companies []Company `yaml:"companies" json:"companies" validate:"dive"`
		} `yaml:"lever" json:"lever"`

		RSSFeed struct {
			Enabled bool   `yaml:"enabled" json:"enabled"`
			Feeds   []Feed `yaml:"feeds" json:"feeds" validate:"dive"`
		} `yaml:"rssfeed" json:"rssfeed"`

		EmailAlert struct {
			Enabled    bool     `yaml:"enabled" json:"enabled"`
			Addr       string   `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
			Username   string   `yaml:"username" json:"username"`
			Mailbox    string   `yaml:"mailbox" json:"mailbox"`
			SubjectAny []string `yaml:"subject_any" json:"subject_any"`
			MaxEmails  int      `yaml:"max_emails" json:"max_emails" validate:"gte=0,lte=1000"`
		} `yaml:"email_alert" json:"email_alert"`
	} `yaml:"scrape" json:"scrape"`

	Dedup struct {
		TitleSimilarity   float64 `yaml:"title_similarity" json:"title_similarity" validate:"gte=0,lte=1"`
		CompanySimilarity float64 `yaml:"company_similarity" json:"company_similarity" validate:"gte=0,lte=1"`
	} `yaml:"dedup" json:"dedup"`

	Rank struct {
		SkillsWeight     float64 `yaml:"skills_weight" json:"skills_weight" validate:"gte=0,lte=1"`
		KeywordsWeight   float64 `yaml:"keywords_weight" json:"keywords_weight" validate:"gte=0,lte=1"`
		ExperienceWeight float64 `yaml:"experience_weight" json:"experience_weight" validate:"gte=0,lte=1"`
	} `yaml:"rank" json:"rank"`

	Analyze struct {
		Backend   string `yaml:"backend" json:"backend" validate:"omitempty,oneof=claude local none"`
		Model     string `yaml:"model" json:"model"`
		OllamaURL string `yaml:"ollama_url" json:"ollama_url" validate:"omitempty,url"`
		Class     string `yaml:"class" json:"class" validate:"omitempty,oneof=gpu cpu"`
	} `yaml:"analyze" json:"analyze"`

	Cache struct {
		Dir           string `yaml:"dir" json:"dir"`
		TTLHours      int    `yaml:"ttl_hours" json:"ttl_hours" validate:"gte=0,lte=720"`
		MemoryEntries int    `yaml:"memory_entries" json:"memory_entries" validate:"gte=0"`
	} `yaml:"cache" json:"cache"`

	Store struct {
		Path          string `yaml:"path" json:"path"`
		RetentionDays int    `yaml:"retention_days" json:"retention_days" validate:"gte=0"`
	} `yaml:"store" json:"store"`

	Serve struct {
		Port int `yaml:"port" json:"port" validate:"min=1,max=65535"`
		// Schedule is a standard cron spec for serve-mode runs.
		// Empty disables scheduled runs.
		Schedule string `yaml:"schedule" json:"schedule"`
	} `yaml:"serve" json:"serve"`
}

// Default returns the built-in configuration, the same content
// EnsureDefaultConfig writes on first run.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic("config: embedded default.yaml does not parse: " + err.Error())
	}
	return cfg
}

// Load reads path over the built-in defaults, so a sparse file only
// needs the keys it changes.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultDir is ~/.config/jobqst (or the platform equivalent).
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "jobqst"), nil
}

func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
