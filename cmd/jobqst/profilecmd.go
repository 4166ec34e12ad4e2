package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NirajanKhadka/JobQst-sub000/internal/profile"
)

// Starter profile written by `profile init`. The skills list drives
// stage-1 scoring and an empty one fails validation, so the template
// ships with examples.
const profileTemplate = `# jobqst candidate profile. Stage 1 scores every posting against the
# skills and keywords below; exclusions and location rules reject before
# scoring.

name: ""

# Skills are matched word-by-word in title and description.
skills:
  - python
  - sql

# Keywords count less than skills but catch phrasing ("data pipeline"
# when the skill list says airflow).
keywords:
  - data pipeline

# entry, mid or senior. Leave empty to skip experience matching.
experience_level: mid

# Any match here rejects the posting outright.
exclude_keywords:
  - staffing agency

# Location allow/block lists; empty allow list admits everything not
# blocked. remote_ok admits remote postings regardless of location.
locations_allow: []
locations_block: []
remote_ok: true
`

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the candidate profile",
}

var profileInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter profile next to the config",
	RunE:  runProfileInit,
}

var profileCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the profile and report whether it validates",
	RunE:  runProfileCheck,
}

func init() {
	profileCmd.AddCommand(profileInitCmd, profileCheckCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileInit(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Profile); err == nil {
		return fmt.Errorf("%s already exists, edit it instead", cfg.Profile)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Profile), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Profile, []byte(profileTemplate), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, edit the skills to match your background\n", cfg.Profile)
	return nil
}

func runProfileCheck(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := profile.Load(cfg.Profile)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d skills, %d keywords, skills_version %s)\n",
		cfg.Profile, len(p.Skills), len(p.Keywords), p.SkillsVersion)
	return nil
}
