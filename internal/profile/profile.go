package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CandidateProfile is the read-only input the analysis stages score against.
// Managed outside the pipeline; loaded once per run.
type CandidateProfile struct {
	Name            string   `yaml:"name"`
	Skills          []string `yaml:"skills" validate:"required,min=1,dive,required"`
	Keywords        []string `yaml:"keywords"`
	ExperienceLevel string   `yaml:"experience_level" validate:"omitempty,oneof=entry mid senior"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	LocationsAllow  []string `yaml:"locations_allow"`
	LocationsBlock  []string `yaml:"locations_block"`
	RemoteOK        bool     `yaml:"remote_ok"`

	// SkillsVersion participates in result-cache fingerprints so cached
	// scores invalidate when the profile changes. Derived from the skill
	// set when left empty.
	SkillsVersion string `yaml:"skills_version"`
}

func Load(path string) (*CandidateProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p CandidateProfile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	p.Skills = trimList(p.Skills)
	p.Keywords = trimList(p.Keywords)
	p.ExcludeKeywords = trimList(p.ExcludeKeywords)
	p.LocationsAllow = trimList(p.LocationsAllow)
	p.LocationsBlock = trimList(p.LocationsBlock)

	if err := validator.New().Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	if p.SkillsVersion == "" {
		p.SkillsVersion = deriveVersion(p.Skills, p.Keywords)
	}
	return &p, nil
}

// Summary renders the profile as prose for the semantic backend.
func (p *CandidateProfile) Summary() string {
	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "Candidate: %s. ", p.Name)
	}
	fmt.Fprintf(&b, "Skills: %s.", strings.Join(p.Skills, ", "))
	if len(p.Keywords) > 0 {
		fmt.Fprintf(&b, " Interests: %s.", strings.Join(p.Keywords, ", "))
	}
	if p.ExperienceLevel != "" {
		fmt.Fprintf(&b, " Preferred level: %s.", p.ExperienceLevel)
	}
	return b.String()
}

func deriveVersion(skills, keywords []string) string {
	all := make([]string, 0, len(skills)+len(keywords))
	for _, s := range append(append([]string{}, skills...), keywords...) {
		all = append(all, strings.ToLower(strings.TrimSpace(s)))
	}
	sort.Strings(all)
	sum := sha256.Sum256([]byte(strings.Join(all, "|")))
	return hex.EncodeToString(sum[:8])
}

func trimList(xs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		k := strings.ToLower(x)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, x)
	}
	return out
}
