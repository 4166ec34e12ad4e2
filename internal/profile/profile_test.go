package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeProfile(t, `
name: Test Candidate
skills: [" SQL ", "Python", "sql"]
keywords: ["data pipeline"]
experience_level: mid
exclude_keywords: ["clearance required"]
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SQL", "Python"}, p.Skills, "trimmed and deduped case-insensitively")
	assert.Equal(t, "mid", p.ExperienceLevel)
	assert.NotEmpty(t, p.SkillsVersion, "version derived when unset")
}

func TestLoadRejectsEmptySkills(t *testing.T) {
	path := writeProfile(t, `
name: Nobody
skills: []
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadExperience(t *testing.T) {
	path := writeProfile(t, `
skills: [Go]
experience_level: wizard
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSkillsVersionStableAcrossOrdering(t *testing.T) {
	a, err := Load(writeProfile(t, "skills: [Go, SQL, Python]"))
	require.NoError(t, err)
	b, err := Load(writeProfile(t, "skills: [Python, Go, SQL]"))
	require.NoError(t, err)
	assert.Equal(t, a.SkillsVersion, b.SkillsVersion)
}

func TestSkillsVersionChangesWithSkills(t *testing.T) {
	a, err := Load(writeProfile(t, "skills: [Go, SQL]"))
	require.NoError(t, err)
	b, err := Load(writeProfile(t, "skills: [Go, SQL, Rust]"))
	require.NoError(t, err)
	assert.NotEqual(t, a.SkillsVersion, b.SkillsVersion)
}

func TestExplicitSkillsVersionKept(t *testing.T) {
	p, err := Load(writeProfile(t, "skills: [Go]\nskills_version: v42"))
	require.NoError(t, err)
	assert.Equal(t, "v42", p.SkillsVersion)
}

func TestSummaryMentionsSkills(t *testing.T) {
	p, err := Load(writeProfile(t, "name: A\nskills: [Go, SQL]\nexperience_level: senior"))
	require.NoError(t, err)
	s := p.Summary()
	assert.Contains(t, s, "Go, SQL")
	assert.Contains(t, s, "senior")
}
