package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	norm, vr := NormalizeAndValidate(cfg)
	require.Empty(t, vr.Errors, "embedded default must validate clean")

	assert.True(t, cfg.Scrape.Eluta.Enabled)
	assert.NotEmpty(t, cfg.Scrape.Terms)
	assert.Equal(t, 8171, cfg.Serve.Port)
	assert.Equal(t, 12, cfg.Cache.TTLHours)
	assert.Equal(t, 90, cfg.Store.RetentionDays)

	assert.NotEmpty(t, norm.App.DataDir, "data dir resolved")
	assert.Equal(t, filepath.Join(norm.App.DataDir, "jobqst.db"), norm.Store.Path)
	assert.Equal(t, filepath.Join(norm.App.DataDir, "cache"), norm.Cache.Dir)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
scrape:
  terms: [golang]
serve:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"golang"}, cfg.Scrape.Terms)
	assert.Equal(t, 9000, cfg.Serve.Port)
	assert.Equal(t, 2, cfg.Scrape.MaxConcurrency, "untouched keys keep defaults")
	assert.Equal(t, 0.9, cfg.Dedup.TitleSimilarity)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "scrape: [not: a: mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnsureDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	got, err := EnsureDefaultConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultYAML, b, "first run writes the embedded template")

	// A second call must not clobber user edits.
	require.NoError(t, os.WriteFile(path, []byte("app: {log_level: debug}\n"), 0o644))
	_, err = EnsureDefaultConfig(path)
	require.NoError(t, err)
	b, _ = os.ReadFile(path)
	assert.Contains(t, string(b), "debug")
}

func TestNormalizeTrimsAndDedupesTerms(t *testing.T) {
	cfg := Default()
	cfg.Scrape.Terms = []string{" python developer ", "Python Developer", "", "data analyst"}

	norm, vr := NormalizeAndValidate(cfg)
	require.Empty(t, vr.Errors)
	assert.Equal(t, []string{"python developer", "data analyst"}, norm.Scrape.Terms)
}

func TestValidateCatchesCrossFieldProblems(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{
			name: "no sources",
			mut: func(c *Config) {
				c.Scrape.Eluta.Enabled = false
			},
			want: "no sources enabled",
		},
		{
			name: "term-driven source without terms",
			mut: func(c *Config) {
				c.Scrape.Terms = nil
			},
			want: "scrape.terms is empty",
		},
		{
			name: "greenhouse without companies",
			mut: func(c *Config) {
				c.Scrape.Greenhouse.Enabled = true
			},
			want: "scrape.greenhouse needs at least one company",
		},
		{
			name: "email alerts without username",
			mut: func(c *Config) {
				c.Scrape.EmailAlert.Enabled = true
			},
			want: "email_alert.username is required",
		},
		{
			name: "local backend without model",
			mut: func(c *Config) {
				c.Analyze.Backend = "local"
			},
			want: "analyze.model is required",
		},
		{
			name: "bad cron spec",
			mut: func(c *Config) {
				c.Serve.Schedule = "every sunday"
			},
			want: "serve.schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(&cfg)
			_, vr := NormalizeAndValidate(cfg)
			require.False(t, vr.OK())
			assert.True(t, hasSubstring(vr.Errors, tt.want), "errors %v should mention %q", vr.Errors, tt.want)
		})
	}
}

func TestValidateAppliesStructRules(t *testing.T) {
	cfg := Default()
	cfg.Serve.Port = 70000
	cfg.Analyze.Backend = "gpt"
	cfg.Dedup.TitleSimilarity = 1.5

	_, vr := NormalizeAndValidate(cfg)
	require.False(t, vr.OK())
	assert.True(t, hasSubstring(vr.Errors, "serve.port"))
	assert.True(t, hasSubstring(vr.Errors, "analyze.backend"))
	assert.True(t, hasSubstring(vr.Errors, "dedup.title_similarity"))
}

func TestValidateWarnsWithoutFailing(t *testing.T) {
	cfg := Default()
	cfg.Dedup.TitleSimilarity = 0.5
	cfg.Rank.KeywordsWeight = 0

	_, vr := NormalizeAndValidate(cfg)
	assert.True(t, vr.OK())
	assert.True(t, hasSubstring(vr.Warnings, "title_similarity"))
	assert.True(t, hasSubstring(vr.Warnings, "rank weights"))
}

func TestSaveAtomicRotatesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	first := Default()
	require.NoError(t, SaveAtomic(path, first))

	second := Default()
	second.Serve.Port = 9999
	require.NoError(t, SaveAtomic(path, second))

	cur, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cur.Serve.Port)

	bak, err := Load(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, 8171, bak.Serve.Port, "previous version kept as .bak")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file cleaned up")
}

func TestSaveAtomicRefusesInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Serve.Port = -1
	err := SaveAtomic(path, cfg)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing written for invalid config")
}

func TestOverlayCompanies(t *testing.T) {
	cfg := Default()
	cfg.Scrape.Greenhouse.Companies = []Company{{Slug: "old"}}

	path := filepath.Join(t.TempDir(), "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
greenhouse:
  - slug: acme
    name: Acme Corp
lever:
  - slug: globex
`), 0o644))

	require.NoError(t, OverlayCompanies(&cfg, path))
	require.Len(t, cfg.Scrape.Greenhouse.Companies, 1)
	assert.Equal(t, "acme", cfg.Scrape.Greenhouse.Companies[0].Slug)
	require.Len(t, cfg.Scrape.Lever.Companies, 1)
	assert.Equal(t, "globex", cfg.Scrape.Lever.Companies[0].Slug)

	// Missing file leaves the config alone.
	require.NoError(t, OverlayCompanies(&cfg, filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Equal(t, "acme", cfg.Scrape.Greenhouse.Companies[0].Slug)
}

func hasSubstring(xs []string, sub string) bool {
	for _, x := range xs {
		if strings.Contains(x, sub) {
			return true
		}
	}
	return false
}
