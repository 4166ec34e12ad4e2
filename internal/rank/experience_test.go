package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
)

func TestExplicitYearsBeatTitleKeywords(t *testing.T) {
	got := DetectExperience("Senior Data Engineer", "What you bring: 2+ years of experience with Python.")
	assert.Equal(t, domain.ExperienceEntry, got)
}

func TestYearRequirementBuckets(t *testing.T) {
	cases := []struct {
		desc string
		want domain.ExperienceLevel
	}{
		{"0-1 years of experience", domain.ExperienceEntry},
		{"2 years experience required", domain.ExperienceEntry},
		{"3-5 years building data platforms", domain.ExperienceMid},
		{"4 yrs in a similar role", domain.ExperienceMid},
		{"6+ years of experience", domain.ExperienceSenior},
		{"10 years in industry", domain.ExperienceSenior},
		{"2 to 4 years of hands-on work", domain.ExperienceEntry},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DetectExperience("Engineer", c.desc), "desc %q", c.desc)
	}
}

func TestTitleKeywordFallback(t *testing.T) {
	assert.Equal(t, domain.ExperienceSenior, DetectExperience("Staff Software Engineer", "Great team."))
	assert.Equal(t, domain.ExperienceSenior, DetectExperience("Sr. Data Engineer", "Great team."))
	assert.Equal(t, domain.ExperienceEntry, DetectExperience("Junior Developer", "Great team."))
	assert.Equal(t, domain.ExperienceEntry, DetectExperience("Data Engineering Intern", "Great team."))
	assert.Equal(t, domain.ExperienceMid, DetectExperience("Intermediate Analyst", "Great team."))
	assert.Equal(t, domain.ExperienceUnknown, DetectExperience("Data Analyst", "Great team."))
}

func TestDescriptionKeywordsDoNotSetLevel(t *testing.T) {
	got := DetectExperience("Data Analyst", "You will pair with senior engineers on the platform team.")
	assert.Equal(t, domain.ExperienceUnknown, got)
}

func TestThresholdInterpolation(t *testing.T) {
	assert.InDelta(t, 0.25, Threshold(0), 1e-9)
	assert.InDelta(t, 0.25, Threshold(25), 1e-9)
	assert.InDelta(t, 0.35, Threshold(100), 1e-9)
	assert.InDelta(t, 0.55, Threshold(250), 1e-9)
	assert.InDelta(t, 0.55, Threshold(10_000), 1e-9)
}

func TestThresholdMonotonic(t *testing.T) {
	prev := 0.0
	for v := 0; v <= 300; v += 10 {
		cur := Threshold(v)
		assert.GreaterOrEqual(t, cur, prev, "volume %d", v)
		prev = cur
	}
}
