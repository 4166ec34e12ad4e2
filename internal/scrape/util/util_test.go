package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://example.com/jobs/123?utm_source=feed&utm_medium=rss", "https://example.com/jobs/123"},
		{"https://example.com/jobs/123?gh_src=abc&ref=homepage", "https://example.com/jobs/123"},
		{"https://Example.COM/jobs/123/", "https://example.com/jobs/123"},
		{"https://example.com/jobs/123?dept=eng&utm_campaign=x", "https://example.com/jobs/123?dept=eng"},
		{"https://example.com/jobs/123#apply", "https://example.com/jobs/123"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanonicalURL(c.in), "input %q", c.in)
	}
}

func TestCanonicalURLKeepsNonTrackingParams(t *testing.T) {
	got := CanonicalURL("https://boards.greenhouse.io/acme/jobs/42?t=1&fbclid=zzz")
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/42?t=1", got)
}

func TestTooGeneric(t *testing.T) {
	assert.True(t, TooGeneric("https://www.linkedin.com/jobs/search/?keywords=python"))
	assert.True(t, TooGeneric("https://acme.com/careers"))
	assert.True(t, TooGeneric("https://acme.com/jobs/"))
	assert.False(t, TooGeneric("https://acme.com/jobs/123-data-engineer"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Data Engineer II", CleanText("  Data Engineer \n\t II "))
	assert.Equal(t, "", CleanText("   \n  "))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Toronto, ON, Canada", NormalizeLocation("Location: Toronto, ON, Canada"))
	assert.Equal(t, "Toronto, ON", NormalizeLocation("Toronto, toronto, ON"))
	assert.Equal(t, "", NormalizeLocation("  "))
}

func TestInferWorkMode(t *testing.T) {
	assert.Equal(t, "Remote", InferWorkMode("Remote - Canada", "", ""))
	assert.Equal(t, "Hybrid", InferWorkMode("Toronto", "Data Engineer (Hybrid)", ""))
	assert.Equal(t, "Onsite", InferWorkMode("", "", "This role is on-site five days a week."))
	assert.Equal(t, "Unknown", InferWorkMode("Toronto", "Data Engineer", "Great team."))
}

func TestExtractLocationFromLabeledText(t *testing.T) {
	assert.Equal(t, "Vancouver, BC", ExtractLocationFromLabeledText("About us. Location: Vancouver, BC | Full-time"))
	assert.Equal(t, "", ExtractLocationFromLabeledText("no label here"))
}

func TestHTMLToText(t *testing.T) {
	out := HTMLToText("<div><h2>About</h2><p>We build <b>pipelines</b>.</p><ul><li>Go</li><li>SQL</li></ul></div>")
	require.NotEmpty(t, out)
	assert.Contains(t, out, "About")
	assert.Contains(t, out, "pipelines")
	assert.Contains(t, out, "Go")
	assert.NotContains(t, out, "<p>")
}

func TestHostLimiterSameHost(t *testing.T) {
	l := NewHostLimiter(100, 1)
	require.NotNil(t, l)
	// Two distinct hosts get distinct limiters.
	a := l.limiterFor("a.example.com")
	b := l.limiterFor("b.example.com")
	assert.NotSame(t, a, b)
	assert.Same(t, a, l.limiterFor("a.example.com"))
}
