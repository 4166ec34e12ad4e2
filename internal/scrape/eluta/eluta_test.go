package eluta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="search-results">
<div class="organic-job">
  <h2><a class="lk-job-title" href="/destination?id=123&amp;u=abc">Senior Data Engineer</a></h2>
  <span class="employer">Maple Analytics</span>
  <span class="location">Toronto, ON</span>
  <div class="description">Build pipelines with Python and Spark.</div>
  <span class="posting-age">3 days ago</span>
</div>
<div class="organic-job">
  <h2><a class="lk-job-title" href="https://careers.acme.ca/jobs/42">Data Engineer</a></h2>
  <span class="employer-name">Acme Corp</span>
  <span class="location">Location: Vancouver, BC</span>
  <div class="description">ETL for retail data.</div>
</div>
<div class="organic-job">
  <h2><a class="lk-job-title" href="/promo">View all jobs at Acme</a></h2>
</div>
<div class="organic-job">
  <h2><a class="lk-job-title" href="">Missing Link Role</a></h2>
</div>
</div>
</body></html>`

func TestParseTilesExtractsResultCards(t *testing.T) {
	tiles, err := parseTiles(resultsPage, "https://www.eluta.ca")
	require.NoError(t, err)
	// The junk-title and missing-href tiles are dropped.
	require.Len(t, tiles, 2)

	first := tiles[0]
	assert.Equal(t, "Senior Data Engineer", first.title)
	assert.Equal(t, "Maple Analytics", first.company)
	assert.Equal(t, "Toronto, ON", first.location)
	assert.Equal(t, "Build pipelines with Python and Spark.", first.snippet)
	assert.Equal(t, "/destination?id=123&u=abc", first.href)
	assert.Equal(t, "https://www.eluta.ca/destination?id=123&u=abc", first.url)
	require.NotNil(t, first.posted)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, -3), *first.posted, time.Hour)

	second := tiles[1]
	assert.Equal(t, "Acme Corp", second.company, "employer-name fallback selector")
	assert.Equal(t, "Vancouver, BC", second.location, "label prefix stripped")
	assert.Equal(t, "https://careers.acme.ca/jobs/42", second.url)
	assert.Nil(t, second.posted)
}

func TestTrackingLinksNeedPopupResolution(t *testing.T) {
	assert.True(t, isTrackingLink("https://www.eluta.ca/destination?id=123"))
	assert.False(t, isTrackingLink("https://careers.acme.ca/jobs/42"))
	assert.False(t, isTrackingLink("not a url at all ::"))
}

func TestAnchorSelectorAddressesTileByHref(t *testing.T) {
	sel := anchorSelector("/destination?id=123&u=abc")
	assert.Equal(t, `a.lk-job-title[href="/destination?id=123&u=abc"]`, sel)
}

func TestLooksBlocked(t *testing.T) {
	assert.True(t, looksBlocked(`<html><title>Just a moment...</title></html>`))
	assert.True(t, looksBlocked(`<html><body>Please solve this CAPTCHA to continue.</body></html>`))
	assert.False(t, looksBlocked(resultsPage))
}

func TestParseAge(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		text string
		want *time.Time
	}{
		{"Posted today", &now},
		{"posted yesterday", timePtr(now.AddDate(0, 0, -1))},
		{"3 days ago", timePtr(now.AddDate(0, 0, -3))},
		{"2 weeks ago", timePtr(now.AddDate(0, 0, -14))},
		{"30+ days ago", timePtr(now.AddDate(0, 0, -30))},
		{"1 month ago", timePtr(now.AddDate(0, -1, 0))},
		{"fresh new role", nil},
	}
	for _, tc := range cases {
		got := parseAge(tc.text, now)
		if tc.want == nil {
			assert.Nil(t, got, tc.text)
			continue
		}
		require.NotNil(t, got, tc.text)
		assert.Equal(t, *tc.want, *got, tc.text)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
