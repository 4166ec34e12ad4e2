package rssfeed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

const jobsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Remote Data Jobs</title>
<link>https://example.com</link>
<item>
  <guid>g1</guid>
  <title>Acme: Senior Python Developer (Remote, Americas)</title>
  <link>https://example.com/jobs/1</link>
  <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
  <description><![CDATA[<p>Python and Django services.</p>]]></description>
</item>
<item>
  <guid>g2</guid>
  <title>Data Engineer at Maple Analytics</title>
  <link>https://example.com/jobs/2</link>
  <description><![CDATA[<p>Location: Toronto, ON</p><p>Build python pipelines with Airflow.</p>]]></description>
</item>
<item>
  <guid>g2</guid>
  <title>Data Engineer at Maple Analytics</title>
  <link>https://example.com/jobs/2</link>
  <description>republished duplicate</description>
</item>
<item>
  <guid>g3</guid>
  <title>Bakery Manager at Crusty's</title>
  <link>https://example.com/jobs/3</link>
  <description>Sourdough, croissants, early mornings.</description>
</item>
</channel></rss>`

func quietLogger() log.Logger {
	return log.Logger{Writer: log.IOWriter{Writer: io.Discard}}
}

func feedSource(t *testing.T, payloads map[string]string) (*Source, string) {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range payloads {
		b := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, b)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var feeds []Feed
	for path := range payloads {
		feeds = append(feeds, Feed{URL: srv.URL + path, Name: path})
	}
	s := New(Config{Feeds: feeds}, util.NewHostLimiter(1000, 1000), quietLogger())
	return s, srv.URL
}

func collect(out *[]domain.RawPosting) types.EmitFunc {
	return func(p domain.RawPosting) error {
		*out = append(*out, p)
		return nil
	}
}

func TestSearchParsesJobFeedConventions(t *testing.T) {
	s, _ := feedSource(t, map[string]string{"/feed.xml": jobsFeed})

	var got []domain.RawPosting
	err := s.Search(context.Background(), "python", 10, collect(&got))
	require.NoError(t, err)
	require.Len(t, got, 2, "bakery filtered by term, duplicate guid collapsed")

	first := got[0]
	assert.Equal(t, "Senior Python Developer", first.Title, "company prefix and location suffix stripped")
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "Remote, Americas", first.Location)
	assert.Equal(t, "Remote", first.WorkMode)
	assert.Equal(t, "https://example.com/jobs/1", first.SourceURL)
	assert.NotContains(t, first.Description, "<p>")
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), *first.PostedAt)

	second := got[1]
	assert.Equal(t, "Data Engineer", second.Title)
	assert.Equal(t, "Maple Analytics", second.Company)
	assert.Equal(t, "Toronto, ON", second.Location, "labeled location pulled from description")
	assert.Nil(t, second.PostedAt)
}

func TestSplitTitle(t *testing.T) {
	cases := []struct {
		raw                 string
		title, company, loc string
	}{
		{"Acme: Senior Python Developer (Remote, Americas)", "Senior Python Developer", "Acme", "Remote, Americas"},
		{"Data Engineer at Maple Analytics", "Data Engineer", "Maple Analytics", ""},
		{"Backend Developer (m/f/d) at Berlin GmbH", "Backend Developer (m/f/d)", "Berlin GmbH", ""},
		{"Plain Title With No Convention", "Plain Title With No Convention", "", ""},
	}
	for _, tc := range cases {
		title, company, loc := splitTitle(tc.raw)
		assert.Equal(t, tc.title, title, tc.raw)
		assert.Equal(t, tc.company, company, tc.raw)
		assert.Equal(t, tc.loc, loc, tc.raw)
	}
}

func TestNoMatchesReportsNoResults(t *testing.T) {
	s, _ := feedSource(t, map[string]string{"/feed.xml": jobsFeed})

	var got []domain.RawPosting
	err := s.Search(context.Background(), "blacksmith", 10, collect(&got))
	assert.ErrorIs(t, err, types.ErrNoResults)
	assert.Empty(t, got)
}

func TestAllFeedsFailingIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(srv.Close)

	s := New(
		Config{Feeds: []Feed{{URL: srv.URL + "/a"}, {URL: srv.URL + "/b"}}},
		util.NewHostLimiter(1000, 1000),
		quietLogger(),
	)

	var got []domain.RawPosting
	err := s.Search(context.Background(), "python", 10, collect(&got))
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNoResults)
	assert.Contains(t, err.Error(), "all 2 feeds failed")
}

func TestOneDeadFeedIsNotFatal(t *testing.T) {
	s, _ := feedSource(t, map[string]string{"/good.xml": jobsFeed, "/bad.xml": "not xml at all <"})

	var got []domain.RawPosting
	require.NoError(t, s.Search(context.Background(), "python", 10, collect(&got)))
	assert.Len(t, got, 2)
}

func TestSearchStopsAtLimit(t *testing.T) {
	s, _ := feedSource(t, map[string]string{"/feed.xml": jobsFeed})

	var got []domain.RawPosting
	require.NoError(t, s.Search(context.Background(), "", 2, collect(&got)))
	assert.Len(t, got, 2)
}
