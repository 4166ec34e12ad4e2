package greenhouse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

func quietLogger() log.Logger {
	return log.Logger{Writer: log.IOWriter{Writer: io.Discard}}
}

// boardServer fakes one Greenhouse board with two data roles and one
// unrelated role, each with a posting page.
func boardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/acme", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
<a href="/acme/jobs/101">Data Engineer</a>
<a href="/acme/jobs/101">Data Engineer</a>
<a href="/acme/jobs/102">Apply now</a>
<a href="/acme/jobs/103">Office Coordinator</a>
<a href="/acme/about">About us</a>
</body></html>`)
	})
	mux.HandleFunc("/acme/jobs/101", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
<h1>Data Engineer</h1>
<div class="location">Toronto, ON</div>
<div id="content"><p>Build <b>data</b> pipelines in Python.</p></div>
</body></html>`)
	})
	mux.HandleFunc("/acme/jobs/102", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
<h1>Analytics Engineer</h1>
<div class="location">Remote - Canada</div>
<div id="content"><p>dbt models and data warehouse work.</p></div>
</body></html>`)
	})
	mux.HandleFunc("/acme/jobs/103", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
<h1>Office Coordinator</h1>
<div class="location">Calgary, AB</div>
<div id="content"><p>Front desk and scheduling.</p></div>
</body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSource(t *testing.T, srv *httptest.Server) *Source {
	t.Helper()
	return New(
		Config{
			Companies: []Company{{Slug: "acme", Name: "Acme"}},
			BoardBase: srv.URL,
		},
		util.NewHostLimiter(1000, 1000),
		quietLogger(),
	)
}

func collect(out *[]domain.RawPosting) types.EmitFunc {
	return func(p domain.RawPosting) error {
		*out = append(*out, p)
		return nil
	}
}

func TestSearchWalksBoardAndHydrates(t *testing.T) {
	s := newSource(t, boardServer(t))

	var got []domain.RawPosting
	err := s.Search(context.Background(), "data", 10, collect(&got))
	require.NoError(t, err)
	require.Len(t, got, 2, "two data roles; office coordinator filtered, duplicate anchor collapsed")

	first := got[0]
	assert.Equal(t, "Data Engineer", first.Title)
	assert.Equal(t, "Acme", first.Company)
	assert.Equal(t, "Toronto, ON", first.Location)
	assert.Contains(t, first.Description, "pipelines in Python")
	assert.NotContains(t, first.Description, "<p>")

	// The 102 anchor said "Apply now"; hydration recovered the real title.
	second := got[1]
	assert.Equal(t, "Analytics Engineer", second.Title)
	assert.Equal(t, "Remote", second.WorkMode)
}

func TestSearchStopsAtLimit(t *testing.T) {
	s := newSource(t, boardServer(t))

	var got []domain.RawPosting
	require.NoError(t, s.Search(context.Background(), "data", 1, collect(&got)))
	assert.Len(t, got, 1)
}

func TestNoMatchesReportsNoResults(t *testing.T) {
	s := newSource(t, boardServer(t))

	var got []domain.RawPosting
	err := s.Search(context.Background(), "blacksmith", 10, collect(&got))
	assert.ErrorIs(t, err, types.ErrNoResults)
	assert.Empty(t, got)
}

func TestBoardDownIsNotFatal(t *testing.T) {
	srv := boardServer(t)
	s := New(
		Config{
			Companies: []Company{{Slug: "missing", Name: "Ghost"}, {Slug: "acme", Name: "Acme"}},
			BoardBase: srv.URL,
		},
		util.NewHostLimiter(1000, 1000),
		quietLogger(),
	)

	var got []domain.RawPosting
	require.NoError(t, s.Search(context.Background(), "data", 10, collect(&got)))
	assert.Len(t, got, 2)
}

func TestExtractJobID(t *testing.T) {
	assert.Equal(t, "4012345", extractJobID("https://boards.greenhouse.io/acme/jobs/4012345?t=abc"))
	assert.Equal(t, "", extractJobID("https://boards.greenhouse.io/acme/about"))
}
