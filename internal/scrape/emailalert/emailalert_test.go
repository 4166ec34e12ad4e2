package emailalert

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

const linkedinAlert = `<html><body>
<table><tr><td>
  <a href="https://www.linkedin.com/comm/jobs/view/4012345678/?trackingId=abc"><img src="logo.png"/></a>
  <a href="https://www.linkedin.com/comm/jobs/view/4012345678/?trackingId=abc">Senior Data Engineer</a>
  <p>Maple Analytics · Toronto, ON</p>
  <p>Easy Apply</p>
</td></tr></table>
<table><tr><td>
  <a href="https://www.linkedin.com/comm/jobs/view/4099999999/?refId=xyz">Data Platform Engineer</a>
  <p>Acme Corp · Remote</p>
</td></tr></table>
<a href="https://www.linkedin.com/comm/jobs/search/?alertAction=markAsViewed">See all jobs</a>
</body></html>`

func quietLogger() log.Logger {
	return log.Logger{Writer: log.IOWriter{Writer: io.Discard}}
}

func testSource(t *testing.T) *Source {
	t.Helper()
	return New(Config{Username: "me@example.com", Password: "app-pw"},
		util.NewHostLimiter(1000, 1000), quietLogger())
}

func TestParseLinkedInAlertMergesCardAnchors(t *testing.T) {
	jobs, err := parseLinkedInAlert(linkedinAlert)
	require.NoError(t, err)
	require.Len(t, jobs, 2, "logo and title anchors merge; the see-all link is not a job")

	first := jobs[0]
	assert.Equal(t, "Senior Data Engineer", first.title, "empty logo anchor must not win")
	assert.Equal(t, "Maple Analytics", first.company)
	assert.Equal(t, "Toronto, ON", first.location)
	assert.Contains(t, first.url, "/jobs/view/4012345678")

	second := jobs[1]
	assert.Equal(t, "Data Platform Engineer", second.title)
	assert.Equal(t, "Acme Corp", second.company)
	assert.Equal(t, "Remote", second.location)
}

func TestLinkedInPostingsAreCanonicalAndStamped(t *testing.T) {
	s := testSource(t)
	sent := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	m := message{
		from:    "LinkedIn Job Alerts <jobalerts-noreply@linkedin.com>",
		subject: "30+ new data engineer jobs",
		date:    sent,
	}

	postings := s.postingsFromEmail(context.Background(), m, m.subject, "", linkedinAlert)
	require.Len(t, postings, 2)

	first := postings[0]
	assert.Equal(t, "https://www.linkedin.com/comm/jobs/view/4012345678", first.SourceURL,
		"tracking params stripped")
	assert.Equal(t, "Senior Data Engineer", first.Title)
	assert.Equal(t, "Maple Analytics", first.Company)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, sent, *first.PostedAt)

	assert.Equal(t, "Remote", postings[1].WorkMode)
}

func TestLooksLikeLinkedInAlert(t *testing.T) {
	assert.True(t, looksLikeLinkedInAlert("jobalerts-noreply@linkedin.com", "anything", ""))
	assert.True(t, looksLikeLinkedInAlert("other@linkedin.com", "Your job alert", linkedinAlert))
	assert.False(t, looksLikeLinkedInAlert("news@linkedin.com", "Your job alert", "<html>no job links</html>"))
	assert.False(t, looksLikeLinkedInAlert("digest@weekly.dev", "Tuesday newsletter", linkedinAlert))
}

func TestJobLinksFilterAndDeduplicate(t *testing.T) {
	htmlBody := `<html><body>
<a href="https://boards.greenhouse.io/acme/jobs/4012345?gh_src=alert">Data Engineer at Acme</a>
<a href="https://example.com/unsubscribe?id=1">Unsubscribe</a>
<a href="https://example.com/careers">All careers</a>
</body></html>`
	plain := "Also see https://boards.greenhouse.io/acme/jobs/4012345?gh_src=other and https://jobs.lever.co/maple/abc-123."

	links := jobLinks(plain, htmlBody)
	require.Len(t, links, 2, "unsubscribe and listing-hub links dropped, tracking variants deduplicated")

	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/4012345", links[0].url)
	assert.Equal(t, "Data Engineer at Acme", links[0].text)
	assert.Equal(t, "https://jobs.lever.co/maple/abc-123", links[1].url)
}

func TestLooksLikeJobLink(t *testing.T) {
	assert.True(t, looksLikeJobLink("https://boards.greenhouse.io/acme/jobs/4012345"))
	assert.True(t, looksLikeJobLink("https://ca.indeed.com/viewjob?jk=abc"))
	assert.False(t, looksLikeJobLink("https://example.com/unsubscribe"))
	assert.False(t, looksLikeJobLink("https://example.com/careers"), "listing hub, not a posting")
	assert.False(t, looksLikeJobLink("https://example.com/blog/post"))
}

func TestParseBodyWalksMultipartAlternative(t *testing.T) {
	htmlPart := `<html><body><a href="https://boards.greenhouse.io/acme/jobs/1">Data Engineer</a></body></html>`
	raw := strings.Join([]string{
		"From: alerts@example.com",
		"Subject: jobs",
		`Content-Type: multipart/alternative; boundary="BOUND"`,
		"",
		"--BOUND",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"New job =E2=80=94 apply soon",
		"--BOUND",
		"Content-Type: text/html; charset=utf-8",
		"Content-Transfer-Encoding: base64",
		"",
		base64.StdEncoding.EncodeToString([]byte(htmlPart)),
		"--BOUND--",
		"",
	}, "\r\n")

	plain, html := parseBody([]byte(raw))
	assert.Contains(t, plain, "New job — apply soon", "quoted-printable decoded")
	assert.Contains(t, html, `href="https://boards.greenhouse.io/acme/jobs/1"`, "base64 decoded")
}

func TestDecodeSubject(t *testing.T) {
	got := decodeSubject(`=?UTF-8?Q?30+_new_=22data_engineer=22_jobs?=`)
	assert.Equal(t, `30+ new "data engineer" jobs`, got)
	assert.Equal(t, "plain subject", decodeSubject("plain subject"))
}

func TestSubjectFilter(t *testing.T) {
	s := New(Config{Username: "u", Password: "p", SubjectAny: []string{"job alert", "new jobs"}},
		util.NewHostLimiter(1, 1), quietLogger())

	assert.True(t, s.subjectWanted("Your Job Alert for data engineer"))
	assert.True(t, s.subjectWanted("14 NEW JOBS for you"))
	assert.False(t, s.subjectWanted("Invoice overdue"))

	open := New(Config{Username: "u", Password: "p"}, util.NewHostLimiter(1, 1), quietLogger())
	assert.True(t, open.subjectWanted("anything at all"))
}

func TestHydrateFillsPostingFromPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><head>
<meta property="og:site_name" content="Acme Careers"/>
<meta name="description" content="Senior Data Engineer role building pipelines."/>
</head><body>
<h1>Senior Data Engineer</h1>
<div class="location">Toronto, ON</div>
</body></html>`)
	}))
	t.Cleanup(srv.Close)

	s := testSource(t)
	p := domain.RawPosting{SourceURL: srv.URL + "/careers/jobs/1"}
	require.NoError(t, s.hydrate(context.Background(), &p))

	assert.Equal(t, "Senior Data Engineer", p.Title)
	assert.Equal(t, "Acme Careers", p.Company)
	assert.Equal(t, "Toronto, ON", p.Location)
	assert.Equal(t, "Senior Data Engineer role building pipelines.", p.Description)
}

func TestCompanyFromHost(t *testing.T) {
	assert.Equal(t, "acme", companyFromHost("careers.acme.ca"))
	assert.Equal(t, "maple", companyFromHost("www.maple.io"))
	assert.Equal(t, "localhost", companyFromHost("localhost"))
}
