// Package emailalert turns job-alert emails into postings. It polls an
// IMAP mailbox for unseen messages, recognizes LinkedIn alert markup
// specially, and for everything else extracts posting links and hydrates
// them from the web. The search already happened on the provider's side,
// so this source runs once per cycle, not once per term.
package emailalert

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-imap/v2"
	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

const (
	defaultAddr      = "imap.gmail.com:993"
	defaultMailbox   = "INBOX"
	defaultMaxEmails = 200
	maxLinksPerEmail = 25
	descClip         = 800
)

type Config struct {
	Addr       string   // host:port, default imap.gmail.com:993
	Username   string
	Password   string   // app password, resolved from the keyring upstream
	Mailbox    string   // default INBOX
	SubjectAny []string // process only subjects containing any of these; empty = all
	MaxEmails  int      // per cycle, default 200
	LeaveSeen  bool     // do not flag processed messages \Seen (debugging)
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.Mailbox == "" {
		c.Mailbox = defaultMailbox
	}
	if c.MaxEmails <= 0 {
		c.MaxEmails = defaultMaxEmails
	}
	return c
}

type Source struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     log.Logger
}

func New(cfg Config, limiter *util.HostLimiter, logger log.Logger) *Source {
	return &Source{
		cfg:     cfg.withDefaults(),
		hc:      &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
		log:     logger,
	}
}

func (s *Source) Name() string { return "emailalert" }
func (s *Source) Termless() bool { return true }

func (s *Source) Search(ctx context.Context, _ string, limit int, emit types.EmitFunc) error {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email alerts enabled but imap credentials are not configured")
	}

	c, err := dialAndLogin(s.cfg.Addr, s.cfg.Username, s.cfg.Password)
	if err != nil {
		return err
	}
	defer logoutAndClose(c)

	msgs, err := fetchUnseen(ctx, c, s.cfg.Mailbox, s.cfg.MaxEmails)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return types.ErrNoResults
	}

	emitted := 0
	var processed []imap.UID

scan:
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}

		subject := decodeSubject(m.subject)
		if !s.subjectWanted(subject) {
			processed = append(processed, m.uid)
			continue
		}

		plain, htmlBody := parseBody(m.raw)
		postings := s.postingsFromEmail(ctx, m, subject, plain, htmlBody)

		for _, p := range postings {
			if emitted >= limit {
				processed = append(processed, m.uid)
				break scan
			}
			if err := emit(p); err != nil {
				return err
			}
			emitted++
		}
		processed = append(processed, m.uid)
	}

	if !s.cfg.LeaveSeen {
		if err := markSeen(c, processed); err != nil {
			s.log.Warn().Err(err).Msg("could not flag processed alerts; they will reprocess next cycle")
		}
	}

	if emitted == 0 {
		return types.ErrNoResults
	}
	return nil
}

func (s *Source) subjectWanted(subject string) bool {
	if len(s.cfg.SubjectAny) == 0 {
		return true
	}
	l := strings.ToLower(subject)
	for _, want := range s.cfg.SubjectAny {
		if want != "" && strings.Contains(l, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

func (s *Source) postingsFromEmail(ctx context.Context, m message, subject, plain, htmlBody string) []domain.RawPosting {
	received := m.date.UTC()

	if looksLikeLinkedInAlert(m.from, subject, htmlBody) {
		jobs, err := parseLinkedInAlert(htmlBody)
		if err != nil {
			s.log.Warn().Err(err).Str("subject", subject).Msg("linkedin alert parse failed")
			return nil
		}
		out := make([]domain.RawPosting, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, domain.RawPosting{
				SourceURL:   util.CanonicalURL(j.url),
				Title:       j.title,
				Company:     j.company,
				Location:    util.NormalizeLocation(j.location),
				Description: subject + "\n" + j.company + " · " + j.location,
				WorkMode:    util.InferWorkMode(j.location, j.title, subject),
				PostedAt:    &received,
			})
		}
		return out
	}

	// Generic alert: pull job-ish links out of the body and hydrate each
	// one from the web.
	var out []domain.RawPosting
	for _, link := range jobLinks(plain, htmlBody) {
		p := domain.RawPosting{
			SourceURL:   link.url,
			Title:       link.text,
			Description: subject,
			PostedAt:    &received,
		}
		if err := s.hydrate(ctx, &p); err != nil {
			s.log.Debug().Err(err).Str("url", link.url).Msg("alert link hydrate failed, keeping minimal posting")
		}
		p.WorkMode = util.InferWorkMode(p.Location, p.Title, p.Description)
		out = append(out, p)
	}
	return out
}

// link is one candidate posting URL with its anchor text.
type link struct {
	url  string
	text string
}

var nakedURLRe = regexp.MustCompile(`https?://[^\s<>"']+`)

// jobLinks extracts deduplicated posting links from the email body,
// anchors first, naked text URLs as backup.
func jobLinks(plain, htmlBody string) []link {
	seen := map[string]bool{}
	var out []link

	add := func(raw, text string) {
		if len(out) >= maxLinksPerEmail {
			return
		}
		u := util.CanonicalURL(unwrapRedirect(strings.TrimSpace(raw)))
		if u == "" || seen[u] || !looksLikeJobLink(u) {
			return
		}
		seen[u] = true
		out = append(out, link{url: u, text: util.CleanText(text)})
	}

	if htmlBody != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody)); err == nil {
			doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				add(a.AttrOr("href", ""), a.Text())
			})
		}
	}
	for _, raw := range nakedURLRe.FindAllString(plain, -1) {
		add(strings.TrimRight(raw, ".,);:]\"'"), "")
	}
	return out
}

// looksLikeJobLink separates posting URLs from the unsubscribe links,
// tracking pixels and settings pages alert emails are full of.
func looksLikeJobLink(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	l := strings.ToLower(raw)

	for _, junk := range []string{
		"unsubscribe", "preferences", "settings", "privacy", "login",
		"signin", "password", "mailto:",
	} {
		if strings.Contains(l, junk) {
			return false
		}
	}
	if util.TooGeneric(raw) {
		return false
	}

	for _, marker := range []string{
		"/jobs/", "/job/", "/careers/", "/posting/", "viewjob",
		"greenhouse.io", "lever.co", "smartrecruiters.com", "myworkdayjobs.com",
	} {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

// hydrate fills in the posting from its page: title, site name as the
// company, location and a clipped description.
func (s *Source) hydrate(ctx context.Context, p *domain.RawPosting) error {
	if err := s.limiter.WaitURL(ctx, p.SourceURL); err != nil {
		return err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, p.SourceURL, nil)
	req.Header.Set("User-Agent", "JobQst/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("posting page status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return err
	}

	if t := util.CleanText(doc.Find("h1").First().Text()); t != "" {
		p.Title = t
	} else if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		p.Title = util.CleanText(t)
	}

	if site, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		p.Company = util.CleanText(site)
	}
	if p.Company == "" {
		p.Company = companyFromHost(res.Request.URL.Host)
	}

	if loc := util.FindLocation(doc); loc != "" {
		p.Location = loc
	}

	if d, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && util.CleanText(d) != "" {
		p.Description = util.CleanText(d)
	} else if body := util.CleanText(doc.Find("body").Text()); body != "" {
		p.Description = clip(body, descClip)
	}
	return nil
}

// companyFromHost guesses an employer name from a careers-site hostname;
// dedup normalization cleans up the guess downstream.
func companyFromHost(host string) string {
	host = strings.ToLower(host)
	for _, prefix := range []string{"www.", "careers.", "jobs.", "apply.", "boards."} {
		host = strings.TrimPrefix(host, prefix)
	}
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
