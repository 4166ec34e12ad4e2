// Package eluta scrapes eluta.ca, a Canadian job search engine that only
// renders its listings in a real browser. Each results page is pulled
// through a managed Chrome tab and parsed offline with goquery. Title
// links open the employer's site in a popup; intercepting that popup is
// how the true application URL is recovered from eluta's tracking links.
package eluta

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/browser"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

const (
	defaultBaseURL  = "https://www.eluta.ca"
	defaultMaxPages = 5
	resultsPerPage  = 10 // eluta's organic page size; a shorter page is the last one
	settleDelay     = 800 * time.Millisecond
)

// blockMarkers are substrings of the pages eluta serves instead of
// results once it has decided the visitor is a bot.
var blockMarkers = []string{
	"captcha",
	"unusual traffic",
	"verify you are human",
	"just a moment",
	"access denied",
	"request blocked",
}

type Config struct {
	BaseURL  string
	MaxPages int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	return c
}

type Source struct {
	cfg     Config
	mgr     *browser.Manager
	limiter *util.HostLimiter
	log     log.Logger
}

func New(mgr *browser.Manager, limiter *util.HostLimiter, cfg Config, logger log.Logger) *Source {
	return &Source{cfg: cfg.withDefaults(), mgr: mgr, limiter: limiter, log: logger}
}

func (s *Source) Name() string { return "eluta" }

// tile is one parsed result card from a search page.
type tile struct {
	title    string
	company  string
	location string
	snippet  string
	href     string // raw attribute value, needed to click the anchor
	url      string // absolutized href
	posted   *time.Time
}

func (s *Source) Search(ctx context.Context, term string, limit int, emit types.EmitFunc) error {
	sess, err := s.mgr.Session(ctx)
	if err != nil {
		return fmt.Errorf("open browser session: %w", err)
	}
	defer sess.Close()

	emitted := 0
	popupFailures := 0
	for page := 1; page <= s.cfg.MaxPages && emitted < limit; page++ {
		pageURL := s.searchURL(term, page)
		html, err := s.fetch(ctx, sess, pageURL)
		if err != nil {
			return err
		}

		tiles, err := parseTiles(html, s.cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("parse results page %d: %w", page, err)
		}
		if len(tiles) == 0 {
			break
		}

		for _, tl := range tiles {
			if emitted >= limit {
				break
			}

			finalURL := tl.url
			if isTrackingLink(tl.url) && popupFailures < 2 {
				resolved, rerr := sess.ResolvePopup(ctx, anchorSelector(tl.href))
				switch {
				case rerr != nil:
					popupFailures++
					s.log.Debug().Err(rerr).Str("title", tl.title).
						Msg("popup resolution failed, keeping tracking url")
					// The failed click may have navigated the tab; put the
					// results page back before touching the next tile.
					if _, nerr := s.fetch(ctx, sess, pageURL); nerr != nil {
						return nerr
					}
				case resolved != "" && resolved != "about:blank":
					finalURL = resolved
				}
			}

			if err := emit(domain.RawPosting{
				SourceURL:   finalURL,
				Title:       tl.title,
				Company:     tl.company,
				Location:    tl.location,
				Description: tl.snippet,
				WorkMode:    util.InferWorkMode(tl.location, tl.title, tl.snippet),
				PostedAt:    tl.posted,
			}); err != nil {
				return err
			}
			emitted++
		}

		if len(tiles) < resultsPerPage {
			break
		}
	}

	if emitted == 0 {
		return types.ErrNoResults
	}
	return nil
}

func (s *Source) searchURL(term string, page int) string {
	return fmt.Sprintf("%s/search?q=%s&pg=%d", s.cfg.BaseURL, url.QueryEscape(term), page)
}

// fetch navigates the tab to pageURL and returns the rendered HTML. The
// per-host limiter gates every navigation, recovery reloads included.
func (s *Source) fetch(ctx context.Context, sess *browser.Session, pageURL string) (string, error) {
	if err := s.limiter.WaitURL(ctx, pageURL); err != nil {
		return "", err
	}

	var html string
	err := sess.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay), // let the result list finish rendering
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", pageURL, err)
	}
	if looksBlocked(html) {
		return "", types.ErrHardBlock
	}
	return html, nil
}

func parseTiles(html, base string) ([]tile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var tiles []tile
	doc.Find("div.organic-job").Each(func(_ int, sel *goquery.Selection) {
		a := sel.Find("a.lk-job-title").First()
		title := util.CleanText(a.Text())
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if title == "" || href == "" || util.LooksLikeJunkTitle(title) {
			return
		}

		company := util.CleanText(sel.Find(".employer").First().Text())
		if company == "" {
			company = util.CleanText(sel.Find(".employer-name").First().Text())
		}

		tiles = append(tiles, tile{
			title:    title,
			company:  company,
			location: util.NormalizeLocation(sel.Find(".location").First().Text()),
			snippet:  util.CleanText(sel.Find(".description").First().Text()),
			href:     href,
			url:      absoluteURL(base, href),
			posted:   parseAge(sel.Text(), time.Now().UTC()),
		})
	})
	return tiles, nil
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

// isTrackingLink reports whether the URL still points at eluta itself,
// meaning the employer's real URL hides behind the click popup.
func isTrackingLink(abs string) bool {
	u, err := url.Parse(abs)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Host), "eluta.")
}

// anchorSelector addresses one title link by its exact href; tiles carry
// no stable ids and ads interleave with results, so positional selectors
// are not safe.
func anchorSelector(href string) string {
	return fmt.Sprintf(`a.lk-job-title[href=%q]`, href)
}

func looksBlocked(html string) bool {
	l := strings.ToLower(html)
	for _, m := range blockMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}

var ageRe = regexp.MustCompile(`(\d+)\+?\s+(day|week|month)s?\s+ago`)

// parseAge turns eluta's relative freshness label into an absolute date.
// The result is approximate and only used for recency ordering.
func parseAge(text string, now time.Time) *time.Time {
	l := strings.ToLower(text)
	if strings.Contains(l, "posted today") {
		return &now
	}
	if strings.Contains(l, "yesterday") {
		t := now.AddDate(0, 0, -1)
		return &t
	}

	m := ageRe.FindStringSubmatch(l)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	var t time.Time
	switch m[2] {
	case "day":
		t = now.AddDate(0, 0, -n)
	case "week":
		t = now.AddDate(0, 0, -7*n)
	case "month":
		t = now.AddDate(0, -n, 0)
	}
	return &t
}
