// Package greenhouse scrapes Greenhouse-hosted job boards
// (boards.greenhouse.io/<slug>). Boards are plain server-rendered HTML,
// so this is goquery over net/http: walk the board's anchors for
// /jobs/<id> links, then hydrate each candidate from its posting page.
package greenhouse

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

type Config struct {
	Companies []Company
	BoardBase string // default https://boards.greenhouse.io
}

type Company struct {
	Slug string // boards.greenhouse.io/<slug>
	Name string // display name
}

type Source struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     log.Logger
}

func New(cfg Config, limiter *util.HostLimiter, logger log.Logger) *Source {
	if cfg.BoardBase == "" {
		cfg.BoardBase = "https://boards.greenhouse.io"
	}
	return &Source{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		log:     logger,
	}
}

func (s *Source) Name() string { return "greenhouse" }

// entry is one board anchor before hydration.
type entry struct {
	title string // anchor text; boards sometimes wrap titles in junk
	url   string
}

func (s *Source) Search(ctx context.Context, term string, limit int, emit types.EmitFunc) error {
	emitted := 0
	for _, co := range s.cfg.Companies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if emitted >= limit {
			break
		}

		entries, err := s.fetchBoard(ctx, co)
		if err != nil {
			// don't fail the whole run because one board is down
			s.log.Warn().Err(err).Str("company", co.Name).Msg("greenhouse board failed, skipping")
			continue
		}

		for _, e := range entries {
			if emitted >= limit {
				break
			}
			// Cheap prefilter: an anchor title that clearly misses the
			// term saves a page fetch. Empty titles go through; the
			// hydrated title decides.
			if e.title != "" && !matchesTerm(term, e.title, "") {
				continue
			}

			p := domain.RawPosting{
				SourceURL: e.url,
				Title:     e.title,
				Company:   co.Name,
			}
			if err := s.hydrate(ctx, &p); err != nil {
				// keep the minimal entry; dedup flags it if too thin
				s.log.Debug().Err(err).Str("url", e.url).Msg("greenhouse hydrate failed")
			}
			if !matchesTerm(term, p.Title, p.Description) {
				continue
			}

			p.WorkMode = util.InferWorkMode(p.Location, p.Title, p.Description)
			if err := emit(p); err != nil {
				return err
			}
			emitted++
		}
	}

	if emitted == 0 {
		return types.ErrNoResults
	}
	return nil
}

func (s *Source) fetchBoard(ctx context.Context, co Company) ([]entry, error) {
	boardURL := fmt.Sprintf("%s/%s", s.cfg.BoardBase, co.Slug)

	doc, err := s.get(ctx, boardURL)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var entries []entry
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}

		abs := href
		if strings.HasPrefix(href, "/") {
			abs = s.cfg.BoardBase + href
		}
		low := strings.ToLower(abs)
		if !strings.Contains(low, "/jobs/") {
			return
		}
		if !strings.Contains(low, "greenhouse.io") && !strings.HasPrefix(abs, s.cfg.BoardBase) {
			return
		}

		jobID := extractJobID(abs)
		if jobID == "" {
			return
		}
		key := co.Slug + ":" + jobID
		if seen[key] {
			return
		}
		seen[key] = true

		title := util.CleanText(a.Text())
		if util.LooksLikeJunkTitle(title) {
			// some boards wrap titles weird; the posting page has the real one
			title = ""
		}
		entries = append(entries, entry{title: title, url: abs})
	})
	return entries, nil
}

func (s *Source) hydrate(ctx context.Context, p *domain.RawPosting) error {
	doc, err := s.get(ctx, p.SourceURL)
	if err != nil {
		return err
	}

	if t := util.CleanText(doc.Find("h1").First().Text()); t != "" {
		p.Title = t
	}
	if loc := util.FindLocation(doc); loc != "" {
		p.Location = util.NormalizeLocation(loc)
	}

	sel := doc.Find("#content").First()
	if sel.Length() == 0 {
		sel = doc.Find("main").First()
	}
	if sel.Length() > 0 {
		if h, err := sel.Html(); err == nil {
			p.Description = util.HTMLToText(h)
		}
	}
	return nil
}

func (s *Source) get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := s.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	req.Header.Set("User-Agent", "JobQst/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("greenhouse status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("greenhouse parse html: %w", err)
	}
	return doc, nil
}

func matchesTerm(term, title, desc string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), needle) ||
		strings.Contains(strings.ToLower(desc), needle)
}

// extractJobID pulls the digits after /jobs/; crude but effective.
func extractJobID(u string) string {
	parts := strings.Split(u, "/jobs/")
	if len(parts) < 2 {
		return ""
	}
	tail := parts[1]
	id := ""
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			id += string(r)
		} else {
			break
		}
	}
	return id
}
