// Package rssfeed ingests job-board RSS and Atom feeds. Feeds carry no
// structured company or location fields, so both are recovered from the
// title conventions job boards actually use ("Company: Title", "Title at
// Company", trailing "(City, Region)") and from labeled description text.
package rssfeed

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

type Config struct {
	Feeds []Feed
}

type Feed struct {
	URL  string
	Name string // label for logs only
}

type Source struct {
	cfg     Config
	hc      *http.Client
	parser  *gofeed.Parser
	limiter *util.HostLimiter
	log     log.Logger
}

func New(cfg Config, limiter *util.HostLimiter, logger log.Logger) *Source {
	return &Source{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		parser:  gofeed.NewParser(),
		limiter: limiter,
		log:     logger,
	}
}

func (s *Source) Name() string { return "rssfeed" }

func (s *Source) Search(ctx context.Context, term string, limit int, emit types.EmitFunc) error {
	emitted := 0
	failed := 0
	var lastErr error
	seen := map[string]bool{}

	for _, f := range s.cfg.Feeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if emitted >= limit {
			break
		}

		feed, err := s.fetchFeed(ctx, f.URL)
		if err != nil {
			failed++
			lastErr = err
			s.log.Warn().Err(err).Str("feed", f.Name).Msg("feed fetch failed, skipping")
			continue
		}

		for _, item := range feed.Items {
			if emitted >= limit {
				break
			}

			guid := coalesce(item.GUID, item.Link)
			if guid == "" || seen[guid] {
				continue
			}
			seen[guid] = true

			p := itemToPosting(item)
			if !matchesTerm(term, p.Title, p.Description) {
				continue
			}
			if err := emit(p); err != nil {
				return err
			}
			emitted++
		}
	}

	if emitted == 0 {
		if failed == len(s.cfg.Feeds) && failed > 0 {
			return fmt.Errorf("all %d feeds failed: %w", failed, lastErr)
		}
		return types.ErrNoResults
	}
	return nil
}

func (s *Source) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if err := s.limiter.WaitURL(ctx, feedURL); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	req.Header.Set("User-Agent", "JobQst/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("feed status %d", res.StatusCode)
	}

	feed, err := s.parser.Parse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func itemToPosting(item *gofeed.Item) domain.RawPosting {
	title, company, loc := splitTitle(item.Title)
	if company == "" && item.Author != nil {
		// job feeds often put the employer in the author field
		company = util.CleanText(item.Author.Name)
	}

	desc := util.HTMLToText(coalesce(item.Content, item.Description))
	if loc == "" {
		loc = util.ExtractLocationFromLabeledText(desc)
	}
	loc = util.NormalizeLocation(loc)

	var posted *time.Time
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		posted = &t
	}

	return domain.RawPosting{
		SourceURL:   strings.TrimSpace(item.Link),
		Title:       title,
		Company:     company,
		Location:    loc,
		Description: desc,
		WorkMode:    util.InferWorkMode(loc, title, desc),
		PostedAt:    posted,
	}
}

var parenRe = regexp.MustCompile(`\(([^)]{2,40})\)\s*$`)

// splitTitle unpacks the "Company: Title" and "Title at Company"
// conventions plus a trailing parenthesized location. Titles that fit
// neither convention come back with an empty company; dedup flags those
// instead of dropping them.
func splitTitle(raw string) (title, company, loc string) {
	title = util.CleanText(raw)

	if i := strings.LastIndex(title, " at "); i > 0 {
		company = strings.TrimSpace(title[i+4:])
		title = strings.TrimSpace(title[:i])
	} else if i := strings.Index(title, ": "); i > 0 {
		company = strings.TrimSpace(title[:i])
		title = strings.TrimSpace(title[i+2:])
	}

	if m := parenRe.FindStringSubmatch(title); m != nil {
		if inner := strings.TrimSpace(m[1]); looksLikeLocation(inner) {
			loc = inner
			title = util.CleanText(strings.TrimSuffix(title, m[0]))
		}
	}
	return title, company, loc
}

func looksLikeLocation(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(s, ",") ||
		strings.Contains(l, "remote") ||
		strings.Contains(l, "hybrid") ||
		strings.Contains(l, "on-site") ||
		strings.Contains(l, "onsite")
}

func matchesTerm(term, title, desc string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), needle) ||
		strings.Contains(strings.ToLower(desc), needle)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
