// Package lever pulls postings from Lever's public JSON API
// (api.lever.co/v0/postings/<slug>). The API carries title, location and
// description in one response; a small worker pool fetches the hosted
// page only for postings the API leaves without a location.
package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
)

const hydrateWorkers = 4

type Config struct {
	Companies []Company
	APIBase   string // default https://api.lever.co
}

type Company struct {
	Slug string // api.lever.co/v0/postings/<slug>
	Name string
}

type Source struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	log     log.Logger
}

func New(cfg Config, limiter *util.HostLimiter, logger log.Logger) *Source {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.lever.co"
	}
	return &Source{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		log:     logger,
	}
}

func (s *Source) Name() string { return "lever" }

type leverPosting struct {
	ID            string `json:"id"`
	Text          string `json:"text"` // title
	HostedURL     string `json:"hostedUrl"`
	CreatedAt     int64  `json:"createdAt"` // ms epoch
	WorkplaceType string `json:"workplaceType"`
	Categories    struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	Description string `json:"description"` // html
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

		postings, err := s.fetchBoard(ctx, co)
		if err != nil {
			// one broken board never kills the others
			s.log.Warn().Err(err).Str("company", co.Name).Msg("lever board failed, skipping")
			continue
		}

		leads := matchTerm(postings, co, term)
		if n := limit - emitted; len(leads) > n {
			leads = leads[:n]
		}
		s.hydrate(ctx, leads)

		for i := range leads {
			if err := emit(leads[i]); err != nil {
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

func (s *Source) fetchBoard(ctx context.Context, co Company) ([]leverPosting, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.cfg.APIBase, co.Slug)

	if err := s.limiter.WaitURL(ctx, apiURL); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	req.Header.Set("User-Agent", "JobQst/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("lever status %d", res.StatusCode)
	}

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}
	return postings, nil
}

// matchTerm keeps the board's postings relevant to the search term and
// shapes them for the pipeline. An empty term keeps everything.
func matchTerm(postings []leverPosting, co Company, term string) []domain.RawPosting {
	needle := strings.ToLower(strings.TrimSpace(term))

	var out []domain.RawPosting
	for _, p := range postings {
		title := strings.TrimSpace(p.Text)
		if p.HostedURL == "" && title == "" {
			continue // nothing to identify the posting by
		}

		desc := util.HTMLToText(p.Description)
		if needle != "" &&
			!strings.Contains(strings.ToLower(title), needle) &&
			!strings.Contains(strings.ToLower(desc), needle) {
			continue
		}

		loc := util.NormalizeLocation(p.Categories.Location)
		var posted *time.Time
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			posted = &t
		}

		out = append(out, domain.RawPosting{
			SourceURL:   p.HostedURL,
			Title:       title,
			Company:     co.Name,
			Location:    loc,
			Description: desc,
			WorkMode:    workMode(p.WorkplaceType, loc, title, desc),
			PostedAt:    posted,
		})
	}
	return out
}

// workMode trusts the API's workplaceType field when present and falls
// back to text heuristics when it is not.
func workMode(workplaceType, loc, title, desc string) string {
	switch strings.ToLower(strings.TrimSpace(workplaceType)) {
	case "remote":
		return "Remote"
	case "hybrid":
		return "Hybrid"
	case "onsite", "on-site":
		return "Onsite"
	}
	return util.InferWorkMode(loc, title, desc)
}

// hydrate fills in locations the API left blank by fetching the hosted
// posting pages through a small worker pool. Best effort: a posting that
// cannot be hydrated still goes out.
func (s *Source) hydrate(ctx context.Context, leads []domain.RawPosting) {
	workCh := make(chan int)

	var wg sync.WaitGroup
	wg.Add(hydrateWorkers)
	for i := 0; i < hydrateWorkers; i++ {
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if err := s.hydrateOne(ctx, &leads[idx]); err != nil {
					s.log.Debug().Err(err).Str("url", leads[idx].SourceURL).Msg("lever hydrate failed")
				}
			}
		}()
	}

feed:
	for i := range leads {
		if leads[i].Location != "" || leads[i].SourceURL == "" {
			continue
		}
		select {
		case <-ctx.Done():
			break feed
		case workCh <- i:
		}
	}
	close(workCh)
	wg.Wait()
}

func (s *Source) hydrateOne(ctx context.Context, lead *domain.RawPosting) error {
	if err := s.limiter.WaitURL(ctx, lead.SourceURL); err != nil {
		return err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, lead.SourceURL, nil)
	req.Header.Set("User-Agent", "JobQst/1.0 (+local)")

	res, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("job page status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return err
	}

	if loc := util.FindLocation(doc); loc != "" {
		lead.Location = util.NormalizeLocation(loc)
	}
	if lead.WorkMode == "" || lead.WorkMode == "Unknown" {
		lead.WorkMode = util.InferWorkMode(lead.Location, lead.Title, lead.Description)
	}
	return nil
}
