package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/analyze"
	"github.com/NirajanKhadka/JobQst-sub000/internal/cache"
	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/dedup"
	"github.com/NirajanKhadka/JobQst-sub000/internal/pipeline"
	"github.com/NirajanKhadka/JobQst-sub000/internal/profile"
	"github.com/NirajanKhadka/JobQst-sub000/internal/rank"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/browser"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/eluta"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/emailalert"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/greenhouse"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/lever"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/rssfeed"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/util"
	"github.com/NirajanKhadka/JobQst-sub000/internal/secrets"
)

// Outbound request pacing shared by every HTTP source in a run. Browser
// pages don't count; chromedp paces itself.
const (
	hostReqPerSec = 2
	hostBurst     = 2
)

// runPipeline assembles the stages from cfg and executes one cycle.
// Session-scoped resources (the browser) are torn down before return;
// the cache and sink belong to the caller.
func runPipeline(ctx context.Context, cfg config.Config, runID string, c *cache.Cache, sink pipeline.Sink, metrics *pipeline.Metrics, logger log.Logger) (*pipeline.Summary, error) {
	prof, err := profile.Load(cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w (run `jobqst profile init` to create one)", err)
	}

	backendCfg := analyze.BackendConfig{
		Kind:      cfg.Analyze.Backend,
		Model:     cfg.Analyze.Model,
		OllamaURL: cfg.Analyze.OllamaURL,
		Class:     cfg.Analyze.Class,
	}
	if backendCfg.Kind == "claude" {
		key, err := secrets.GetAnthropicKey()
		if err != nil {
			return nil, err
		}
		backendCfg.AnthropicAPIKey = key
	}
	backend, err := analyze.NewBackend(backendCfg, logger)
	if err != nil {
		return nil, err
	}
	// Probed once up front: a down backend should be known before scraping
	// spends minutes, not when analysis begins.
	hctx, hcancel := context.WithTimeout(ctx, 5*time.Second)
	if err := backend.Healthy(hctx); errors.Is(err, analyze.ErrBackendDown) {
		logger.Info().Str("backend", backend.Name()).
			Msg("semantic backend unavailable, records will keep stage-1 scores")
	}
	hcancel()

	sources, closeSources, err := buildSources(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeSources()

	coord := scrape.NewCoordinator(scrape.Config{
		Terms:          cfg.Scrape.Terms,
		MaxConcurrency: cfg.Scrape.MaxConcurrency,
		MaxPerTerm:     cfg.Scrape.MaxPerTerm,
		Retries:        cfg.Scrape.Retries,
		UnitTimeout:    time.Duration(cfg.Scrape.UnitTimeoutSeconds) * time.Second,
	}, sources, logger)

	p := &pipeline.Pipeline{
		Coordinator: coord,
		Dedup: dedup.Config{
			TitleThreshold:   cfg.Dedup.TitleSimilarity,
			CompanyThreshold: cfg.Dedup.CompanySimilarity,
		},
		Scorer: rank.NewScorer(prof, rank.Weights{
			Skills:     cfg.Rank.SkillsWeight,
			Keywords:   cfg.Rank.KeywordsWeight,
			Experience: cfg.Rank.ExperienceWeight,
		}),
		Analyzer: analyze.New(backend, c, prof, logger),
		Sink:     sink,
		Metrics:  metrics,
		Log:      logger,
		RunID:    runID,
	}
	return p.Run(ctx)
}

// buildSources turns the config into live source adapters. The browser
// only starts when a browser-driven source is enabled; the returned
// cleanup closes it.
func buildSources(ctx context.Context, cfg config.Config, logger log.Logger) ([]types.Source, func(), error) {
	limiter := util.NewHostLimiter(hostReqPerSec, hostBurst)
	cleanup := func() {}
	var sources []types.Source

	if cfg.Scrape.Eluta.Enabled {
		mgr, err := browser.NewManager(ctx, browser.Config{
			PoolSize: cfg.Scrape.Browser.PoolSize,
			Headful:  cfg.Scrape.Browser.Headful,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("start browser: %w", err)
		}
		cleanup = mgr.Close
		sources = append(sources, eluta.New(mgr, limiter, eluta.Config{
			MaxPages: cfg.Scrape.Eluta.MaxPages,
		}, logger))
	}

	if cfg.Scrape.Greenhouse.Enabled {
		sources = append(sources, greenhouse.New(greenhouse.Config{
			Companies: greenhouseCompanies(cfg.Scrape.Greenhouse.Companies),
		}, limiter, logger))
	}

	if cfg.Scrape.Lever.Enabled {
		sources = append(sources, lever.New(lever.Config{
			Companies: leverCompanies(cfg.Scrape.Lever.Companies),
		}, limiter, logger))
	}

	if cfg.Scrape.RSSFeed.Enabled {
		sources = append(sources, rssfeed.New(rssfeed.Config{
			Feeds: rssFeeds(cfg.Scrape.RSSFeed.Feeds),
		}, limiter, logger))
	}

	if cfg.Scrape.EmailAlert.Enabled {
		ea := cfg.Scrape.EmailAlert
		account := secrets.IMAPAccount(ea.Username, ea.Addr)
		pw, err := secrets.GetIMAPPassword(account)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sources = append(sources, emailalert.New(emailalert.Config{
			Addr:       ea.Addr,
			Username:   ea.Username,
			Password:   pw,
			Mailbox:    ea.Mailbox,
			SubjectAny: ea.SubjectAny,
			MaxEmails:  ea.MaxEmails,
		}, limiter, logger))
	}

	return sources, cleanup, nil
}

// openCache opens the two-tier result cache. A cache that won't open is
// a warning, not a failure: the analyzer treats nil as a permanent miss.
func openCache(cfg config.Config, logger log.Logger) *cache.Cache {
	c, err := cache.Open(cache.Config{
		Dir:           cfg.Cache.Dir,
		MemoryEntries: cfg.Cache.MemoryEntries,
		TTL:           time.Duration(cfg.Cache.TTLHours) * time.Hour,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Str("dir", cfg.Cache.Dir).
			Msg("result cache unavailable, stage 2 will rescore everything")
		return nil
	}
	return c
}

func greenhouseCompanies(in []config.Company) []greenhouse.Company {
	out := make([]greenhouse.Company, len(in))
	for i, co := range in {
		out[i] = greenhouse.Company{Slug: co.Slug, Name: co.Name}
	}
	return out
}

func leverCompanies(in []config.Company) []lever.Company {
	out := make([]lever.Company, len(in))
	for i, co := range in {
		out[i] = lever.Company{Slug: co.Slug, Name: co.Name}
	}
	return out
}

func rssFeeds(in []config.Feed) []rssfeed.Feed {
	out := make([]rssfeed.Feed, len(in))
	for i, f := range in {
		out[i] = rssfeed.Feed{URL: f.URL, Name: f.Name}
	}
	return out
}
