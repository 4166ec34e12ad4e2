// Package scrape runs the discovery side of the pipeline: every (term,
// source) pair becomes a unit of work, fanned out under a concurrency
// bound, retried with jittered backoff, and cut off per source by a
// circuit breaker. Units are best-effort; one broken job board never
// takes down a run.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape/types"
)

// errLimit stops an adapter once a unit has emitted its share; the
// coordinator treats it as success.
var errLimit = errors.New("per-term limit reached")

const breakerThreshold = 3

// Config bounds one scrape cycle. Zero values pick the defaults.
type Config struct {
	Terms          []string
	MaxConcurrency int           // concurrent units, default 2
	MaxPerTerm     int           // postings per unit, default 50
	Retries        int           // retries after the first attempt; default 2, negative for none
	RetryBaseDelay time.Duration // default 1s, doubled per retry, ±25% jitter
	UnitTimeout    time.Duration // default 90s
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 2
	}
	if c.MaxPerTerm <= 0 {
		c.MaxPerTerm = 50
	}
	if c.Retries < 0 {
		c.Retries = 0
	} else if c.Retries == 0 {
		c.Retries = 2
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.UnitTimeout <= 0 {
		c.UnitTimeout = 90 * time.Second
	}
	return c
}

// RunStats summarizes one cycle for logs, events and the run summary.
type RunStats struct {
	Units    int
	Seen     int
	Failures int
	Skipped  int
	Degraded []string
}

type Coordinator struct {
	cfg     Config
	sources []types.Source
	log     log.Logger
}

func NewCoordinator(cfg Config, sources []types.Source, logger log.Logger) *Coordinator {
	return &Coordinator{cfg: cfg.withDefaults(), sources: sources, log: logger}
}

// Run fans out every unit and streams postings to out until all units
// finish or ctx ends. out is called from multiple goroutines.
func (c *Coordinator) Run(ctx context.Context, out func(domain.RawPosting)) (RunStats, error) {
	breakers := newBreakerSet(breakerThreshold)

	var seen, failures, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)

	units := 0
	for _, src := range c.sources {
		for _, term := range c.termsFor(src) {
			src, term := src, term
			units++
			g.Go(func() error {
				if gctx.Err() != nil {
					skipped.Add(1)
					return nil
				}
				if !breakers.allow(src.Name()) {
					skipped.Add(1)
					return nil
				}

				err := c.runUnit(gctx, src, term, out, &seen)
				switch {
				case err == nil:
					breakers.success(src.Name())
				case errors.Is(err, types.ErrHardBlock):
					failures.Add(1)
					if breakers.trip(src.Name()) {
						c.log.Warn().Str("source", src.Name()).
							Msg("source blocked us, skipping its remaining terms")
					}
				case errors.Is(err, context.Canceled):
					// shutdown, not a source failure
				default:
					failures.Add(1)
					c.log.Warn().Err(err).
						Str("source", src.Name()).Str("term", term).
						Msg("unit failed after retries")
					if breakers.failure(src.Name()) {
						c.log.Warn().Str("source", src.Name()).
							Msg("source breaker open for the rest of the run")
					}
				}
				return nil // best-effort: never cancel sibling units
			})
		}
	}

	_ = g.Wait()

	stats := RunStats{
		Units:    units,
		Seen:     int(seen.Load()),
		Failures: int(failures.Load()),
		Skipped:  int(skipped.Load()),
		Degraded: breakers.degraded(),
	}
	c.log.Info().
		Int("units", stats.Units).
		Int("postings", stats.Seen).
		Int("failures", stats.Failures).
		Int("skipped", stats.Skipped).
		Strs("degraded", stats.Degraded).
		Msg("scrape cycle finished")
	return stats, ctx.Err()
}

// termsFor collapses the term list to a single unit for sources where the
// search already happened upstream.
func (c *Coordinator) termsFor(src types.Source) []string {
	if ts, ok := src.(types.TermlessSource); ok && ts.Termless() {
		return []string{""}
	}
	return c.cfg.Terms
}

// runUnit is one (term, source) attempt cycle. The emit closure keeps its
// count across retries so a retried unit never exceeds its cap, and the
// dedup engine downstream absorbs any postings a failed attempt already
// emitted.
func (c *Coordinator) runUnit(ctx context.Context, src types.Source, term string, out func(domain.RawPosting), seen *atomic.Int64) error {
	emitted := 0
	emit := func(p domain.RawPosting) error {
		if emitted >= c.cfg.MaxPerTerm {
			return errLimit
		}
		if p.SourceID == "" {
			p.SourceID = src.Name()
		}
		if p.ScrapedAt.IsZero() {
			p.ScrapedAt = time.Now().UTC()
		}
		out(p)
		seen.Add(1)
		emitted++
		if emitted >= c.cfg.MaxPerTerm {
			return errLimit
		}
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(c.cfg.RetryBaseDelay, attempt)
			c.log.Debug().
				Str("source", src.Name()).Str("term", term).
				Int("attempt", attempt+1).Dur("delay", delay).
				Msg("retrying unit")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		uctx, cancel := context.WithTimeout(ctx, c.cfg.UnitTimeout)
		err := src.Search(uctx, term, c.cfg.MaxPerTerm, emit)
		cancel()

		switch {
		case err == nil, errors.Is(err, errLimit), errors.Is(err, types.ErrNoResults):
			return nil
		case errors.Is(err, types.ErrHardBlock):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("%s %q: %w", src.Name(), term, lastErr)
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	jitter := 0.75 + 0.5*rand.Float64()
	return time.Duration(float64(d) * jitter)
}
