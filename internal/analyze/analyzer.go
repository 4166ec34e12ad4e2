package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/cache"
	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/profile"
)

const (
	// Three consecutive batch failures stop the run's remaining calls;
	// a struggling backend will not be hammered for every batch.
	maxConsecutiveFailures = 3

	healthProbeTimeout = 5 * time.Second
)

func batchSize(c Class) int {
	if c == ClassGPU {
		return 16
	}
	return 4
}

// Summary counts where every record's stage-2 verdict came from.
type Summary struct {
	Scored    int // fresh backend verdicts
	FromCache int
	FellBack  int // stage-1 score carried over
	Failures  int // failed backend calls
}

// Analyzer runs the second pass over admitted records: cache first, then
// the backend in class-sized batches, falling back to the stage-1 score
// whenever the backend cannot answer. Records are scored in place.
type Analyzer struct {
	backend InferenceBackend
	cache   *cache.Cache
	log     log.Logger

	profileText   string
	skillsVersion string
}

func New(backend InferenceBackend, c *cache.Cache, prof *profile.CandidateProfile, logger log.Logger) *Analyzer {
	return &Analyzer{
		backend:       backend,
		cache:         c,
		log:           logger,
		profileText:   prof.Summary(),
		skillsVersion: prof.SkillsVersion,
	}
}

// Analyze scores recs in place. It always returns: the worst backend day
// degrades every record to its stage-1 score, never loses one.
func (a *Analyzer) Analyze(ctx context.Context, recs []*domain.JobRecord) Summary {
	var sum Summary
	if len(recs) == 0 {
		return sum
	}

	remaining := a.resolveFromCache(recs, &sum)

	if len(remaining) == 0 {
		return sum
	}
	if a.backend == nil {
		a.fallBack(remaining, &sum)
		return sum
	}

	size := batchSize(a.backend.Class())
	failures := 0
	for start := 0; start < len(remaining); start += size {
		end := start + size
		if end > len(remaining) {
			end = len(remaining)
		}
		batch := remaining[start:end]

		if ctx.Err() != nil || failures >= maxConsecutiveFailures {
			a.fallBack(batch, &sum)
			continue
		}

		// Health is polled before every batch; a failed probe counts
		// toward the same streak as a failed scoring call.
		if !a.backendUsable(ctx) {
			failures++
			a.fallBack(batch, &sum)
			if failures == maxConsecutiveFailures {
				a.log.Warn().Str("backend", a.backend.Name()).
					Msg("backend circuit open for the rest of the run")
			}
			continue
		}

		if err := a.scoreBatch(ctx, batch, &sum); err != nil {
			failures++
			sum.Failures++
			a.log.Warn().Err(err).
				Str("backend", a.backend.Name()).
				Int("batch", len(batch)).
				Int("consecutive_failures", failures).
				Msg("backend batch failed, using stage-1 scores")
			a.fallBack(batch, &sum)
			if failures == maxConsecutiveFailures {
				a.log.Warn().Str("backend", a.backend.Name()).
					Msg("backend circuit open for the rest of the run")
			}
			continue
		}
		failures = 0
	}
	return sum
}

// resolveFromCache applies cached verdicts and returns the records that
// still need the backend.
func (a *Analyzer) resolveFromCache(recs []*domain.JobRecord, sum *Summary) []*domain.JobRecord {
	if a.cache == nil {
		return recs
	}
	var remaining []*domain.JobRecord
	for _, rec := range recs {
		e, ok := a.cache.Get(cache.Fingerprint(rec.Description, a.skillsVersion))
		if !ok {
			remaining = append(remaining, rec)
			continue
		}
		applyScored(rec, Scored{Score: e.Score, Confidence: e.Confidence})
		sum.FromCache++
	}
	return remaining
}

func (a *Analyzer) backendUsable(ctx context.Context) bool {
	if a.backend == nil {
		return false
	}
	hctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	if err := a.backend.Healthy(hctx); err != nil {
		a.log.Info().Err(err).Str("backend", a.backend.Name()).
			Msg("backend unavailable, batch falls back to stage-1 scores")
		return false
	}
	return true
}

func (a *Analyzer) scoreBatch(ctx context.Context, batch []*domain.JobRecord, sum *Summary) error {
	postings := make([]Posting, len(batch))
	for i, rec := range batch {
		postings[i] = Posting{Title: rec.Title, Company: rec.Company, Description: rec.Description}
	}

	scored, err := a.backend.Score(ctx, a.profileText, postings)
	if err != nil {
		return err
	}
	if len(scored) != len(batch) {
		return fmt.Errorf("backend returned %d scores for %d postings", len(scored), len(batch))
	}

	for i, rec := range batch {
		applyScored(rec, scored[i])
		sum.Scored++
		if a.cache != nil {
			a.cache.Put(cache.Fingerprint(rec.Description, a.skillsVersion), cache.Entry{
				Score:      *rec.Stage2Score,
				Confidence: *rec.Stage2Confidence,
				Backend:    a.backend.Name(),
			})
		}
	}
	return nil
}

func (a *Analyzer) fallBack(recs []*domain.JobRecord, sum *Summary) {
	for _, rec := range recs {
		applyFallback(rec)
		sum.FellBack++
	}
}

func applyScored(rec *domain.JobRecord, s Scored) {
	score := clamp01(s.Score)
	conf := clamp01(s.Confidence)
	rec.Stage2Score = &score
	rec.Stage2Confidence = &conf
	rec.FinalStatus = domain.StatusStage2Scored
}

// applyFallback carries the stage-1 score into the stage-2 slot with zero
// confidence, so downstream ordering still works on one field.
func applyFallback(rec *domain.JobRecord) {
	score := rec.Stage1Score
	conf := 0.0
	rec.Stage2Score = &score
	rec.Stage2Confidence = &conf
	rec.FinalStatus = domain.StatusStage1Only
}
