// Package pipeline wires a full run: the scrape coordinator fans postings
// into the dedup engine, stage 1 classifies the unique records against a
// volume-scaled admission threshold, stage 2 scores the admitted ones, and
// every record lands on the sink, the rejected ones included.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/NirajanKhadka/JobQst-sub000/internal/analyze"
	"github.com/NirajanKhadka/JobQst-sub000/internal/dedup"
	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/rank"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scrape"
)

const (
	// Postings buffered between the coordinator's emit goroutines and the
	// single dedup consumer.
	postingBuf = 256

	// How long a cancelled run may keep persisting records that already
	// made it past dedup.
	drainGrace = 10 * time.Second
)

// Pipeline owns one run's stages. Coordinator, Scorer and Analyzer are
// required; use the nop backend to run without stage 2. Sink and Metrics
// may be nil.
type Pipeline struct {
	Coordinator *scrape.Coordinator
	Dedup       dedup.Config
	Scorer      *rank.Scorer
	Analyzer    *analyze.Analyzer
	Sink        Sink
	Metrics     *Metrics
	Log         log.Logger

	// RunID labels the run; Run generates one when empty. Callers that
	// announce the run before it starts assign it themselves.
	RunID string
}

// Summary is the per-run accounting, published on the event hub and
// served by the HTTP API.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Units          int      `json:"units"`
	Scraped        int      `json:"scraped"`
	SourceFailures int      `json:"source_failures"`
	Degraded       []string `json:"degraded,omitempty"`

	Unique    int `json:"unique"`
	Merged    int `json:"merged"`
	Malformed int `json:"malformed"`

	Threshold  float64 `json:"threshold"`
	Rejected   int     `json:"rejected"`
	Stage1Only int     `json:"stage1_only"` // below threshold, never sent to stage 2
	Admitted   int     `json:"admitted"`

	Scored    int `json:"scored"`
	FromCache int `json:"from_cache"`
	FellBack  int `json:"fell_back"`

	Persisted  int `json:"persisted"`
	SinkErrors int `json:"sink_errors"`
}

// Run executes one discovery-to-analysis cycle. It always returns a
// Summary; the error is non-nil only when ctx ended before discovery
// finished. Records past dedup at that point still get classified and
// persisted under a short drain window.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	sum := &Summary{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
	}
	p.Log.Info().Str("run_id", sum.RunID).Msg("run started")

	// The coordinator emits from many goroutines; the engine is single
	// writer, so everything funnels through one consumer here.
	eng := dedup.NewEngine(p.Dedup)
	postings := make(chan domain.RawPosting, postingBuf)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for rp := range postings {
			eng.Add(rp)
		}
	}()

	stats, runErr := p.Coordinator.Run(ctx, func(rp domain.RawPosting) {
		postings <- rp
	})
	close(postings)
	<-consumed

	sum.Units = stats.Units
	sum.Scraped = stats.Seen
	sum.SourceFailures = stats.Failures
	sum.Degraded = stats.Degraded

	dstats := eng.Stats()
	sum.Unique = dstats.Groups
	sum.Merged = dstats.Merged
	sum.Malformed = dstats.Malformed

	// The admission threshold needs the run's unique count, so
	// classification waits for discovery to finish.
	sum.Threshold = rank.Threshold(dstats.Groups)

	recs := eng.Records()
	admitted := p.classify(recs, sum)

	asum := p.Analyzer.Analyze(ctx, admitted)
	sum.Scored = asum.Scored
	sum.FromCache = asum.FromCache
	sum.FellBack = asum.FellBack

	p.persist(ctx, recs, sum)

	sum.FinishedAt = time.Now().UTC()
	if p.Metrics != nil {
		p.Metrics.record(sum, stats.Failures)
	}
	p.Log.Info().
		Str("run_id", sum.RunID).
		Int("scraped", sum.Scraped).
		Int("unique", sum.Unique).
		Int("rejected", sum.Rejected).
		Int("admitted", sum.Admitted).
		Int("scored", sum.Scored).
		Int("from_cache", sum.FromCache).
		Int("fell_back", sum.FellBack).
		Float64("threshold", sum.Threshold).
		Dur("took", sum.FinishedAt.Sub(sum.StartedAt)).
		Msg("run finished")
	return sum, runErr
}

// classify runs stage 1 over every record and splits the stream: excluded
// or below-floor records reject, sub-threshold ones finalize as
// stage1_only, the rest go to stage 2. Records dedup already rejected as
// malformed keep their zero score.
func (p *Pipeline) classify(recs []domain.JobRecord, sum *Summary) []*domain.JobRecord {
	var admitted []*domain.JobRecord
	for i := range recs {
		rec := &recs[i]
		if rec.FinalStatus == domain.StatusRejected {
			sum.Rejected++
			continue
		}

		out := p.Scorer.Score(rec)
		rec.Stage1Score = out.Score
		rec.Stage1Skills = out.Skills
		rec.Stage1Experience = out.Experience

		switch {
		case out.RejectReason != "":
			rec.Reject(out.RejectReason)
			sum.Rejected++
		case out.Score < rank.ThresholdFloor:
			rec.Reject("stage-1 score below floor")
			sum.Rejected++
		case out.Score < sum.Threshold:
			rec.FinalStatus = domain.StatusStage1Only
			sum.Stage1Only++
		default:
			admitted = append(admitted, rec)
		}
	}
	sum.Admitted = len(admitted)
	return admitted
}

// persist hands every record to the sink as a snapshot. Sink errors are
// counted and logged, never fatal; a cancelled run drains under its own
// deadline so finished records are not lost.
func (p *Pipeline) persist(ctx context.Context, recs []domain.JobRecord, sum *Summary) {
	if p.Sink == nil {
		return
	}
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), drainGrace)
		defer cancel()
	}
	for i := range recs {
		rec := &recs[i]
		if err := p.Sink.Persist(ctx, rec.Clone()); err != nil {
			sum.SinkErrors++
			p.Log.Warn().Err(err).
				Str("group", rec.DedupGroupID).
				Str("title", rec.Title).
				Msg("sink rejected record")
			continue
		}
		sum.Persisted++
	}
}
