package domain

import "time"

type ExperienceLevel string

const (
	ExperienceEntry   ExperienceLevel = "entry"
	ExperienceMid     ExperienceLevel = "mid"
	ExperienceSenior  ExperienceLevel = "senior"
	ExperienceUnknown ExperienceLevel = "unknown"
)

type FinalStatus string

const (
	// StatusRejected: malformed, excluded, or below the admission threshold.
	// Rejected records are kept, never dropped.
	StatusRejected FinalStatus = "rejected"
	// StatusStage1Only: admitted, but the semantic pass did not run
	// (backend down, circuit open, or disabled); stage-1 score carried over.
	StatusStage1Only FinalStatus = "stage1_only"
	// StatusStage2Scored: the semantic pass (or its cache) produced the score.
	StatusStage2Scored FinalStatus = "stage2_scored"
)

// JobRecord is the canonical deduplicated entity. Created by the dedup
// engine on first sighting of an identity, enriched by later duplicates,
// scored in place by stage 1 and optionally stage 2, then handed to sinks
// as a point-in-time snapshot.
type JobRecord struct {
	DedupGroupID string

	Title       string
	Company     string
	Location    string
	Description string
	URL         string // canonical URL of the first sighting
	WorkMode    string

	Sources    []string // adapter names that contributed, first one first
	SourceURLs []string // every distinct URL seen for the group

	PostedAt  *time.Time
	ScrapedAt time.Time // first sighting

	Stage1Score      float64
	Stage1Skills     []string
	Stage1Experience ExperienceLevel

	Stage2Score      *float64
	Stage2Confidence *float64

	FinalStatus  FinalStatus
	RejectReason string
}

// EffectiveScore is the best score available: stage 2 when present,
// stage 1 otherwise.
func (r *JobRecord) EffectiveScore() float64 {
	if r.Stage2Score != nil {
		return *r.Stage2Score
	}
	return r.Stage1Score
}

func (r *JobRecord) Reject(reason string) {
	r.FinalStatus = StatusRejected
	if r.RejectReason == "" {
		r.RejectReason = reason
	}
}

// Clone deep-copies the record so sinks can hold a snapshot safely.
func (r *JobRecord) Clone() *JobRecord {
	c := *r
	c.Sources = append([]string(nil), r.Sources...)
	c.SourceURLs = append([]string(nil), r.SourceURLs...)
	c.Stage1Skills = append([]string(nil), r.Stage1Skills...)
	if r.PostedAt != nil {
		t := *r.PostedAt
		c.PostedAt = &t
	}
	if r.Stage2Score != nil {
		v := *r.Stage2Score
		c.Stage2Score = &v
	}
	if r.Stage2Confidence != nil {
		v := *r.Stage2Confidence
		c.Stage2Confidence = &v
	}
	return &c
}
