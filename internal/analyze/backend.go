// Package analyze is the semantic second pass: records that clear the
// rule-based stage are scored against the candidate profile by an
// inference backend, with cached results reused and a mandatory fallback
// to the stage-1 score when the backend is unavailable.
package analyze

import "context"

// Class groups backends by throughput for batch sizing.
type Class string

const (
	ClassGPU Class = "gpu"
	ClassCPU Class = "cpu"
)

// Posting is the slice of a record a backend sees. Nothing else leaves
// the process.
type Posting struct {
	Title       string
	Company     string
	Description string
}

// Scored is one backend verdict. Both values live in [0,1].
type Scored struct {
	Score      float64
	Confidence float64
}

// InferenceBackend scores postings against a profile. Score returns one
// verdict per posting, in order; each posting must be judged on its own,
// never relative to the rest of the batch.
type InferenceBackend interface {
	Name() string
	Class() Class
	Healthy(ctx context.Context) error
	Score(ctx context.Context, profileText string, postings []Posting) ([]Scored, error)
}
