package analyze

import (
	"context"
	"errors"
)

// ErrBackendDown reports a backend that cannot serve scores: the none
// backend returns it outright, the local backend wraps it when the
// embeddings server is unreachable. Callers fall back to stage-1 scores.
var ErrBackendDown = errors.New("inference backend unavailable")

// NopBackend is the explicit "none" choice: always unhealthy, so every
// record takes the stage-1 fallback path and the run still completes.
type NopBackend struct{}

func (NopBackend) Name() string { return "none" }
func (NopBackend) Class() Class { return ClassCPU }
func (NopBackend) Healthy(context.Context) error { return ErrBackendDown }
func (NopBackend) Score(context.Context, string, []Posting) ([]Scored, error) {
	return nil, ErrBackendDown
}
