package httpapi

import (
	"sync/atomic"
	"time"

	"github.com/NirajanKhadka/JobQst-sub000/internal/pipeline"
)

// RunStatus is the single-flight guard and the payload of
// GET /runs/status. Kept comparable so starting a run can
// compare-and-swap it.
type RunStatus struct {
	Running     bool              `json:"running"`
	LastRunID   string            `json:"last_run_id,omitempty"`
	LastStartAt string            `json:"last_start_at,omitempty"`
	LastOkAt    string            `json:"last_ok_at,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
	LastSummary *pipeline.Summary `json:"last_summary,omitempty"`
}

// ClaimRun marks the status running. It returns false when a run is
// already in flight; the swap loop closes the window between checking
// and claiming. POST /runs and the serve scheduler share one status
// value, so a manual run and a scheduled one can never overlap.
func ClaimRun(v *atomic.Value) bool {
	for {
		cur := v.Load().(RunStatus)
		if cur.Running {
			return false
		}
		next := cur
		next.Running = true
		next.LastStartAt = time.Now().UTC().Format(time.RFC3339)
		next.LastError = ""
		if v.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// FinishRun releases a claimed status and records the outcome.
func FinishRun(v *atomic.Value, sum *pipeline.Summary, err error) {
	next := v.Load().(RunStatus)
	next.Running = false
	if sum != nil {
		next.LastRunID = sum.RunID
		next.LastSummary = sum
	}
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastError = ""
		next.LastOkAt = time.Now().UTC().Format(time.RFC3339)
	}
	v.Store(next)
}
