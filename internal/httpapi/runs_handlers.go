package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/pipeline"
)

type RunsHandler struct {
	CfgVal    *atomic.Value // config.Config
	RunStatus *atomic.Value // httpapi.RunStatus
	Run       func(ctx context.Context, cfg config.Config) (*pipeline.Summary, error)
}

func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	WriteJSON(w, http.StatusOK, st)
}

// Start kicks off one pipeline run in the background. A second POST
// while one is in flight gets 409.
func (h RunsHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !ClaimRun(h.RunStatus) {
		WriteError(w, r, http.StatusConflict, "already_running", "a run is already in progress")
		return
	}
	started := h.RunStatus.Load().(RunStatus).LastStartAt

	go func() {
		cfg := h.CfgVal.Load().(config.Config)
		sum, err := h.Run(context.Background(), cfg)
		FinishRun(h.RunStatus, sum, err)
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "started_at": started})
}
