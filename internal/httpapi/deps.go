// Package httpapi is the engine's operational surface: records, run
// control, live events, metrics and config editing over plain JSON.
package httpapi

import (
	"context"
	"sync/atomic"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/events"
	"github.com/NirajanKhadka/JobQst-sub000/internal/pipeline"
	"github.com/NirajanKhadka/JobQst-sub000/internal/store"
)

type Deps struct {
	Store *store.DB

	Hub *events.Hub

	Metrics *pipeline.Metrics

	// Atomic stores, shared with the scheduler and CLI.
	CfgVal    *atomic.Value // stores config.Config
	RunStatus *atomic.Value // stores httpapi.RunStatus

	// Config persistence
	CfgPath string

	// RunPipeline is injected by main so the API never assembles
	// sources itself. The callee derives its own lifecycle context;
	// runs outlive the POST that starts them.
	RunPipeline func(ctx context.Context, cfg config.Config) (*pipeline.Summary, error)
}
