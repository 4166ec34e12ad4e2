package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
	"github.com/NirajanKhadka/JobQst-sub000/internal/events"
	"github.com/NirajanKhadka/JobQst-sub000/internal/httpapi"
	"github.com/NirajanKhadka/JobQst-sub000/internal/logging"
	"github.com/NirajanKhadka/JobQst-sub000/internal/pipeline"
	"github.com/NirajanKhadka/JobQst-sub000/internal/scheduler"
	"github.com/NirajanKhadka/JobQst-sub000/internal/store"
)

const (
	shutdownGrace = 5 * time.Second
	// How long shutdown waits for an in-flight run before closing the
	// database under it.
	runDrainGrace = 10 * time.Second
	// Retention sweeps run nightly, off the usual scrape hours.
	sweepSchedule = "10 4 * * *"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local HTTP API and scheduled runs",
	Long: "Binds the API to 127.0.0.1 and keeps it up until SIGINT/SIGTERM.\n" +
		"With serve.schedule set, pipeline runs fire on that cron spec;\n" +
		"POST /runs triggers one on demand either way.",
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, v, path, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.App.LogLevel)
	logWarnings(logger, v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One serve per data dir; the database and cache are single-owner.
	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(cfg.App.DataDir, "jobqst.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another jobqst serve already owns %s", lock.Path())
	}
	defer lock.Unlock()

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	c := openCache(cfg, logger)
	if c != nil {
		defer c.Close()
	}

	hub := events.NewHub()
	metrics := &pipeline.Metrics{}

	cfgVal := &atomic.Value{}
	cfgVal.Store(cfg)
	runStatus := &atomic.Value{}
	runStatus.Store(httpapi.RunStatus{})

	sink := &store.Sink{DB: db, OnUpsert: func(rec *domain.JobRecord, isNew bool) {
		hub.Publish(events.RecordUpserted(events.RecordUpsertedData{
			DedupGroupID: rec.DedupGroupID,
			Title:        rec.Title,
			Company:      rec.Company,
			Score:        rec.EffectiveScore(),
			FinalStatus:  string(rec.FinalStatus),
			IsNew:        isNew,
		}))
	}}

	runPL := func(rctx context.Context, rcfg config.Config) (*pipeline.Summary, error) {
		runID := uuid.NewString()
		hub.Publish(events.RunStarted(runID))
		sum, err := runPipeline(rctx, rcfg, runID, c, sink, metrics, logger)
		if sum != nil {
			for _, src := range sum.Degraded {
				hub.Publish(events.SourceDegraded(sum.RunID, src))
			}
			hub.Publish(events.RunFinished(sum))
		}
		return sum, err
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Store:       db,
		Hub:         hub,
		Metrics:     metrics,
		CfgVal:      cfgVal,
		RunStatus:   runStatus,
		CfgPath:     path,
		RunPipeline: runPL,
	})
	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Cors,
		httpapi.Recover(logger),
		httpapi.AccessLog(logger),
	)

	sched := scheduler.New(logger)
	if cfg.Serve.Schedule != "" {
		// Scheduler and POST /runs share the claim, so a scheduled run
		// never overlaps a manual one.
		err := sched.Add("pipeline", cfg.Serve.Schedule, func() error {
			if !httpapi.ClaimRun(runStatus) {
				logger.Info().Msg("scheduled run skipped, one already in flight")
				return nil
			}
			cur := cfgVal.Load().(config.Config)
			sum, err := runPL(context.Background(), cur)
			httpapi.FinishRun(runStatus, sum, err)
			return err
		})
		if err != nil {
			return err
		}
	}
	err = sched.Add("retention-sweep", sweepSchedule, func() error {
		cur := cfgVal.Load().(config.Config)
		if cur.Store.RetentionDays <= 0 {
			return nil
		}
		n, err := db.CleanupOldRecords(context.Background(), cur.Store.RetentionDays)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info().Int64("deleted", n).Msg("retention sweep")
		}
		return nil
	})
	if err != nil {
		return err
	}
	sched.Start()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Serve.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	logger.Info().
		Str("addr", "http://"+ln.Addr().String()).
		Str("config", path).
		Str("schedule", cfg.Serve.Schedule).
		Msg("serving")

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	logger.Info().Msg("shutting down")
	sched.Stop(runDrainGrace)
	waitForRun(runStatus, runDrainGrace)

	shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	return nil
}

// waitForRun blocks until no run is in flight or the grace expires.
// POST /runs work happens in a detached goroutine; closing the database
// under it would turn a clean shutdown into a burst of sink errors.
func waitForRun(status *atomic.Value, grace time.Duration) {
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if st := status.Load().(httpapi.RunStatus); !st.Running {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
