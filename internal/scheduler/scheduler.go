// Package scheduler drives recurring work in serve mode: pipeline
// runs on the configured cron spec and the nightly retention sweep.
package scheduler

import (
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
	log  log.Logger
}

// New builds a scheduler whose jobs skip a tick instead of piling up
// when the previous invocation is still running.
func New(logger log.Logger) *Scheduler {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	return &Scheduler{cron: c, log: logger}
}

// Add registers fn under a standard cron spec. Register before Start.
func (s *Scheduler) Add(name, spec string, fn func() error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.log.Info().Str("job", name).Msg("scheduled job started")
		if err := fn(); err != nil {
			s.log.Error().Err(err).Str("job", name).
				Dur("took", time.Since(start)).Msg("scheduled job failed")
			return
		}
		s.log.Info().Str("job", name).
			Dur("took", time.Since(start)).Msg("scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop ends scheduling and waits up to grace for in-flight jobs.
func (s *Scheduler) Stop(grace time.Duration) {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(grace):
		s.log.Warn().Msg("scheduled job still running at shutdown, abandoning wait")
	}
}
