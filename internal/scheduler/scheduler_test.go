package scheduler

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() log.Logger {
	return log.Logger{Writer: log.IOWriter{Writer: io.Discard}}
}

func TestAddRejectsBadSpec(t *testing.T) {
	s := New(quietLogger())
	err := s.Add("bad", "every sunday at noon", func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestScheduledJobFires(t *testing.T) {
	s := New(quietLogger())

	var runs atomic.Int64
	require.NoError(t, s.Add("tick", "@every 1s", func() error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	time.Sleep(1200 * time.Millisecond)
	s.Stop(time.Second)

	assert.GreaterOrEqual(t, runs.Load(), int64(1))
}

// The overlap policy is what keeps a slow pipeline run from stacking
// up under a tight schedule; five concurrent invocations must execute
// exactly once.
func TestSkipPolicyDropsConcurrentRuns(t *testing.T) {
	var running, maxRunning, runs atomic.Int64
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).
		Then(cron.FuncJob(func() {
			cur := running.Add(1)
			if cur > maxRunning.Load() {
				maxRunning.Store(cur)
			}
			time.Sleep(150 * time.Millisecond)
			running.Add(-1)
			runs.Add(1)
		}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), maxRunning.Load())
	assert.Equal(t, int64(1), runs.Load(), "the other four invocations were skipped")
}

func TestStopWaitsForInFlightJob(t *testing.T) {
	s := New(quietLogger())

	var finished atomic.Bool
	require.NoError(t, s.Add("slow", "@every 1s", func() error {
		time.Sleep(300 * time.Millisecond)
		finished.Store(true)
		return nil
	}))

	s.Start()
	time.Sleep(1100 * time.Millisecond) // first tick is in flight now
	s.Stop(2 * time.Second)

	assert.True(t, finished.Load(), "Stop returned before the in-flight job finished")
}
