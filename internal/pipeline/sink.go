package pipeline

import (
	"context"
	"errors"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
)

// Sink consumes the finished record stream. Records arrive as snapshots;
// a sink may hold them indefinitely without racing the run.
type Sink interface {
	Persist(ctx context.Context, rec *domain.JobRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec *domain.JobRecord) error

func (f SinkFunc) Persist(ctx context.Context, rec *domain.JobRecord) error {
	return f(ctx, rec)
}

// ChannelSink delivers records over ch, for callers embedding the pipeline
// in a larger program. Delivery blocks until the receiver keeps up or ctx
// ends; the caller owns closing ch after Run returns.
func ChannelSink(ch chan<- *domain.JobRecord) Sink {
	return SinkFunc(func(ctx context.Context, rec *domain.JobRecord) error {
		select {
		case ch <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Fanout sends every record to each sink in order. All sinks see the
// record even when an earlier one fails; errors are joined.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, rec *domain.JobRecord) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Persist(ctx, rec); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
