package store

import (
	"context"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
)

// Sink adapts the store to the pipeline's sink boundary. OnUpsert, when
// set, fires after every successful write with the first-sighting flag,
// which is where the event hub hangs off.
type Sink struct {
	DB       *DB
	OnUpsert func(rec *domain.JobRecord, isNew bool)
}

func (s *Sink) Persist(ctx context.Context, rec *domain.JobRecord) error {
	isNew, err := s.DB.UpsertRecord(ctx, rec)
	if err != nil {
		return err
	}
	if s.OnUpsert != nil {
		s.OnUpsert(rec, isNew)
	}
	return nil
}
