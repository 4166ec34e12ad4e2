package types

import (
	"context"
	"errors"

	"github.com/NirajanKhadka/JobQst-sub000/internal/domain"
)

// ErrHardBlock means the source recognized us as a scraper and refused to
// serve results. Retrying the same run makes it worse; the coordinator
// trips the source's breaker instead.
var ErrHardBlock = errors.New("source blocked the session")

// ErrNoResults is the clean empty case: the query worked and found
// nothing. Not a failure, not retryable.
var ErrNoResults = errors.New("no results for term")

// EmitFunc receives postings as an adapter finds them. Returning an error
// tells the adapter to stop the current search; the adapter must hand the
// error back unchanged.
type EmitFunc func(domain.RawPosting) error

// Source is one place jobs come from. Search streams every posting found
// for the term through emit, up to limit, and respects ctx throughout.
type Source interface {
	Name() string
	Search(ctx context.Context, term string, limit int, emit EmitFunc) error
}

// TermlessSource runs once per cycle instead of once per search term.
// Email alerts are the case in point: the search already happened on the
// provider's side.
type TermlessSource interface {
	Source
	Termless() bool
}
