package pipeline

import "sync/atomic"

// Metrics accumulates run counters across the process lifetime. Safe for
// concurrent use; the HTTP API snapshots it while runs are in flight.
type Metrics struct {
	runs           atomic.Int64
	postingsSeen   atomic.Int64
	unique         atomic.Int64
	rejected       atomic.Int64
	admitted       atomic.Int64
	stage2Scored   atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	fellBack       atomic.Int64
	sourceFailures atomic.Int64
	persisted      atomic.Int64
	sinkErrors     atomic.Int64
}

// MetricsSnapshot is a point-in-time copy, shaped for the JSON API.
type MetricsSnapshot struct {
	Runs           int64 `json:"runs"`
	PostingsSeen   int64 `json:"postings_seen"`
	UniqueRecords  int64 `json:"unique_records"`
	Rejected       int64 `json:"rejected"`
	Admitted       int64 `json:"admitted"`
	Stage2Scored   int64 `json:"stage2_scored"`
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	FellBack       int64 `json:"fell_back"`
	SourceFailures int64 `json:"source_failures"`
	Persisted      int64 `json:"persisted"`
	SinkErrors     int64 `json:"sink_errors"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Runs:           m.runs.Load(),
		PostingsSeen:   m.postingsSeen.Load(),
		UniqueRecords:  m.unique.Load(),
		Rejected:       m.rejected.Load(),
		Admitted:       m.admitted.Load(),
		Stage2Scored:   m.stage2Scored.Load(),
		CacheHits:      m.cacheHits.Load(),
		CacheMisses:    m.cacheMisses.Load(),
		FellBack:       m.fellBack.Load(),
		SourceFailures: m.sourceFailures.Load(),
		Persisted:      m.persisted.Load(),
		SinkErrors:     m.sinkErrors.Load(),
	}
}

func (m *Metrics) record(sum *Summary, sourceFailures int) {
	m.runs.Add(1)
	m.postingsSeen.Add(int64(sum.Scraped))
	m.unique.Add(int64(sum.Unique))
	m.rejected.Add(int64(sum.Rejected))
	m.admitted.Add(int64(sum.Admitted))
	m.stage2Scored.Add(int64(sum.Scored))
	m.cacheHits.Add(int64(sum.FromCache))
	m.cacheMisses.Add(int64(sum.Scored + sum.FellBack))
	m.fellBack.Add(int64(sum.FellBack))
	m.sourceFailures.Add(int64(sourceFailures))
	m.persisted.Add(int64(sum.Persisted))
	m.sinkErrors.Add(int64(sum.SinkErrors))
}
