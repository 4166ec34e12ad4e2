package scrape

import (
	"sort"
	"sync"
)

// breakerSet tracks per-source consecutive failures within one run. A
// source that keeps failing, or announces a hard block, gets its remaining
// (term, source) units skipped instead of burning retries against a wall.
type breakerSet struct {
	mu        sync.Mutex
	threshold int
	failures  map[string]int
	open      map[string]bool
}

func newBreakerSet(threshold int) *breakerSet {
	if threshold <= 0 {
		threshold = 3
	}
	return &breakerSet{
		threshold: threshold,
		failures:  map[string]int{},
		open:      map[string]bool{},
	}
}

func (b *breakerSet) allow(source string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.open[source]
}

func (b *breakerSet) success(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[source] = 0
}

// failure records one failed unit; reports true when this failure opened
// the breaker.
func (b *breakerSet) failure(source string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[source]++
	if b.failures[source] >= b.threshold && !b.open[source] {
		b.open[source] = true
		return true
	}
	return false
}

// trip opens the breaker immediately; used on hard blocks.
func (b *breakerSet) trip(source string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open[source] {
		return false
	}
	b.open[source] = true
	return true
}

// degraded lists the sources whose breaker opened, sorted for stable logs.
func (b *breakerSet) degraded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.open))
	for s, isOpen := range b.open {
		if isOpen {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
