// Package cache is the two-tier result cache for stage-2 scores: a small
// in-process LRU in front of a badger database. Reads fall through memory
// to disk; disk hits are promoted. A broken tier degrades to a miss, never
// to a failed run.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/phuslu/log"
)

const DefaultTTL = 12 * time.Hour

// Entry is one cached stage-2 verdict.
type Entry struct {
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Backend    string    `json:"backend"`
	CreatedAt  time.Time `json:"created_at"`
}

type Config struct {
	Dir           string
	MemoryEntries int
	TTL           time.Duration

	// InMemory keeps the badger tier off disk; used by tests.
	InMemory bool
}

type Stats struct {
	Hits          int64
	Misses        int64
	MemoryHits    int64
	DiskHits      int64
	Puts          int64
	MemoryEntries int
}

type Cache struct {
	mem  *memoryTier
	disk *diskTier
	log  log.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	memHits atomic.Int64
	dskHits atomic.Int64
	puts    atomic.Int64
}

func Open(cfg Config, logger log.Logger) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	disk, err := openDiskTier(cfg.Dir, cfg.InMemory, cfg.TTL)
	if err != nil {
		return nil, err
	}
	return &Cache{
		mem:  newMemoryTier(cfg.MemoryEntries, cfg.TTL),
		disk: disk,
		log:  logger,
	}, nil
}

func (c *Cache) Get(key string) (Entry, bool) {
	if e, ok := c.mem.get(key); ok {
		c.hits.Add(1)
		c.memHits.Add(1)
		return e, true
	}

	e, ok, err := c.disk.get(key)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache disk read failed, treating as miss")
	}
	if !ok || err != nil {
		c.misses.Add(1)
		return Entry{}, false
	}

	c.mem.put(key, e)
	c.hits.Add(1)
	c.dskHits.Add(1)
	return e, true
}

func (c *Cache) Put(key string, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	c.puts.Add(1)
	c.mem.put(key, e)
	if err := c.disk.put(key, e); err != nil {
		c.log.Warn().Err(err).Msg("cache disk write failed")
	}
}

// Clear drops both tiers.
func (c *Cache) Clear() error {
	c.mem.clear()
	return c.disk.clear()
}

func (c *Cache) Close() error {
	return c.disk.close()
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		MemoryHits:    c.memHits.Load(),
		DiskHits:      c.dskHits.Load(),
		Puts:          c.puts.Load(),
		MemoryEntries: c.mem.len(),
	}
}
