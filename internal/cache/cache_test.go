package cache

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() log.Logger {
	return log.Logger{Writer: log.IOWriter{Writer: io.Discard}}
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Config{InMemory: true, MemoryEntries: 8}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFingerprintFoldsWhitespaceAndCase(t *testing.T) {
	a := Fingerprint("Build  Data\nPipelines", "v1")
	b := Fingerprint("build data pipelines", "v1")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint("build data pipelines", "v2"),
		"skills version must rotate the key")
	assert.NotEqual(t, a, Fingerprint("build other pipelines", "v1"))
}

func TestGetPutRoundTrip(t *testing.T) {
	c := testCache(t)

	key := Fingerprint("some description", "v1")
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, Entry{Score: 0.83, Confidence: 0.9, Backend: "local"})

	e, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 0.83, e.Score)
	assert.Equal(t, 0.9, e.Confidence)
	assert.Equal(t, "local", e.Backend)
	assert.False(t, e.CreatedAt.IsZero())

	st := c.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(1), st.Puts)
}

func TestDiskHitPromotesToMemory(t *testing.T) {
	c := testCache(t)

	c.Put("k", Entry{Score: 0.5, Backend: "claude"})
	c.mem.clear()

	_, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().DiskHits)

	_, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().MemoryHits)
}

func TestMemoryTierEvictsLRU(t *testing.T) {
	m := newMemoryTier(3, time.Hour)
	for i := 0; i < 3; i++ {
		m.put(fmt.Sprintf("k%d", i), Entry{Score: float64(i)})
	}
	m.get("k0") // refresh k0; k1 becomes the eviction candidate
	m.put("k3", Entry{})

	_, ok := m.get("k1")
	assert.False(t, ok, "least recently used entry should be gone")
	_, ok = m.get("k0")
	assert.True(t, ok)
	assert.Equal(t, 3, m.len())
}

func TestMemoryTierExpiry(t *testing.T) {
	m := newMemoryTier(8, time.Minute)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m.put("k", Entry{Score: 1})
	_, ok := m.get("k")
	require.True(t, ok)

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = m.get("k")
	assert.False(t, ok, "entry past its TTL must not be served")
	assert.Equal(t, 0, m.len())
}

func TestClearDropsBothTiers(t *testing.T) {
	c := testCache(t)
	c.Put("k", Entry{Score: 0.7})
	require.NoError(t, c.Clear())

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestPersistsAcrossReopenOnRealDir(t *testing.T) {
	dir := t.TempDir()
	logger := quietLogger()

	c, err := Open(Config{Dir: dir}, logger)
	require.NoError(t, err)
	c.Put("k", Entry{Score: 0.61, Backend: "claude"})
	require.NoError(t, c.Close())

	c2, err := Open(Config{Dir: dir}, logger)
	require.NoError(t, err)
	defer c2.Close()

	e, ok := c2.Get("k")
	require.True(t, ok)
	assert.Equal(t, 0.61, e.Score)
}
