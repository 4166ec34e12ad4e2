package cache

import (
	"container/list"
	"sync"
	"time"
)

// memoryTier is a plain LRU with per-entry expiry. It fronts the disk
// tier; losing it costs a badger read, nothing more.
type memoryTier struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List
	items map[string]*list.Element
	now   func() time.Time
}

type memEntry struct {
	key string
	val Entry
	exp time.Time
}

func newMemoryTier(capacity int, ttl time.Duration) *memoryTier {
	if capacity <= 0 {
		capacity = 4096
	}
	return &memoryTier{
		cap:   capacity,
		ttl:   ttl,
		ll:    list.New(),
		items: map[string]*list.Element{},
		now:   time.Now,
	}
}

func (m *memoryTier) get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return Entry{}, false
	}
	me := el.Value.(*memEntry)
	if m.now().After(me.exp) {
		m.ll.Remove(el)
		delete(m.items, key)
		return Entry{}, false
	}
	m.ll.MoveToFront(el)
	return me.val, true
}

func (m *memoryTier) put(key string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp := m.now().Add(m.ttl)
	if el, ok := m.items[key]; ok {
		me := el.Value.(*memEntry)
		me.val = e
		me.exp = exp
		m.ll.MoveToFront(el)
		return
	}

	el := m.ll.PushFront(&memEntry{key: key, val: e, exp: exp})
	m.items[key] = el

	for m.ll.Len() > m.cap {
		oldest := m.ll.Back()
		m.ll.Remove(oldest)
		delete(m.items, oldest.Value.(*memEntry).key)
	}
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

func (m *memoryTier) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ll.Init()
	m.items = map[string]*list.Element{}
}
