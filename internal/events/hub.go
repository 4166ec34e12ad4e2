// Package events fans pipeline happenings out to SSE subscribers.
// Publishing never blocks: a subscriber that stops draining loses events
// instead of stalling the run.
package events

import "sync"

// Per-subscriber buffer; record_upserted comes in bursts at the end of a
// run, so this is roomier than one-at-a-time delivery needs.
const subscriberBuf = 64

type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuf)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}
