package events

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Hub fans status events out to in-process subscribers of a session. A
// subscriber that falls behind loses events rather than blocking
// publishers.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
}

type subscription struct {
	ch   chan StatusEvent
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: DefaultBuffer,
	}
}

// Subscribe returns a channel receiving events of session and a function
// that ends the subscription and closes the channel.
func (h *Hub) Subscribe(session string) (<-chan StatusEvent, func()) {
	sub := &subscription{ch: make(chan StatusEvent, h.buffer)}

	h.mu.Lock()
	if h.subs[session] == nil {
		h.subs[session] = make(map[*subscription]struct{})
	}
	h.subs[session][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[session]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, session)
			}
		}
		sub.once.Do(func() { close(sub.ch) })
	}
	return sub.ch, cancel
}

// Subscribers returns the number of subscribers of session.
func (h *Hub) Subscribers(session string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[session])
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, ev StatusEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ev.Session] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}
