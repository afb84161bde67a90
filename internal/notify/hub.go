package notify

import (
	"sync"
	"time"
)

// DefaultBuffer is the per-subscriber queue depth used by NewHub when the
// caller passes a non-positive buffer size.
const DefaultBuffer = 16

// Hub is a process-wide publish/subscribe channel for fallback events.
//
// Multiple publishers and subscribers may operate concurrently. Each
// subscriber receives every event published after it subscribed, in
// publication order, at most once. There is no replay and no persistence:
// a subscriber whose bounded queue is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
	now    func() time.Time
}

// NewHub creates a hub whose subscribers each get a queue of the given depth.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		now:    time.Now,
	}
}

// Publish delivers the event to every current subscriber. It never blocks:
// subscribers that are not draining their queue are skipped. A zero
// timestamp is stamped at publication time.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// subscriber not reading, drop
		}
	}
}

// Subscribe registers a new subscriber and returns its event channel along
// with a cancel function. Cancel must be called when the subscriber is done;
// it removes the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
