package broadcast

import (
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

// Hub fans state-change events out to every connected subscriber. Publish
// never blocks: a subscriber whose buffer is full is dropped and its channel
// closed, which ends the transport's write loop and forces the client into a
// reconnect-and-refetch.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	logger *slog.Logger
}

// Subscriber is one connected viewer's event stream. It only ever sees events
// published after Subscribe.
type Subscriber struct {
	ch chan Event
}

// Events is the stream of future events. The channel is closed on Unsubscribe
// or when the subscriber falls too far behind.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// Publish delivers evt to all current subscribers, best effort.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- evt:
		default:
			delete(h.subs, sub)
			close(sub.ch)
			h.logger.Warn("dropping slow broadcast subscriber", "event", evt.Name())
		}
	}
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
