// Package notify delivers store change notifications to subscribers.
package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber handles one notification.
type Subscriber[T any] func(event T)

// Filter decides whether a subscriber sees an event.
type Filter[T any] func(event T) bool

type subscriberEntry[T any] struct {
	id         string
	subscriber Subscriber[T]
	filter     Filter[T]
}

// Hub fans events out to its subscribers. Delivery is synchronous and in
// subscription order, on the publishing goroutine. Publishers must not hold
// locks that a subscriber might need.
type Hub[T any] struct {
	mu          sync.RWMutex
	subscribers []subscriberEntry[T]
}

// NewHub creates a hub with no subscribers.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{}
}

// Subscribe registers fn for every event and returns a function that removes it.
func (h *Hub[T]) Subscribe(fn Subscriber[T]) (cancel func()) {
	return h.SubscribeFiltered(fn, nil)
}

// SubscribeFiltered registers fn for events accepted by filter. A nil filter
// accepts everything.
func (h *Hub[T]) SubscribeFiltered(fn Subscriber[T], filter Filter[T]) (cancel func()) {
	id := uuid.New().String()

	h.mu.Lock()
	h.subscribers = append(h.subscribers, subscriberEntry[T]{
		id:         id,
		subscriber: fn,
		filter:     filter,
	})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub[T]) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, entry := range h.subscribers {
		if entry.id == id {
			h.subscribers = append(h.subscribers[:i:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every matching subscriber.
func (h *Hub[T]) Publish(event T) {
	h.mu.RLock()
	entries := make([]subscriberEntry[T], len(h.subscribers))
	copy(entries, h.subscribers)
	h.mu.RUnlock()

	for _, entry := range entries {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
