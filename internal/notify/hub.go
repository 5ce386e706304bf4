// Package notify pushes table snapshots to connected subscribers.
//
// Delivery is best effort. Each subscriber holds at most one pending
// snapshot; a newer publish replaces it. There is no backlog and no replay,
// so a subscriber that connects late asks for a fresh snapshot.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"lifeos/internal/store"
)

// Snapshot is the state pushed to subscribers.
type Snapshot struct {
	Tasks    []store.Record `json:"tasks"`
	Finances []store.Record `json:"finances"`
}

// Hub fans snapshots out to subscribers. The zero value is not usable; use
// [NewHub].
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

// Subscription receives snapshots until it is closed.
type Subscription struct {
	id  string
	hub *Hub
	ch  chan Snapshot

	once sync.Once
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string {
	return s.id
}

// C delivers snapshots. It is closed when the subscription or the hub is
// closed.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Subscribe registers a new subscriber. Subscribing to a closed hub returns
// a subscription whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{id: uuid.NewString(), hub: h, ch: make(chan Snapshot, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.once.Do(func() { close(sub.ch) })

		return sub
	}

	h.subs[sub.id] = sub

	return sub
}

// Publish offers snap to every subscriber without blocking. A subscriber
// that has not consumed its previous snapshot gets the new one instead.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		offer(sub.ch, snap)
	}
}

// offer replaces any pending value in ch with snap. Callers hold the hub
// lock, so ch has no other sender.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- snap:
	default:
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}

// Close closes every subscription. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, sub.id)
	sub.once.Do(func() { close(sub.ch) })
}
