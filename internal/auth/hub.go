package auth

import (
	"context"
	"sync"
)

// Subscription is returned by OnAuthStateChange. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Publisher broadcasts auth events for a browser session.
type Publisher interface {
	Publish(ctx context.Context, sid string, ev Event) error
}

// Hub fans auth events out to the subscribers of each browser session.
// Delivery is synchronous: Publish returns after every local subscriber ran.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func(Event) // sid -> id -> callback
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func(Event))}
}

// Subscribe registers fn for events of sid.
func (h *Hub) Subscribe(sid string, fn func(Event)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.subs[sid] == nil {
		h.subs[sid] = make(map[uint64]func(Event))
	}
	h.subs[sid][id] = fn

	return &hubSubscription{hub: h, sid: sid, id: id}
}

// Publish delivers ev to the local subscribers of sid.
func (h *Hub) Publish(_ context.Context, sid string, ev Event) error {
	h.Deliver(sid, ev)
	return nil
}

// Deliver runs every callback registered for sid.
func (h *Hub) Deliver(sid string, ev Event) {
	h.mu.RLock()
	callbacks := make([]func(Event), 0, len(h.subs[sid]))
	for _, fn := range h.subs[sid] {
		callbacks = append(callbacks, fn)
	}
	h.mu.RUnlock()

	// Callbacks run outside the lock so they may subscribe or unsubscribe.
	for _, fn := range callbacks {
		fn(ev)
	}
}

// Subscribers returns the number of subscribers for sid.
func (h *Hub) Subscribers(sid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs[sid])
}

func (h *Hub) unsubscribe(sid string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[sid], id)
	if len(h.subs[sid]) == 0 {
		delete(h.subs, sid)
	}
}

type hubSubscription struct {
	hub  *Hub
	sid  string
	id   uint64
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() { s.hub.unsubscribe(s.sid, s.id) })
}
