package auth

import (
	"context"
	"sync"
	"testing"
)

func TestHubDeliversPerSession(t *testing.T) {
	hub := NewHub()
	var a, b int
	subA := hub.Subscribe("a", func(Event) { a++ })
	subB := hub.Subscribe("b", func(Event) { b++ })
	defer subB.Unsubscribe()

	_ = hub.Publish(context.Background(), "a", Event{Type: SignedOut})
	if a != 1 || b != 0 {
		t.Errorf("deliveries a=%d b=%d, want 1 0", a, b)
	}

	subA.Unsubscribe()
	subA.Unsubscribe() // idempotent
	_ = hub.Publish(context.Background(), "a", Event{Type: SignedOut})
	if a != 1 {
		t.Errorf("delivered after unsubscribe: a=%d", a)
	}
	if hub.Subscribers("a") != 0 || hub.Subscribers("b") != 1 {
		t.Errorf("subscribers a=%d b=%d, want 0 1", hub.Subscribers("a"), hub.Subscribers("b"))
	}
}

func TestHubCallbackMayUnsubscribe(t *testing.T) {
	hub := NewHub()
	var sub Subscription
	calls := 0
	sub = hub.Subscribe("a", func(Event) {
		calls++
		sub.Unsubscribe()
	})

	hub.Deliver("a", Event{Type: SignedOut})
	hub.Deliver("a", Event{Type: SignedOut})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe("a", func(Event) {})
			sub.Unsubscribe()
		}()
		go func() {
			defer wg.Done()
			hub.Deliver("a", Event{Type: InitialSession})
		}()
	}
	wg.Wait()
	if n := hub.Subscribers("a"); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}
