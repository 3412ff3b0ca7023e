// Package session decouples the rest of the application from the auth
// backend. Whatever owns the session lifecycle publishes changes here;
// interested parts subscribe without ever seeing the backend SDK.
package session

import "sync"

// Change describes a session transition for one user.
type Change struct {
	UserID      string
	HouseholdID string
	SignedIn    bool
}

// Handler receives session changes. Handlers run synchronously on the
// publishing goroutine and must not block.
type Handler func(Change)

// Notifier is the subscription port.
type Notifier interface {
	// Subscribe registers a handler and returns a function that removes it.
	Subscribe(h Handler) (unsubscribe func())
}

// Publisher is the side held by whoever drives the auth lifecycle.
type Publisher interface {
	Publish(c Change)
}

// Bus is an in-memory Notifier/Publisher fan-out.
type Bus struct {
	mu       sync.Mutex
	next     int
	handlers map[int]Handler
}

var (
	_ Notifier  = (*Bus)(nil)
	_ Publisher = (*Bus)(nil)
)

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(c)
	}
}
