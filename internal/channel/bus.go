package channel

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of one dispatched event.
type Handler func(data json.RawMessage)

// Subscription identifies one registered handler and allows cancelling it
// without touching handlers registered for the same event.
type Subscription struct {
	bus   *bus
	event string
	id    uint64
}

// Cancel removes the handler. Safe to call more than once or after the
// channel is closed; takes effect before the next dispatched event.
func (s *Subscription) Cancel() {
	s.bus.cancel(s.event, s.id)
}

// bus is an ordered multi-subscriber registry keyed by event name. Handlers
// for one event run in registration order, on the dispatching goroutine.
type bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]busEntry
}

type busEntry struct {
	id      uint64
	handler Handler
}

func newBus() *bus {
	return &bus{subs: make(map[string][]busEntry)}
}

func (b *bus) subscribe(event string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[event] = append(b.subs[event], busEntry{id: b.nextID, handler: h})
	return &Subscription{bus: b, event: event, id: b.nextID}
}

func (b *bus) cancel(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.subs[event]
	for i, e := range entries {
		if e.id == id {
			b.subs[event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

func (b *bus) dispatch(event string, data json.RawMessage) {
	b.mu.Lock()
	entries := b.subs[event]
	handlers := make([]Handler, len(entries))
	for i, e := range entries {
		handlers[i] = e.handler
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}
