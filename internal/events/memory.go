package events

import (
	"context"
	"sync"
)

// memoryBus delivers events in-process. Suitable for single-node
// deployments and tests.
type memoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]Handler
	nextID int
	closed bool
}

// NewMemoryBus returns a bus that delivers events within the process.
func NewMemoryBus() Bus {
	return &memoryBus{subs: make(map[string]map[int]Handler)}
}

func (b *memoryBus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Collection]))
	for _, h := range b.subs[ev.Collection] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *memoryBus) Subscribe(collection string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[collection][id] = h

	return &memorySub{bus: b, collection: collection, id: id}, nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[int]Handler)
	b.closed = true
	return nil
}

type memorySub struct {
	bus        *memoryBus
	collection string
	id         int
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs[s.collection], s.id)
	return nil
}
