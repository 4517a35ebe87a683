package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus used in tests. Publish delivers to
// handlers synchronously, matching the sequential-delivery contract.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string][]*memorySubscription
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySubscription)}
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &memorySubscription{bus: b, channel: channel, handler: h}
	b.subs[channel] = append(b.subs[channel], sub)
	return sub, nil
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, n Notification) error {
	b.mu.Lock()
	subs := make([]*memorySubscription, len(b.subs[channel]))
	copy(subs, b.subs[channel])
	b.mu.Unlock()

	for _, sub := range subs {
		sub.handler(ctx, n)
	}
	return nil
}

type memorySubscription struct {
	bus     *MemoryBus
	channel string
	handler Handler
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	subs := s.bus.subs[s.channel]
	for i, sub := range subs {
		if sub == s {
			s.bus.subs[s.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
