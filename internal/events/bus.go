// internal/events/bus.go
package events

import "sync"

// RoyaltyChanged signals that the royalty balance for an asset id may have
// moved on the ledger. Delivery is at-least-once; subscribers must be
// duplicate-tolerant.
type RoyaltyChanged struct {
	AssetID uint64 `json:"asset_id"`
}

// Bus is an in-process publish/subscribe channel for royalty notifications,
// injected wherever cross-view signaling is needed instead of ambient
// global state.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(RoyaltyChanged)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(RoyaltyChanged))}
}

// Subscribe registers a handler and returns its cancel function. Handlers
// run on their own goroutine per event so a slow subscriber cannot stall
// the publisher.
func (b *Bus) Subscribe(fn func(RoyaltyChanged)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

func (b *Bus) Publish(ev RoyaltyChanged) {
	b.mu.RLock()
	handlers := make([]func(RoyaltyChanged), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		go fn(ev)
	}
}
