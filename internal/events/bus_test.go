// internal/events/bus_test.go
package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	var got []uint64

	for i := 0; i < 2; i++ {
		bus.Subscribe(func(ev RoyaltyChanged) {
			mu.Lock()
			got = append(got, ev.AssetID)
			mu.Unlock()
			wg.Done()
		})
	}

	bus.Publish(RoyaltyChanged{AssetID: 42})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{42, 42}, got)
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	delivered := make(chan uint64, 1)
	cancel := bus.Subscribe(func(ev RoyaltyChanged) {
		delivered <- ev.AssetID
	})
	cancel()

	bus.Publish(RoyaltyChanged{AssetID: 7})

	select {
	case id := <-delivered:
		t.Fatalf("cancelled subscriber still received event for asset %d", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(RoyaltyChanged{AssetID: 1})
	})
}
