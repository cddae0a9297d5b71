// Package pubsub provides a minimal in-process publish/subscribe broker.
//
// Subscriptions are context-scoped: when the subscriber's context is
// cancelled, its channel is closed and removed from the broker. Publish
// never blocks; slow subscribers drop events once their buffer fills.
package pubsub

import (
	"context"
	"sync"
)

// Event wraps a published payload.
type Event[T any] struct {
	Payload T
}

// subscriberBuffer is the per-subscriber channel capacity. Events beyond
// this are dropped for that subscriber rather than blocking the publisher.
const subscriberBuffer = 64

// Broker fans out published events to all active subscribers.
type Broker[T any] struct {
	mu   sync.Mutex
	subs map[chan Event[T]]struct{}
	done bool
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]struct{})}
}

// Subscribe registers a new subscriber and returns its event channel.
// The channel is closed when ctx is cancelled or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], subscriberBuffer)

	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers payload to every subscriber. Subscribers whose buffers
// are full miss the event.
func (b *Broker[T]) Publish(payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- Event[T]{Payload: payload}:
		default:
		}
	}
}

// Shutdown closes all subscriber channels. Publish and Subscribe become
// no-ops afterwards. Safe to call multiple times.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.done = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
