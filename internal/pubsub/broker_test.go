package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_PublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker[string]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := b.Subscribe(ctx)
	ch2 := b.Subscribe(ctx)

	b.Publish("hello")

	require.Equal(t, "hello", (<-ch1).Payload)
	require.Equal(t, "hello", (<-ch2).Payload)
}

func TestBroker_CancelledSubscriberIsRemoved(t *testing.T) {
	b := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx)
	cancel()

	// Channel closes once the cancellation is observed.
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed after context cancellation")
	}

	// Publishing after removal must not panic.
	b.Publish(42)
}

func TestBroker_ShutdownClosesSubscribers(t *testing.T) {
	b := NewBroker[int]()
	ch := b.Subscribe(context.Background())

	b.Shutdown()
	b.Shutdown() // idempotent

	_, ok := <-ch
	require.False(t, ok)

	// Subscribe after shutdown returns a closed channel.
	ch2 := b.Subscribe(context.Background())
	_, ok = <-ch2
	require.False(t, ok)
}

func TestBroker_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)

	// Overfill the buffer; Publish must never block.
	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(i)
	}

	// The first buffered events are intact.
	require.Equal(t, 0, (<-ch).Payload)
	require.Equal(t, 1, (<-ch).Payload)
}
