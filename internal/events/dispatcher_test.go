package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/recurshop/recurshop/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(workers, maxAttempts int) *Dispatcher {
	return NewDispatcher(Params{
		Log: zap.NewNop(),
		Cfg: config.Config{EventWorkers: workers, EventMaxAttempts: maxAttempts},
	})
}

func TestDispatchDeliversToHandlers(t *testing.T) {
	d := newTestDispatcher(2, 1)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	d.OnSubscriptionWritten(func(ctx context.Context, evt SubscriptionWritten) error {
		mu.Lock()
		got = append(got, evt.SubscriptionID)
		if len(got) == 2 {
			close(done)
		}
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.PublishSubscriptionWritten(SubscriptionWritten{SubscriptionID: "sub_001"})
	d.PublishSubscriptionWritten(SubscriptionWritten{SubscriptionID: "sub_002"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers not invoked in time")
	}

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"sub_001", "sub_002"}, got)
}

func TestFailedHandlerIsRedelivered(t *testing.T) {
	d := newTestDispatcher(1, 3)

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	d.OnDeliveryWritten(func(ctx context.Context, evt DeliveryWritten) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient store error")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.PublishDeliveryWritten(DeliveryWritten{DeliveryID: "del_001"})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event not redelivered in time")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, attempts)
}

func TestRedeliveryStopsAfterMaxAttempts(t *testing.T) {
	d := newTestDispatcher(1, 2)

	var mu sync.Mutex
	attempts := 0
	d.OnDeliveryWritten(func(ctx context.Context, evt DeliveryWritten) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("permanent failure")
	})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	d.PublishDeliveryWritten(DeliveryWritten{DeliveryID: "del_001"})

	time.Sleep(time.Second)
	d.Drain()
	cancel()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, attempts)
}
