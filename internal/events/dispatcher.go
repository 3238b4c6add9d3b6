package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recurshop/recurshop/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const queueDepth = 256

type envelope struct {
	id      string
	attempt int
	event   any
}

// Dispatcher fans aggregate write events out to registered handlers
// with bounded retries. Handler invocations for distinct events run
// concurrently; ordering between events is not guaranteed.
type Dispatcher struct {
	log         *zap.Logger
	workers     int
	maxAttempts int

	queue chan envelope

	mu                   sync.RWMutex
	subscriptionHandlers []SubscriptionHandler
	deliveryHandlers     []DeliveryHandler

	wg      sync.WaitGroup
	stopped chan struct{}
}

type Params struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config
}

func NewDispatcher(p Params) *Dispatcher {
	workers := p.Cfg.EventWorkers
	if workers <= 0 {
		workers = 4
	}
	maxAttempts := p.Cfg.EventMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		log:         p.Log.Named("events"),
		workers:     workers,
		maxAttempts: maxAttempts,
		queue:       make(chan envelope, queueDepth),
		stopped:     make(chan struct{}),
	}
}

// OnSubscriptionWritten registers a handler for subscription writes.
func (d *Dispatcher) OnSubscriptionWritten(h SubscriptionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscriptionHandlers = append(d.subscriptionHandlers, h)
}

// OnDeliveryWritten registers a handler for delivery writes.
func (d *Dispatcher) OnDeliveryWritten(h DeliveryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveryHandlers = append(d.deliveryHandlers, h)
}

// PublishSubscriptionWritten enqueues a subscription write event.
func (d *Dispatcher) PublishSubscriptionWritten(evt SubscriptionWritten) {
	d.publish(envelope{id: uuid.NewString(), attempt: 1, event: evt})
}

// PublishDeliveryWritten enqueues a delivery write event.
func (d *Dispatcher) PublishDeliveryWritten(evt DeliveryWritten) {
	d.publish(envelope{id: uuid.NewString(), attempt: 1, event: evt})
}

func (d *Dispatcher) publish(env envelope) {
	select {
	case <-d.stopped:
		d.log.Warn("event dropped, dispatcher stopped", zap.String("event_id", env.id))
	case d.queue <- env:
	}
}

// Run consumes the queue until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case env := <-d.queue:
					d.deliver(ctx, env)
				}
			}
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, env envelope) {
	err := d.invoke(ctx, env)
	if err == nil {
		return
	}

	log := d.log.With(
		zap.String("event_id", env.id),
		zap.Int("attempt", env.attempt),
		zap.Error(err),
	)
	if env.attempt >= d.maxAttempts {
		log.Error("event handler failed, retries exhausted")
		return
	}
	log.Warn("event handler failed, scheduling redelivery")

	backoff := time.Duration(env.attempt) * 100 * time.Millisecond
	env.attempt++
	d.wg.Add(1)
	time.AfterFunc(backoff, func() {
		defer d.wg.Done()
		select {
		case <-ctx.Done():
		default:
			d.publish(env)
		}
	})
}

func (d *Dispatcher) invoke(ctx context.Context, env envelope) error {
	d.mu.RLock()
	subs := d.subscriptionHandlers
	dels := d.deliveryHandlers
	d.mu.RUnlock()

	switch evt := env.event.(type) {
	case SubscriptionWritten:
		for _, h := range subs {
			if err := h(ctx, evt); err != nil {
				return err
			}
		}
	case DeliveryWritten:
		for _, h := range dels {
			if err := h(ctx, evt); err != nil {
				return err
			}
		}
	}
	return nil
}

// Drain waits for pending redeliveries; used by tests.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

// Module wires the dispatcher and starts its worker pool.
var Module = fx.Module("events",
	fx.Provide(NewDispatcher),
	fx.Invoke(start),
)

func start(lc fx.Lifecycle, d *Dispatcher) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				d.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(d.stopped)
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}
