// Package scheduler runs the daily sweep that promotes deliveries due
// today from ACTIVE to WAITING_PAYMENT, handing them over to the
// payment flow.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/recurshop/recurshop/internal/clock"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	obsmetrics "github.com/recurshop/recurshop/internal/observability/metrics"
	"github.com/recurshop/recurshop/internal/schedule"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

// Config controls the sweep trigger and fan-out.
type Config struct {
	// Cron is a standard 5-field cron expression evaluated in UTC.
	Cron string
	// Concurrency bounds how many deliveries transition in parallel.
	Concurrency int
	// Timeout bounds a single sweep run.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Cron:        "0 6 * * *",
		Concurrency: 10,
		Timeout:     5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Cron == "" {
		c.Cron = defaults.Cron
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	DeliverySvc deliverydomain.Service
	Config      Config              `optional:"true"`
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	deliverySvc deliverydomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.DeliverySvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		deliverySvc: p.DeliverySvc,
		metrics:     p.Metrics,
	}, nil
}

// RunOnce sweeps every active delivery due today. Failures on single
// deliveries are logged and counted, they do not abort the sweep.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	today := schedule.FormatDate(s.clock.Now())
	log := s.log.With(zap.String("sweep_date", today))

	deliveries, err := s.deliverySvc.ListDueOn(ctx, today)
	if err != nil {
		log.Error("sweep listing failed", zap.Error(err))
		return err
	}
	if len(deliveries) == 0 {
		log.Info("sweep done, nothing due")
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, d := range deliveries {
		delivery := d
		g.Go(func() error {
			if err := s.deliverySvc.MarkWaitingPayment(ctx, delivery.ID); err != nil {
				log.Error("sweep transition failed",
					zap.String("delivery_id", delivery.ID),
					zap.Error(err),
				)
				if s.metrics != nil {
					s.metrics.SweepFailures.Inc()
				}
				return nil
			}
			if s.metrics != nil {
				s.metrics.SweepTransitions.Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("sweep done", zap.Int("deliveries", len(deliveries)))
	return nil
}
