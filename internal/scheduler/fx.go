package scheduler

import (
	"context"

	"github.com/recurshop/recurshop/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Cron:        cfg.SweepCron,
		Concurrency: cfg.SweepConcurrency,
	}
}

// NewScheduler hooks the sweep into the application lifecycle behind a
// cron trigger.
func NewScheduler(lc fx.Lifecycle, log *zap.Logger, sched *Scheduler) error {
	runner := cron.New()
	_, err := runner.AddFunc(sched.cfg.Cron, func() {
		if err := sched.RunOnce(context.Background()); err != nil {
			log.Error("daily sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runner.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := runner.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
