// Package metrics exposes prometheus instruments for the scheduling
// engine and the daily sweep.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	SchedulingRuns    *prometheus.CounterVec
	DeliveriesCreated prometheus.Counter
	Attachments       prometheus.Counter
	Detachments       prometheus.Counter
	CyclesAdvanced    prometheus.Counter
	PastDateSkips     prometheus.Counter
	SweepTransitions  prometheus.Counter
	SweepFailures     prometheus.Counter
}

// New registers the scheduling instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SchedulingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recurshop_scheduling_runs_total",
			Help: "Matching engine invocations by outcome.",
		}, []string{"outcome"}),
		DeliveriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_deliveries_created_total",
			Help: "Deliveries created by the matching engine.",
		}),
		Attachments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_subscription_attachments_total",
			Help: "Subscription attachments to deliveries.",
		}),
		Detachments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_subscription_detachments_total",
			Help: "Subscription detachments from deliveries.",
		}),
		CyclesAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_subscription_cycles_advanced_total",
			Help: "Subscriptions advanced after a processed delivery.",
		}),
		PastDateSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_past_date_skips_total",
			Help: "Scheduling requests skipped because the requested date is in the past.",
		}),
		SweepTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_sweep_transitions_total",
			Help: "Deliveries promoted to waiting-payment by the daily sweep.",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurshop_sweep_failures_total",
			Help: "Delivery promotions that failed during the daily sweep.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.SchedulingRuns,
			m.DeliveriesCreated,
			m.Attachments,
			m.Detachments,
			m.CyclesAdvanced,
			m.PastDateSkips,
			m.SweepTransitions,
			m.SweepFailures,
		)
	}
	return m
}

func provide() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// Module wires the prometheus instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(provide),
)
