// Package matching implements the subscription-to-delivery scheduling
// engine. Whenever a subscription is written it decides which delivery
// the subscription attaches to, creating one when none qualifies, and
// after a delivery is processed it advances every settled subscription
// to its next cycle.
//
// The engine is re-enterable: deliveries are keyed deterministically by
// (customer, address, date) and attachment is an idempotent
// read-modify-write, so redelivered events converge instead of
// duplicating state.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/recurshop/recurshop/internal/clock"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"github.com/recurshop/recurshop/internal/events"
	obsmetrics "github.com/recurshop/recurshop/internal/observability/metrics"
	"github.com/recurshop/recurshop/internal/schedule"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	SubscriptionRepo subscriptiondomain.Repository
	DeliveryRepo     deliverydomain.Repository
	Dispatcher       *events.Dispatcher
	Metrics          *obsmetrics.Metrics `optional:"true"`
}

type Engine struct {
	db               *gorm.DB
	log              *zap.Logger
	clock            clock.Clock
	subscriptionRepo subscriptiondomain.Repository
	deliveryRepo     deliverydomain.Repository
	dispatcher       *events.Dispatcher
	metrics          *obsmetrics.Metrics
}

func New(p Params) *Engine {
	return &Engine{
		db:               p.DB,
		log:              p.Log.Named("matching"),
		clock:            p.Clock,
		subscriptionRepo: p.SubscriptionRepo,
		deliveryRepo:     p.DeliveryRepo,
		dispatcher:       p.Dispatcher,
		metrics:          p.Metrics,
	}
}

// HandleSubscriptionWritten reacts to a subscription create, update or
// delete. Store errors propagate so the dispatcher redelivers the event.
func (e *Engine) HandleSubscriptionWritten(ctx context.Context, evt events.SubscriptionWritten) error {
	if evt.After == nil {
		if evt.Before != nil {
			return e.detachFromActiveDeliveries(ctx, evt.SubscriptionID, *evt.Before)
		}
		return nil
	}

	subscription := *evt.After

	if subscription.Status == subscriptiondomain.SubscriptionStatusExpired ||
		subscription.Status == subscriptiondomain.SubscriptionStatusPaused {
		return e.detachFromActiveDeliveries(ctx, evt.SubscriptionID, subscription)
	}

	if !needsScheduling(evt.Before, evt.After) {
		return nil
	}

	return e.scheduleSubscription(ctx, evt.SubscriptionID, subscription)
}

// needsScheduling is true for a brand-new subscription or one whose
// next order date changed.
func needsScheduling(before, after *subscriptiondomain.Subscription) bool {
	if before == nil {
		return true
	}
	return !equalDate(before.NextOrderDate, after.NextOrderDate)
}

func equalDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (e *Engine) scheduleSubscription(ctx context.Context, subscriptionID string, subscription subscriptiondomain.Subscription) error {
	today := schedule.StartOfDay(e.clock.Now())

	if subscription.NextOrderDate != nil {
		requested, err := schedule.ParseDate(*subscription.NextOrderDate)
		if err != nil {
			return err
		}
		if requested.Before(today) {
			// Known gap: no alerting is wired for stale dates, the
			// subscription stays unscheduled until corrected.
			e.log.Warn("requested order date is in the past, skipping",
				zap.String("subscription_id", subscriptionID),
				zap.String("next_order_date", *subscription.NextOrderDate),
			)
			e.count(func(m *obsmetrics.Metrics) { m.PastDateSkips.Inc() })
			e.outcome("skipped_past_date")
			return nil
		}
	}

	formattedNextOrderDate := schedule.FormatDate(today)
	if subscription.NextOrderDate != nil {
		formattedNextOrderDate = *subscription.NextOrderDate
	}

	addressID := subscription.AddressID()
	candidates, err := e.deliveryRepo.FindActiveByCustomer(ctx, e.db, subscription.CustomerID, &addressID)
	if err != nil {
		return err
	}

	// Case A: an explicit date wins, and with no candidates there is
	// nothing to batch with.
	if len(candidates) == 0 || subscription.NextOrderDate != nil {
		if err := e.detachFromActiveDeliveries(ctx, subscriptionID, subscription); err != nil {
			return err
		}
		return e.attachAndMark(ctx, subscriptionID, subscription, formattedNextOrderDate)
	}

	// Case B: batch with the earliest candidate whose attached
	// subscriptions share this one's cadence.
	candidate, err := e.findEarliestSuitableDelivery(ctx, candidates, subscription.Schedule)
	if err != nil {
		return err
	}

	orderDate, err := schedule.ParseDate(candidate.NextOrderDate)
	if err != nil {
		return err
	}
	cutoffDate, err := schedule.PreviousOccurrence(orderDate, subscription.Schedule)
	if err != nil {
		return err
	}

	if today.Before(cutoffDate) {
		// The candidate is more than one cycle away; walk the schedule
		// back toward today to find the nearest reachable date.
		suitable, err := earliestSuitableDate(orderDate, subscription.Schedule, today)
		if err != nil {
			return err
		}
		return e.attachAndMark(ctx, subscriptionID, subscription, schedule.FormatDate(suitable))
	}

	return e.attachAndMark(ctx, subscriptionID, subscription, candidate.NextOrderDate)
}

// findEarliestSuitableDelivery picks the first candidate (ascending by
// date) carrying a subscription with the exact same schedule (weekly)
// or at least the same unit. Without a match the earliest candidate
// wins. The heuristic batches same-cadence subscriptions together and
// is preserved as observed.
func (e *Engine) findEarliestSuitableDelivery(ctx context.Context, candidates []deliverydomain.Delivery, scheduleExpr string) (deliverydomain.Delivery, error) {
	parsed, err := schedule.Parse(scheduleExpr)
	if err != nil {
		return deliverydomain.Delivery{}, err
	}

	for _, candidate := range candidates {
		attached, err := e.subscriptionRepo.FindByIDs(ctx, e.db, candidate.SubscriptionIDs())
		if err != nil {
			return deliverydomain.Delivery{}, err
		}

		if (parsed.Unit == schedule.UnitWeek && hasExactSchedule(attached, scheduleExpr)) ||
			hasSameUnitSchedule(attached, parsed) {
			return candidate, nil
		}
	}
	return candidates[0], nil
}

func hasExactSchedule(subscriptions []subscriptiondomain.Subscription, scheduleExpr string) bool {
	for _, s := range subscriptions {
		if s.Schedule == scheduleExpr {
			return true
		}
	}
	return false
}

func hasSameUnitSchedule(subscriptions []subscriptiondomain.Subscription, parsed schedule.Schedule) bool {
	for _, s := range subscriptions {
		if parsed.SameUnit(s.Schedule) {
			return true
		}
	}
	return false
}

// earliestSuitableDate walks backward from the registered delivery date
// until on or before today, then steps forward once unless it landed
// exactly on today.
func earliestSuitableDate(registered time.Time, scheduleExpr string, today time.Time) (time.Time, error) {
	candidate := registered
	for {
		prev, err := schedule.PreviousOccurrence(candidate, scheduleExpr)
		if err != nil {
			return time.Time{}, err
		}
		candidate = prev
		if !candidate.After(today) {
			break
		}
	}
	if schedule.SameDay(candidate, today) {
		return candidate, nil
	}
	return schedule.NextOccurrence(candidate, scheduleExpr)
}

// attachAndMark persists the attachment first, then fixes the
// subscription's scheduling fields. The two writes are not atomic; a
// crash in between is healed by event redelivery re-running the
// idempotent attach.
func (e *Engine) attachAndMark(ctx context.Context, subscriptionID string, subscription subscriptiondomain.Subscription, targetDate string) error {
	if err := e.persistToDelivery(ctx, subscriptionID, subscription, targetDate); err != nil {
		return err
	}
	if err := e.subscriptionRepo.MarkScheduled(ctx, e.db, subscriptionID, targetDate); err != nil {
		return err
	}

	e.count(func(m *obsmetrics.Metrics) { m.Attachments.Inc() })
	e.outcome("scheduled")
	e.log.Info("subscription scheduled",
		zap.String("subscription_id", subscriptionID),
		zap.String("customer_id", subscription.CustomerID),
		zap.String("order_date", targetDate),
	)
	return nil
}

func (e *Engine) persistToDelivery(ctx context.Context, subscriptionID string, subscription subscriptiondomain.Subscription, targetDate string) error {
	delivery := deliverydomain.Delivery{
		CustomerID:        subscription.CustomerID,
		ShippingAddressID: subscription.AddressID(),
		NextOrderDate:     targetDate,
		Status:            deliverydomain.DeliveryStatusActive,
		PaymentInfo: []deliverydomain.PaymentInfo{{
			PaymentCode:     subscription.PaymentCode,
			SubscriptionIDs: []string{subscriptionID},
		}},
	}

	created, err := e.deliveryRepo.CreateIfNotExists(ctx, e.db, &delivery)
	if err != nil {
		return err
	}
	if created {
		e.count(func(m *obsmetrics.Metrics) { m.DeliveriesCreated.Inc() })
		return nil
	}
	return e.deliveryRepo.AddSubscription(ctx, e.db, delivery.ID, subscriptionID, subscription.PaymentCode)
}

// detachFromActiveDeliveries removes the subscription from every active
// delivery of its customer and address. Deliveries are kept even when
// they end up empty.
func (e *Engine) detachFromActiveDeliveries(ctx context.Context, subscriptionID string, subscription subscriptiondomain.Subscription) error {
	addressID := subscription.AddressID()
	deliveries, err := e.deliveryRepo.FindActiveByCustomer(ctx, e.db, subscription.CustomerID, &addressID)
	if err != nil {
		return err
	}

	for _, delivery := range deliveries {
		if !deliveryReferences(delivery, subscriptionID, subscription.PaymentCode) {
			continue
		}
		if err := e.deliveryRepo.RemoveSubscription(ctx, e.db, delivery.ID, subscriptionID); err != nil {
			return fmt.Errorf("detach subscription %s from delivery %s: %w", subscriptionID, delivery.ID, err)
		}
		e.count(func(m *obsmetrics.Metrics) { m.Detachments.Inc() })
	}
	e.outcome("detached")
	return nil
}

func deliveryReferences(delivery deliverydomain.Delivery, subscriptionID, paymentCode string) bool {
	for _, info := range delivery.PaymentInfo {
		if info.PaymentCode != paymentCode {
			continue
		}
		for _, id := range info.SubscriptionIDs {
			if id == subscriptionID {
				return true
			}
		}
	}
	return false
}

// HandleDeliveryWritten advances subscriptions once their delivery
// reaches processing. Payment-info entries carrying an error code are
// failed payment legs and are left untouched.
func (e *Engine) HandleDeliveryWritten(ctx context.Context, evt events.DeliveryWritten) error {
	if evt.After == nil || evt.After.Status != deliverydomain.DeliveryStatusProcessing {
		return nil
	}
	delivery := *evt.After

	orderDate, err := schedule.ParseDate(delivery.NextOrderDate)
	if err != nil {
		return err
	}

	for _, info := range delivery.PaymentInfo {
		if info.ErrorCode != "" {
			continue
		}
		for _, subscriptionID := range info.SubscriptionIDs {
			if err := e.advanceSubscription(ctx, subscriptionID, orderDate, delivery.NextOrderDate); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) advanceSubscription(ctx context.Context, subscriptionID string, orderDate time.Time, orderDateStr string) error {
	subscription, err := e.subscriptionRepo.FindByID(ctx, e.db, subscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return nil
	}

	next, err := schedule.NextOccurrence(orderDate, subscription.Schedule)
	if err != nil {
		return err
	}
	nextStr := schedule.FormatDate(next)

	if err := e.subscriptionRepo.AdvanceCycle(ctx, e.db, subscriptionID, nextStr, orderDateStr); err != nil {
		return err
	}
	e.count(func(m *obsmetrics.Metrics) { m.CyclesAdvanced.Inc() })

	// Clearing the scheduled flag re-enters the scheduling flow, which
	// attaches the subscription to the delivery of its next cycle.
	after := *subscription
	after.NextOrderDate = &nextStr
	after.PreviousOrderDate = &orderDateStr
	after.Scheduled = false
	e.dispatcher.PublishSubscriptionWritten(events.SubscriptionWritten{
		SubscriptionID: subscriptionID,
		Before:         subscription,
		After:          &after,
	})
	return nil
}

func (e *Engine) count(fn func(m *obsmetrics.Metrics)) {
	if e.metrics != nil {
		fn(e.metrics)
	}
}

func (e *Engine) outcome(name string) {
	if e.metrics != nil {
		e.metrics.SchedulingRuns.WithLabelValues(name).Inc()
	}
}

// Module wires the engine into the event dispatcher.
var Module = fx.Module("matching",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(d *events.Dispatcher, e *Engine) {
	d.OnSubscriptionWritten(e.HandleSubscriptionWritten)
	d.OnDeliveryWritten(e.HandleDeliveryWritten)
}
