// Package planning projects a customer's upcoming deliveries and
// recurring subscription cycles into a per-address calendar view.
package planning

import (
	"context"
	"time"

	"github.com/recurshop/recurshop/internal/clock"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"github.com/recurshop/recurshop/internal/schedule"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlannedSubscription is a subscription occurrence in the calendar.
// Only the occurrence backed by a persisted delivery is editable;
// projected future cycles are read-only.
type PlannedSubscription struct {
	subscriptiondomain.Subscription
	IsEditable bool `json:"is_editable"`
}

// Entry groups everything happening on one date for one address.
type Entry struct {
	Delivery      *deliverydomain.Delivery `json:"delivery,omitempty"`
	Subscriptions []PlannedSubscription    `json:"subscriptions"`
}

// Planning maps shipping address id to date to entry. Dates marshal in
// lexicographic order, which for the canonical YYYY-MM-DD format is
// chronological.
type Planning map[string]map[string]*Entry

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	SubscriptionRepo subscriptiondomain.Repository
	DeliveryRepo     deliverydomain.Repository
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	clock            clock.Clock
	subscriptionRepo subscriptiondomain.Repository
	deliveryRepo     deliverydomain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("planning.service"),
		clock:            p.Clock,
		subscriptionRepo: p.SubscriptionRepo,
		deliveryRepo:     p.DeliveryRepo,
	}
}

// Build assembles the planning view for a customer. Each persisted
// delivery anchors an editable entry on its date; every attached
// subscription is then projected forward cycle by cycle until the end
// of the month monthsToShow months out.
func (s *Service) Build(ctx context.Context, customerID string, monthsToShow int) (Planning, error) {
	deliveries, err := s.deliveryRepo.FindActiveByCustomer(ctx, s.db, customerID, nil)
	if err != nil {
		return nil, err
	}
	subscriptions, err := s.subscriptionRepo.FindActiveByCustomer(ctx, s.db, customerID, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]subscriptiondomain.Subscription, len(subscriptions))
	for _, sub := range subscriptions {
		byID[sub.ID] = sub
	}

	today := schedule.StartOfDay(s.clock.Now())
	horizon := monthHorizon(today, monthsToShow)

	planning := make(Planning)
	for i := range deliveries {
		delivery := deliveries[i]
		byDate := planning[delivery.ShippingAddressID]
		if byDate == nil {
			byDate = make(map[string]*Entry)
			planning[delivery.ShippingAddressID] = byDate
		}

		entry := byDate[delivery.NextOrderDate]
		if entry == nil {
			entry = &Entry{Subscriptions: []PlannedSubscription{}}
			byDate[delivery.NextOrderDate] = entry
		}
		entry.Delivery = &deliveries[i]

		orderDate, err := schedule.ParseDate(delivery.NextOrderDate)
		if err != nil {
			return nil, err
		}

		for _, subscriptionID := range delivery.SubscriptionIDs() {
			subscription, ok := byID[subscriptionID]
			if !ok {
				continue
			}
			entry.Subscriptions = append(entry.Subscriptions, PlannedSubscription{
				Subscription: subscription,
				IsEditable:   true,
			})
			if err := projectCycles(byDate, subscription, orderDate, horizon); err != nil {
				return nil, err
			}
		}
	}
	return planning, nil
}

// projectCycles appends read-only occurrences of the subscription to
// every cycle date strictly before the horizon.
func projectCycles(byDate map[string]*Entry, subscription subscriptiondomain.Subscription, from time.Time, horizon time.Time) error {
	next, err := schedule.NextOccurrence(from, subscription.Schedule)
	if err != nil {
		return err
	}
	for next.Before(horizon) {
		key := schedule.FormatDate(next)
		entry := byDate[key]
		if entry == nil {
			entry = &Entry{Subscriptions: []PlannedSubscription{}}
			byDate[key] = entry
		}
		entry.Subscriptions = append(entry.Subscriptions, PlannedSubscription{
			Subscription: subscription,
			IsEditable:   false,
		})
		next, err = schedule.NextOccurrence(next, subscription.Schedule)
		if err != nil {
			return err
		}
	}
	return nil
}

// monthHorizon is the first day after the last fully shown month:
// months ahead of today's month, inclusive of that whole month.
func monthHorizon(today time.Time, months int) time.Time {
	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, months+1, 0)
}

var Module = fx.Module("planning.service",
	fx.Provide(New),
)
