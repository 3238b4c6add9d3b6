// Package events is the in-process event boundary between aggregate
// writes and the scheduling engine. It replaces the document-write
// triggers of a hosted platform with an explicit dispatcher: publishers
// enqueue before/after snapshots, a worker pool delivers them to
// handlers, and failed deliveries are retried with backoff. Delivery is
// at-least-once; handlers must be idempotent.
package events

import (
	"context"

	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
)

// SubscriptionWritten carries a subscription document write. Before is
// nil for a create, After is nil for a delete.
type SubscriptionWritten struct {
	SubscriptionID string
	Before         *subscriptiondomain.Subscription
	After          *subscriptiondomain.Subscription
}

// DeliveryWritten carries a delivery document write (after-state only).
type DeliveryWritten struct {
	DeliveryID string
	After      *deliverydomain.Delivery
}

type SubscriptionHandler func(ctx context.Context, evt SubscriptionWritten) error

type DeliveryHandler func(ctx context.Context, evt DeliveryWritten) error
