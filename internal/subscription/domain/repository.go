package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists subscriptions. Methods take the database handle
// explicitly so callers can pass an open transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Subscription, error)
	// FindByIDs fetches a batch, silently skipping missing ids.
	FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]Subscription, error)
	List(ctx context.Context, db *gorm.DB, customerID string) ([]Subscription, error)
	// FindActiveByCustomer returns active subscriptions with a defined
	// next order date, ordered by next_order_date ascending, optionally
	// filtered by shipping address.
	FindActiveByCustomer(ctx context.Context, db *gorm.DB, customerID string, shippingAddressID *string) ([]Subscription, error)
	// MarkScheduled records the delivery attachment for the current
	// cycle: next_order_date is fixed and scheduled set true.
	MarkScheduled(ctx context.Context, db *gorm.DB, id string, nextOrderDate string) error
	// AdvanceCycle moves the subscription to its next cycle after its
	// delivery was processed; scheduled is cleared to re-trigger the
	// matching engine.
	AdvanceCycle(ctx context.Context, db *gorm.DB, id string, nextOrderDate, previousOrderDate string) error
}
