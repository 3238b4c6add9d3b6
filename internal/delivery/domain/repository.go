package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrDeliveryNotFound = errors.New("delivery_not_found")
	ErrPaymentNotFound  = errors.New("payment_info_not_found")
)

// Repository persists deliveries. Every mutation of a delivery's
// payment info runs inside a transaction that re-reads the row, fails
// with ErrDeliveryNotFound if it disappeared, and writes the merged
// result; the caller's handler invocation is expected to be retried.
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Delivery, error)
	// FindActiveByCustomer returns active deliveries with a defined
	// next order date ordered ascending, optionally filtered by
	// shipping address.
	FindActiveByCustomer(ctx context.Context, db *gorm.DB, customerID string, shippingAddressID *string) ([]Delivery, error)
	// FindActiveByDate returns active deliveries due on the given
	// canonical date; used by the daily sweep.
	FindActiveByDate(ctx context.Context, db *gorm.DB, date string) ([]Delivery, error)
	// CreateIfNotExists inserts the delivery under its deterministic id
	// unless a row already exists. Returns true when created.
	CreateIfNotExists(ctx context.Context, db *gorm.DB, delivery *Delivery) (bool, error)
	// AddSubscription attaches the subscription to the delivery's
	// payment-info entry for paymentCode.
	AddSubscription(ctx context.Context, db *gorm.DB, deliveryID, subscriptionID, paymentCode string) error
	// RemoveSubscription detaches the subscription from every entry.
	RemoveSubscription(ctx context.Context, db *gorm.DB, deliveryID, subscriptionID string) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id string, status DeliveryStatus) error
	// RecordPaymentFailure increments the attempt count and sets the
	// error code on the entry matching paymentCode, and marks the
	// delivery failed.
	RecordPaymentFailure(ctx context.Context, db *gorm.DB, id, paymentCode, errorCode string) error
}
