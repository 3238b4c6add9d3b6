package repository

import (
	"context"

	subscriptiondomain "github.com/recurshop/recurshop/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, customer_id, product_id, shipping_address_id, payment_code,
	 quantity, schedule, status, scheduled, previous_order_date, next_order_date,
	 created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, customer_id, product_id, shipping_address_id, payment_code, quantity,
			schedule, status, scheduled, previous_order_date, next_order_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.CustomerID,
		subscription.ProductID,
		subscription.ShippingAddressID,
		subscription.PaymentCode,
		subscription.Quantity,
		subscription.Schedule,
		subscription.Status,
		subscription.Scheduled,
		subscription.PreviousOrderDate,
		subscription.NextOrderDate,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET
			customer_id = ?, product_id = ?, shipping_address_id = ?, payment_code = ?,
			quantity = ?, schedule = ?, status = ?, scheduled = ?,
			previous_order_date = ?, next_order_date = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.CustomerID,
		subscription.ProductID,
		subscription.ShippingAddressID,
		subscription.PaymentCode,
		subscription.Quantity,
		subscription.Schedule,
		subscription.Status,
		subscription.Scheduled,
		subscription.PreviousOrderDate,
		subscription.NextOrderDate,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == "" {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]subscriptiondomain.Subscription, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id IN ?`,
		ids,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, customerID string) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE customer_id = ? ORDER BY created_at ASC`,
		customerID,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) FindActiveByCustomer(ctx context.Context, db *gorm.DB, customerID string, shippingAddressID *string) ([]subscriptiondomain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		 WHERE customer_id = ? AND status = ? AND next_order_date IS NOT NULL`
	args := []any{customerID, subscriptiondomain.SubscriptionStatusActive}
	if shippingAddressID != nil {
		query += ` AND shipping_address_id = ?`
		args = append(args, *shippingAddressID)
	}
	query += ` ORDER BY next_order_date ASC`

	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(query, args...).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) MarkScheduled(ctx context.Context, db *gorm.DB, id string, nextOrderDate string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET next_order_date = ?, scheduled = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		nextOrderDate,
		true,
		id,
	).Error
}

func (r *repo) AdvanceCycle(ctx context.Context, db *gorm.DB, id string, nextOrderDate, previousOrderDate string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET next_order_date = ?, previous_order_date = ?, scheduled = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		nextOrderDate,
		previousOrderDate,
		false,
		id,
	).Error
}
