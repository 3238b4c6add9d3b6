package repository

import (
	"context"
	"time"

	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() deliverydomain.Repository {
	return &repo{}
}

const deliveryColumns = `id, customer_id, shipping_address_id, next_order_date, status,
	 payment_info, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*deliverydomain.Delivery, error) {
	var delivery deliverydomain.Delivery
	err := db.WithContext(ctx).Raw(
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`,
		id,
	).Scan(&delivery).Error
	if err != nil {
		return nil, err
	}
	if delivery.ID == "" {
		return nil, nil
	}
	return &delivery, nil
}

func (r *repo) findByIDForUpdate(ctx context.Context, db *gorm.DB, id string) (*deliverydomain.Delivery, error) {
	var delivery deliverydomain.Delivery
	err := db.WithContext(ctx).Raw(
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&delivery).Error
	if err != nil {
		return nil, err
	}
	if delivery.ID == "" {
		return nil, nil
	}
	return &delivery, nil
}

func (r *repo) FindActiveByCustomer(ctx context.Context, db *gorm.DB, customerID string, shippingAddressID *string) ([]deliverydomain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries
		 WHERE customer_id = ? AND status = ? AND next_order_date IS NOT NULL`
	args := []any{customerID, deliverydomain.DeliveryStatusActive}
	if shippingAddressID != nil {
		query += ` AND shipping_address_id = ?`
		args = append(args, *shippingAddressID)
	}
	query += ` ORDER BY next_order_date ASC`

	var deliveries []deliverydomain.Delivery
	err := db.WithContext(ctx).Raw(query, args...).Scan(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repo) FindActiveByDate(ctx context.Context, db *gorm.DB, date string) ([]deliverydomain.Delivery, error) {
	var deliveries []deliverydomain.Delivery
	err := db.WithContext(ctx).Raw(
		`SELECT `+deliveryColumns+` FROM deliveries
		 WHERE next_order_date = ? AND status = ?
		 ORDER BY id ASC`,
		date,
		deliverydomain.DeliveryStatusActive,
	).Scan(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repo) CreateIfNotExists(ctx context.Context, db *gorm.DB, delivery *deliverydomain.Delivery) (bool, error) {
	if delivery.ID == "" {
		delivery.ID = deliverydomain.DeliveryID(delivery.CustomerID, delivery.ShippingAddressID, delivery.NextOrderDate)
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.findByIDForUpdate(ctx, tx, delivery.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		now := time.Now().UTC()
		delivery.CreatedAt = now
		delivery.UpdatedAt = now

		if err := tx.Exec(
			`INSERT INTO deliveries (
				id, customer_id, shipping_address_id, next_order_date, status,
				payment_info, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			delivery.ID,
			delivery.CustomerID,
			delivery.ShippingAddressID,
			delivery.NextOrderDate,
			delivery.Status,
			delivery.PaymentInfo,
			delivery.CreatedAt,
			delivery.UpdatedAt,
		).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *repo) AddSubscription(ctx context.Context, db *gorm.DB, deliveryID, subscriptionID, paymentCode string) error {
	return r.mutatePaymentInfo(ctx, db, deliveryID, func(infos []deliverydomain.PaymentInfo) ([]deliverydomain.PaymentInfo, error) {
		return deliverydomain.AttachSubscription(infos, subscriptionID, paymentCode), nil
	})
}

func (r *repo) RemoveSubscription(ctx context.Context, db *gorm.DB, deliveryID, subscriptionID string) error {
	return r.mutatePaymentInfo(ctx, db, deliveryID, func(infos []deliverydomain.PaymentInfo) ([]deliverydomain.PaymentInfo, error) {
		return deliverydomain.DetachSubscription(infos, subscriptionID), nil
	})
}

func (r *repo) RecordPaymentFailure(ctx context.Context, db *gorm.DB, id, paymentCode, errorCode string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := r.mutatePaymentInfo(ctx, tx, id, func(infos []deliverydomain.PaymentInfo) ([]deliverydomain.PaymentInfo, error) {
			found := false
			for i := range infos {
				if infos[i].PaymentCode == paymentCode {
					infos[i].AttemptCount++
					infos[i].ErrorCode = errorCode
					found = true
				}
			}
			if !found {
				return nil, deliverydomain.ErrPaymentNotFound
			}
			return infos, nil
		})
		if err != nil {
			return err
		}
		return r.UpdateStatus(ctx, tx, id, deliverydomain.DeliveryStatusFailed)
	})
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id string, status deliverydomain.DeliveryStatus) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE deliveries SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return deliverydomain.ErrDeliveryNotFound
	}
	return nil
}

// mutatePaymentInfo runs the read-modify-write cycle for a delivery's
// payment info inside a transaction. A vanished row fails the whole
// operation so the surrounding handler invocation is retried.
func (r *repo) mutatePaymentInfo(ctx context.Context, db *gorm.DB, deliveryID string, mutate func([]deliverydomain.PaymentInfo) ([]deliverydomain.PaymentInfo, error)) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		delivery, err := r.findByIDForUpdate(ctx, tx, deliveryID)
		if err != nil {
			return err
		}
		if delivery == nil {
			return deliverydomain.ErrDeliveryNotFound
		}

		infos, err := mutate([]deliverydomain.PaymentInfo(delivery.PaymentInfo))
		if err != nil {
			return err
		}
		delivery.PaymentInfo = infos

		return tx.Exec(
			`UPDATE deliveries SET payment_info = ?, updated_at = ? WHERE id = ?`,
			delivery.PaymentInfo,
			time.Now().UTC(),
			deliveryID,
		).Error
	})
}
