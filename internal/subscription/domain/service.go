package domain

import (
	"context"
	"errors"
)

type CreateSubscriptionRequest struct {
	CustomerID        string  `json:"customer_id"`
	ProductID         string  `json:"product_id"`
	ShippingAddressID *string `json:"shipping_address_id,omitempty"`
	PaymentCode       string  `json:"payment_code"`
	Quantity          int     `json:"quantity"`
	Schedule          string  `json:"schedule"`
	NextOrderDate     *string `json:"next_order_date,omitempty"`
}

type UpdateSubscriptionRequest struct {
	ID            string
	Quantity      *int    `json:"quantity,omitempty"`
	Schedule      *string `json:"schedule,omitempty"`
	PaymentCode   *string `json:"payment_code,omitempty"`
	NextOrderDate *string `json:"next_order_date,omitempty"`
}

type ListSubscriptionRequest struct {
	CustomerID string
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (Subscription, error)
	Update(ctx context.Context, req UpdateSubscriptionRequest) (Subscription, error)
	GetByID(ctx context.Context, id string) (Subscription, error)
	List(ctx context.Context, req ListSubscriptionRequest) ([]Subscription, error)
	// Pause and Expire trigger detachment from active deliveries;
	// Resume re-enters the scheduling flow.
	Pause(ctx context.Context, id string) (Subscription, error)
	Resume(ctx context.Context, id string) (Subscription, error)
	Expire(ctx context.Context, id string) (Subscription, error)
	// Skip advances next_order_date by one occurrence without waiting
	// for a processed delivery.
	Skip(ctx context.Context, id string) (Subscription, error)
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidProduct       = errors.New("invalid_product")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidSchedule      = errors.New("invalid_schedule")
	ErrInvalidPaymentCode   = errors.New("invalid_payment_code")
	ErrInvalidOrderDate     = errors.New("invalid_order_date")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrNotScheduled         = errors.New("subscription_not_scheduled")
)
