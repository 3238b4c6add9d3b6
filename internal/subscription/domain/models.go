// Package domain contains the subscription aggregate and its contracts.
package domain

import (
	"time"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPaused  SubscriptionStatus = "PAUSED"
	SubscriptionStatusExpired SubscriptionStatus = "EXPIRED"
)

// Subscription is a recurring purchase commitment. NextOrderDate and
// Scheduled are owned by the matching engine: Scheduled=true means the
// subscription is attached to the delivery dated NextOrderDate for its
// current cycle, false signals pending (re)scheduling.
type Subscription struct {
	ID                string             `gorm:"primaryKey" json:"id"`
	CustomerID        string             `gorm:"not null;index" json:"customer_id"`
	ProductID         string             `gorm:"not null;index" json:"product_id"`
	ShippingAddressID *string            `gorm:"index" json:"shipping_address_id,omitempty"`
	PaymentCode       string             `gorm:"not null" json:"payment_code"`
	Quantity          int                `gorm:"not null" json:"quantity"`
	Schedule          string             `gorm:"not null" json:"schedule"`
	Status            SubscriptionStatus `gorm:"type:text;not null" json:"status"`
	Scheduled         bool               `gorm:"not null;default:false" json:"scheduled"`
	PreviousOrderDate *string            `gorm:"type:text" json:"previous_order_date,omitempty"`
	NextOrderDate     *string            `gorm:"type:text" json:"next_order_date,omitempty"`
	CreatedAt         time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// AddressID returns the shipping address id or the empty string.
func (s Subscription) AddressID() string {
	if s.ShippingAddressID == nil {
		return ""
	}
	return *s.ShippingAddressID
}
