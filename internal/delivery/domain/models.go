// Package domain contains the delivery aggregate: a batched fulfillment
// unit for one customer, shipping address and order date, combining the
// orders of one or more subscriptions.
package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DeliveryStatus represents lifecycle states for a delivery.
type DeliveryStatus string

const (
	DeliveryStatusActive         DeliveryStatus = "ACTIVE"
	DeliveryStatusWaitingPayment DeliveryStatus = "WAITING_PAYMENT"
	DeliveryStatusProcessing     DeliveryStatus = "PROCESSING"
	DeliveryStatusFailed         DeliveryStatus = "FAILED"
	DeliveryStatusShipped        DeliveryStatus = "SHIPPED"
	DeliveryStatusCompleted      DeliveryStatus = "COMPLETED"
)

// PaymentInfo groups the subscriptions of a delivery that settle under
// one payment code. The wire key of SubscriptionIDs is "deliveries" for
// compatibility with the historical document shape.
type PaymentInfo struct {
	PaymentCode     string   `json:"paymentCode"`
	ErrorCode       string   `json:"errorCode,omitempty"`
	AttemptCount    int      `json:"attemptCount,omitempty"`
	SubscriptionIDs []string `json:"deliveries"`
}

// Delivery is keyed deterministically by (customer, address, date) so
// concurrent attach operations converge on the same row.
type Delivery struct {
	ID                string                           `gorm:"primaryKey" json:"id"`
	CustomerID        string                           `gorm:"not null;index" json:"customer_id"`
	ShippingAddressID string                           `gorm:"not null;index" json:"shipping_address_id"`
	NextOrderDate     string                           `gorm:"type:text;not null" json:"next_order_date"`
	Status            DeliveryStatus                   `gorm:"type:text;not null" json:"status"`
	PaymentInfo       datatypes.JSONSlice[PaymentInfo] `gorm:"type:jsonb" json:"payment_info"`
	CreatedAt         time.Time                        `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time                        `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Delivery) TableName() string { return "deliveries" }

// DeliveryID derives the deterministic aggregate key.
func DeliveryID(customerID, shippingAddressID, nextOrderDate string) string {
	return fmt.Sprintf("%s_%s_%s", customerID, shippingAddressID, nextOrderDate)
}

// SubscriptionIDs returns every attached subscription id across all
// payment-info entries, preserving entry order.
func (d Delivery) SubscriptionIDs() []string {
	var ids []string
	for _, info := range d.PaymentInfo {
		ids = append(ids, info.SubscriptionIDs...)
	}
	return ids
}

// AttachSubscription returns the payment-info list with subscriptionID
// present exactly once, under the entry for paymentCode. A missing entry
// is appended; a new attachment is prepended to the entry's id list;
// entries for other payment codes have the id removed in case the
// subscription's payment code changed.
func AttachSubscription(infos []PaymentInfo, subscriptionID, paymentCode string) []PaymentInfo {
	found := false
	for _, info := range infos {
		if info.PaymentCode == paymentCode {
			found = true
			break
		}
	}
	if !found {
		infos = append(infos, PaymentInfo{
			PaymentCode:     paymentCode,
			SubscriptionIDs: []string{subscriptionID},
		})
	}

	out := make([]PaymentInfo, 0, len(infos))
	for _, info := range infos {
		var ids []string
		if info.PaymentCode == paymentCode {
			if contains(info.SubscriptionIDs, subscriptionID) {
				ids = append(ids, info.SubscriptionIDs...)
			} else {
				ids = append([]string{subscriptionID}, info.SubscriptionIDs...)
			}
		} else {
			ids = remove(info.SubscriptionIDs, subscriptionID)
		}
		info.SubscriptionIDs = ids
		out = append(out, info)
	}
	return out
}

// DetachSubscription removes subscriptionID from every entry, leaving
// empty entries in place; a delivery is never deleted on detach.
func DetachSubscription(infos []PaymentInfo, subscriptionID string) []PaymentInfo {
	out := make([]PaymentInfo, 0, len(infos))
	for _, info := range infos {
		info.SubscriptionIDs = remove(info.SubscriptionIDs, subscriptionID)
		out = append(out, info)
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
