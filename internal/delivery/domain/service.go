package domain

import "context"

type ListActiveRequest struct {
	CustomerID        string
	ShippingAddressID *string
}

// Service exposes delivery state transitions. Status changes publish a
// DeliveryWritten event so the processing cascade can run.
type Service interface {
	GetByID(ctx context.Context, id string) (Delivery, error)
	ListActive(ctx context.Context, req ListActiveRequest) ([]Delivery, error)
	// ListDueOn returns active deliveries whose next order date equals
	// the given canonical date.
	ListDueOn(ctx context.Context, date string) ([]Delivery, error)
	// MarkWaitingPayment promotes a due active delivery; called by the
	// daily sweep.
	MarkWaitingPayment(ctx context.Context, id string) error
	// MarkProcessing records a successful payment.
	MarkProcessing(ctx context.Context, id string) error
	// RecordPaymentFailure records a failed payment leg against the
	// matching payment-info entry and fails the delivery.
	RecordPaymentFailure(ctx context.Context, id, paymentCode, errorCode string) error
}
