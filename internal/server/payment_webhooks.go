package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
	"go.uber.org/zap"
)

type paymentWebhookRequest struct {
	DeliveryID  string `json:"delivery_id"`
	PaymentCode string `json:"payment_code"`
	Status      string `json:"status"`
	ErrorCode   string `json:"error_code"`
}

// PaymentWebhook ingests payment results from the provider. A success
// moves the delivery to processing; a failure is recorded against the
// payment-info entry matching the payment code. Unknown deliveries are
// acknowledged with 200 so the provider stops retrying.
func (s *Server) PaymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	deliveryID := strings.TrimSpace(req.DeliveryID)
	if deliveryID == "" {
		AbortWithError(c, newValidationError("delivery_id", "invalid_delivery", "delivery_id is required"))
		return
	}

	ctx := c.Request.Context()
	if req.Status == "success" {
		if err := s.deliverySvc.MarkProcessing(ctx, deliveryID); err != nil {
			if errors.Is(err, deliverydomain.ErrDeliveryNotFound) {
				s.log.Error("payment webhook for unknown delivery",
					zap.String("delivery_id", deliveryID))
				c.Status(http.StatusOK)
				return
			}
			AbortWithError(c, err)
			return
		}
		c.Status(http.StatusOK)
		return
	}

	err := s.deliverySvc.RecordPaymentFailure(ctx, deliveryID, strings.TrimSpace(req.PaymentCode), strings.TrimSpace(req.ErrorCode))
	if err != nil {
		if errors.Is(err, deliverydomain.ErrDeliveryNotFound) || errors.Is(err, deliverydomain.ErrPaymentNotFound) {
			s.log.Error("payment webhook could not record failure",
				zap.String("delivery_id", deliveryID),
				zap.String("payment_code", req.PaymentCode),
				zap.Error(err))
			c.Status(http.StatusOK)
			return
		}
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
