package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	deliverydomain "github.com/recurshop/recurshop/internal/delivery/domain"
)

func (s *Server) ListDeliveries(c *gin.Context) {
	customerID := strings.TrimSpace(c.Query("customer_id"))
	if customerID == "" {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer", "customer_id is required"))
		return
	}

	req := deliverydomain.ListActiveRequest{CustomerID: customerID}
	if addressID := strings.TrimSpace(c.Query("shipping_address_id")); addressID != "" {
		req.ShippingAddressID = &addressID
	}

	resp, err := s.deliverySvc.ListActive(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDeliveryByID(c *gin.Context) {
	resp, err := s.deliverySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
