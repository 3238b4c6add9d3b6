package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recurshop/recurshop/internal/schedule"
)

type nextScheduledDateRequest struct {
	Date     string `json:"date"`
	Schedule string `json:"schedule"`
}

// NextScheduledDate computes the occurrence following the given date
// for a recurrence expression. Purely computational, nothing is read
// or written.
func (s *Server) NextScheduledDate(c *gin.Context) {
	var req nextScheduledDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := schedule.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", `invalid "date" format, expected YYYY-MM-DD`))
		return
	}

	next, err := schedule.NextOccurrence(date, strings.TrimSpace(req.Schedule))
	if err != nil {
		AbortWithError(c, newValidationError("schedule", "invalid_schedule", `invalid "schedule", use something like "1M" or "2W"`))
		return
	}

	c.JSON(http.StatusOK, gin.H{"next_date": schedule.FormatDate(next)})
}

type planningRequest struct {
	CustomerID   string `json:"customer_id"`
	MonthsToShow *int   `json:"months_to_show,omitempty"`
}

func (s *Server) CustomerSubscriptionPlanning(c *gin.Context) {
	var req planningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer", "customer_id is required"))
		return
	}

	monthsToShow := 6
	if req.MonthsToShow != nil {
		monthsToShow = *req.MonthsToShow
	}
	if monthsToShow < 0 {
		AbortWithError(c, newValidationError("months_to_show", "invalid_months_to_show", "months_to_show must not be negative"))
		return
	}

	resp, err := s.planningSvc.Build(c.Request.Context(), strings.TrimSpace(req.CustomerID), monthsToShow)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
