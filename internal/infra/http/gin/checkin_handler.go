package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	checkinapp "staypay/internal/app/handlers/checkin"
	"staypay/internal/app/commands"
	"staypay/internal/app/queries"
)

type CheckinHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type previewRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h CheckinHandler) Preview(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := checkinapp.PreviewCodeQuery{
		Code:    req.Code,
		OwnerID: c.GetHeader("X-Owner-ID"),
	}
	result, err := queries.Ask[checkinapp.PreviewCodeQuery, *checkinapp.PreviewResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CheckinHandler) ConfirmCheckIn(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := checkinapp.ConfirmCheckInCommand{
		BookingID:       c.Param("id"),
		OwnerID:         c.GetHeader("X-Owner-ID"),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[checkinapp.ConfirmCheckInCommand, *checkinapp.ConfirmCheckInResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type checkoutRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

func (h CheckinHandler) ConfirmCheckOut(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := checkinapp.ConfirmCheckOutCommand{
		BookingID:       c.Param("id"),
		OwnerID:         c.GetHeader("X-Owner-ID"),
		Rating:          req.Rating,
		Feedback:        req.Feedback,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[checkinapp.ConfirmCheckOutCommand, *checkinapp.ConfirmCheckOutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h CheckinHandler) Cancel(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := checkinapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		Reason:    req.Reason,
		ActorID:   c.GetHeader("X-Owner-ID"),
	}
	result, err := commands.Dispatch[checkinapp.CancelBookingCommand, *checkinapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CheckinHTTP = CheckinHandler{}
