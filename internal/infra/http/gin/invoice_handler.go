package ginserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"staypay/internal/app/commands"
	invoiceapp "staypay/internal/app/handlers/invoice"
	"staypay/internal/app/queries"
	domaininvoice "staypay/internal/domain/invoice"
)

type InvoiceHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createInvoiceRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Track     string `json:"track"`
}

func (h InvoiceHandler) CreateOrSubmit(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	track := domaininvoice.Track(req.Track)
	if track == "" {
		track = domaininvoice.TrackCustomer
	}
	cmd := invoiceapp.CreateOrSubmitCommand{
		BookingID:       req.BookingID,
		OwnerID:         c.GetHeader("X-Owner-ID"),
		Track:           track,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[invoiceapp.CreateOrSubmitCommand, *invoiceapp.CreateOrSubmitResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h InvoiceHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	q := invoiceapp.GetInvoiceQuery{
		InvoiceID: id,
		OwnerID:   c.GetHeader("X-Owner-ID"),
	}
	result, err := queries.Ask[invoiceapp.GetInvoiceQuery, *invoiceapp.InvoiceView](c.Request.Context(), h.Queries, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type verifyRequest struct {
	Notes string `json:"notes"`
}

func (h InvoiceHandler) Verify(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := invoiceapp.VerifyCommand{
		InvoiceID: id,
		Notes:     req.Notes,
		ActorID:   c.GetHeader("X-Owner-ID"),
	}
	result, err := commands.Dispatch[invoiceapp.VerifyCommand, *invoiceapp.VerifyResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type approveRequest struct {
	TaxPercentOverride *float64 `json:"tax_percent_override"`
}

func (h InvoiceHandler) Approve(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := invoiceapp.ApproveCommand{
		InvoiceID:          id,
		TaxPercentOverride: req.TaxPercentOverride,
		ActorID:            c.GetHeader("X-Owner-ID"),
	}
	result, err := commands.Dispatch[invoiceapp.ApproveCommand, *invoiceapp.ApproveResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type rejectRequest struct {
	Reasons []string `json:"reasons" binding:"required"`
}

func (h InvoiceHandler) Reject(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := invoiceapp.RejectCommand{
		InvoiceID: id,
		Reasons:   req.Reasons,
		ActorID:   c.GetHeader("X-Owner-ID"),
	}
	result, err := commands.Dispatch[invoiceapp.RejectCommand, *invoiceapp.RejectResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type markPaidRequest struct {
	Method string `json:"method"`
	Ref    string `json:"ref"`
}

func (h InvoiceHandler) MarkPaid(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := invoiceapp.MarkPaidCommand{
		InvoiceID: id,
		Method:    req.Method,
		Ref:       req.Ref,
		ActorID:   c.GetHeader("X-Owner-ID"),
	}
	result, err := commands.Dispatch[invoiceapp.MarkPaidCommand, *invoiceapp.MarkPaidResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func invoiceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return 0, false
	}
	return id, true
}

var _ InvoiceHTTP = InvoiceHandler{}
