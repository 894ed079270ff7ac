package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	checkinapp "staypay/internal/app/handlers/checkin"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	domaininvoice "staypay/internal/domain/invoice"
	domainowner "staypay/internal/domain/owner"
)

// writeError maps domain errors onto HTTP statuses. Conflicts (state
// machine refusals, reference collisions, lost write races) are 409 so
// clients can distinguish them from plain bad input.
func writeError(c *gin.Context, err error) {
	var payoutErr *domainowner.PayoutIncompleteError
	if errors.As(err, &payoutErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": payoutErr.Error(), "reason": payoutErr.Reason})
		return
	}
	var dupErr *domaininvoice.DuplicateReferenceError
	if errors.As(err, &dupErr) {
		c.JSON(http.StatusConflict, gin.H{"error": dupErr.Error(), "ref": dupErr.Ref})
		return
	}
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domaincode.ErrCodeNotFound),
		errors.Is(err, domaininvoice.ErrInvoiceNotFound),
		errors.Is(err, domainowner.ErrOwnerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domaininvoice.ErrInvalidState),
		errors.Is(err, domaincode.ErrCodeNotActive),
		errors.Is(err, domaininvoice.ErrAlreadyPaid),
		errors.Is(err, uow.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkinapp.ErrNotEligible),
		errors.Is(err, domainbooking.ErrRatingRequired),
		errors.Is(err, domaininvoice.ErrRejectReasons),
		errors.Is(err, domaincode.ErrVoidReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		// Untyped errors are infrastructure failures; their text stays
		// out of the response.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
