package ginserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaininvoice "staypay/internal/domain/invoice"
	domainowner "staypay/internal/domain/owner"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domainbooking.ErrBookingNotFound, http.StatusNotFound},
		{"invalid state", domaininvoice.ErrInvalidState, http.StatusConflict},
		{"lost write race", uow.ErrConcurrentUpdate, http.StatusConflict},
		{"already paid", domaininvoice.ErrAlreadyPaid, http.StatusConflict},
		{"rating required", domainbooking.ErrRatingRequired, http.StatusBadRequest},
		{"payout incomplete", &domainowner.PayoutIncompleteError{Reason: domainowner.ReasonMethodUnset}, http.StatusBadRequest},
		{"duplicate reference", &domaininvoice.DuplicateReferenceError{Ref: "PAY-1"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestWriteErrorHidesInfrastructureFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, errors.New("dial tcp 10.0.0.5:27017: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "27017")
	assert.Contains(t, w.Body.String(), "internal error")
}
