package checkin

import (
	"context"
	"time"

	"staypay/internal/app/handlers/support"
	"staypay/internal/app/queries"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	"staypay/internal/domain/shared/money"
)

const previewCodeKey = "checkin.preview"

// PreviewCodeQuery resolves a desk-presented code into everything the
// front desk needs before confirming. Read-only: never mutates.
type PreviewCodeQuery struct {
	Code    string
	OwnerID string
}

func (q PreviewCodeQuery) Key() string { return previewCodeKey }

type PreviewResult struct {
	CodeState    string                       `json:"code_state"`
	BookingID    string                       `json:"booking_id"`
	BookingState string                       `json:"booking_state"`
	GuestName    string                       `json:"guest_name"`
	GuestPhone   string                       `json:"guest_phone"`
	PropertyID   string                       `json:"property_id"`
	CheckIn      time.Time                    `json:"check_in"`
	CheckOut     time.Time                    `json:"check_out"`
	TotalAmount  money.Money                  `json:"total_amount"`
	Window       domaincode.WindowAssessment  `json:"window"`
	CanValidate  bool                         `json:"can_validate"`
	Reason       string                       `json:"reason,omitempty"`
	Cancellation *PreviewCancellation         `json:"cancellation,omitempty"`
}

type PreviewCancellation struct {
	BookingReason string `json:"booking_reason,omitempty"`
	CodeReason    string `json:"code_reason,omitempty"`
	VoidedAt      string `json:"voided_at,omitempty"`
}

type PreviewCodeHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *PreviewCodeHandler) Handle(ctx context.Context, q PreviewCodeQuery) (*PreviewResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	code, err := unit.Codes().ByHash(ctx, domaincode.HashCode(q.Code))
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(code.BookingID))
	if err != nil {
		return nil, err
	}
	if b.OwnerID != q.OwnerID {
		return nil, domaincode.ErrCodeNotFound
	}

	now := h.now()
	window := domaincode.ClassifyWindow(b.Stay.CheckIn, b.Stay.CheckOut, now)

	result := &PreviewResult{
		CodeState:    string(code.State),
		BookingID:    string(b.ID),
		BookingState: string(b.State),
		GuestName:    b.GuestName,
		GuestPhone:   b.GuestPhone,
		PropertyID:   b.PropertyID,
		CheckIn:      b.Stay.CheckIn,
		CheckOut:     b.Stay.CheckOut,
		TotalAmount:  b.TotalAmount,
		Window:       window,
	}

	switch {
	case code.State != domaincode.StateActive:
		result.Reason = "code already " + string(code.State)
	case !window.CanValidate:
		result.Reason = window.Reason
	default:
		result.CanValidate = true
	}

	if b.State == domainbooking.StateCanceled || code.State == domaincode.StateVoid {
		cancellation := &PreviewCancellation{
			BookingReason: b.CancelReason,
			CodeReason:    code.VoidReason,
		}
		if !code.VoidedAt.IsZero() {
			cancellation.VoidedAt = code.VoidedAt.Format(time.RFC3339)
		}
		result.Cancellation = cancellation
	}
	return result, nil
}

func (h *PreviewCodeHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[PreviewCodeQuery, *PreviewResult] = (*PreviewCodeHandler)(nil)
