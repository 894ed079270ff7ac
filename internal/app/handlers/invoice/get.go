package invoice

import (
	"context"
	"time"

	"staypay/internal/app/handlers/support"
	"staypay/internal/app/queries"
	"staypay/internal/app/uow"
	domaininvoice "staypay/internal/domain/invoice"
	"staypay/internal/domain/settlement"
)

const getInvoiceKey = "invoice.get"

// GetInvoiceQuery fetches one invoice. A non-empty OwnerID scopes the
// lookup to that owner; admins pass it empty.
type GetInvoiceQuery struct {
	InvoiceID int64
	OwnerID   string
}

func (q GetInvoiceQuery) Key() string { return getInvoiceKey }

type InvoiceView struct {
	InvoiceID     int64                `json:"invoice_id"`
	BookingID     string               `json:"booking_id"`
	PropertyID    string               `json:"property_id"`
	OwnerID       string               `json:"owner_id"`
	Track         string               `json:"track"`
	Status        string               `json:"status"`
	Number        string               `json:"invoice_number,omitempty"`
	PaymentRef    string               `json:"payment_ref,omitempty"`
	ReceiptNumber string               `json:"receipt_number,omitempty"`
	Breakdown     settlement.Breakdown `json:"breakdown"`
	Notes         string               `json:"notes,omitempty"`
	RejectReasons []string             `json:"reject_reasons,omitempty"`
	IssuedAt      *time.Time           `json:"issued_at,omitempty"`
	ApprovedAt    *time.Time           `json:"approved_at,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
}

type GetInvoiceHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetInvoiceHandler) Handle(ctx context.Context, q GetInvoiceQuery) (*InvoiceView, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	inv, err := unit.Invoices().ByID(ctx, q.InvoiceID)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != "" && inv.OwnerID != q.OwnerID {
		return nil, domaininvoice.ErrInvoiceNotFound
	}

	view := &InvoiceView{
		InvoiceID:     inv.ID,
		BookingID:     inv.BookingID,
		PropertyID:    inv.PropertyID,
		OwnerID:       inv.OwnerID,
		Track:         string(inv.Track),
		Status:        string(inv.State),
		Number:        inv.Number,
		PaymentRef:    inv.PaymentRef,
		ReceiptNumber: inv.ReceiptNumber,
		Breakdown:     inv.Breakdown,
		Notes:         inv.Notes,
		RejectReasons: inv.RejectReasons,
	}
	view.IssuedAt = optionalTime(inv.IssuedAt)
	view.ApprovedAt = optionalTime(inv.ApprovedAt)
	view.PaidAt = optionalTime(inv.PaidAt)
	return view, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ queries.Handler[GetInvoiceQuery, *InvoiceView] = (*GetInvoiceHandler)(nil)
