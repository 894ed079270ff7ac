package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staypay/internal/domain/settlement"
	"staypay/internal/domain/shared/events"
	"staypay/internal/domain/shared/money"
)

var (
	ErrInvoiceNotFound = errors.New("invoice: not found")
	ErrInvalidState    = errors.New("invoice: invalid state transition")
	ErrAlreadyPaid     = errors.New("invoice: already paid")
	ErrRejectReasons   = errors.New("invoice: at least one reject reason required")
)

// DuplicateReferenceError reports a unique-reference collision with
// another invoice. Surfaced instead of silently overwriting.
type DuplicateReferenceError struct {
	Ref string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("invoice: reference %q already belongs to another invoice", e.Ref)
}

type InvoiceState string

const (
	StateDraft     InvoiceState = "DRAFT"
	StateRequested InvoiceState = "REQUESTED"
	StateVerified  InvoiceState = "VERIFIED"
	StateApproved  InvoiceState = "APPROVED"
	StateRejected  InvoiceState = "REJECTED"
	StatePaid      InvoiceState = "PAID"
)

// Track distinguishes the customer-paid settlement from an owner claim
// for the same booking. At most one invoice exists per (booking, track).
type Track string

const (
	TrackCustomer   Track = "CUSTOMER"
	TrackOwnerClaim Track = "OWNER_CLAIM"
)

// Invoice is the settlement record for one booking. The numeric ID is the
// repository-allocated immutable primary key that invoice numbers derive
// from; Number, PaymentRef and ReceiptNumber are each assigned at most
// once and survive retried transitions.
type Invoice struct {
	ID            int64
	BookingID     string
	PropertyID    string
	OwnerID       string
	Track         Track
	State         InvoiceState
	Number        string
	PaymentRef    string
	ReceiptNumber string
	Total         money.Money
	TransportFare money.Money
	Breakdown     settlement.Breakdown
	Notes         string
	RejectReasons []string
	PaymentMethod string
	ExternalRef   string
	IssuedAt      time.Time
	VerifiedAt    time.Time
	ApprovedAt    time.Time
	PaidAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	NextID(ctx context.Context) (int64, error)
	ByID(ctx context.Context, id int64) (*Invoice, error)
	ByBookingAndTrack(ctx context.Context, bookingID string, track Track) (*Invoice, error)
	ByPaymentRef(ctx context.Context, ref string) (*Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
}

type DraftParams struct {
	ID            int64
	BookingID     string
	PropertyID    string
	OwnerID       string
	Track         Track
	Total         money.Money
	TransportFare money.Money
	Breakdown     settlement.Breakdown
	CreatedAt     time.Time
}

// NewDraft creates a DRAFT invoice carrying the preview breakdown. The
// final breakdown is recomputed at approval time.
func NewDraft(params DraftParams) *Invoice {
	now := params.CreatedAt.UTC()
	track := params.Track
	if track == "" {
		track = TrackCustomer
	}
	return &Invoice{
		ID:            params.ID,
		BookingID:     params.BookingID,
		PropertyID:    params.PropertyID,
		OwnerID:       params.OwnerID,
		Track:         track,
		State:         StateDraft,
		Total:         params.Total,
		TransportFare: params.TransportFare,
		Breakdown:     params.Breakdown,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Submit moves DRAFT to REQUESTED. Past DRAFT it is a no-op; the bool
// reports whether a mutation happened.
func (i *Invoice) Submit(now time.Time) (bool, error) {
	if i.State != StateDraft {
		return false, nil
	}
	i.State = StateRequested
	i.IssuedAt = now.UTC()
	i.UpdatedAt = i.IssuedAt
	i.Record(InvoiceRequested{InvoiceID: i.ID, BookingID: i.BookingID, OwnerID: i.OwnerID, At: i.UpdatedAt})
	return true, nil
}

// Verify moves REQUESTED to VERIFIED.
func (i *Invoice) Verify(notes string, now time.Time) error {
	if i.State != StateRequested {
		return ErrInvalidState
	}
	i.State = StateVerified
	i.Notes = notes
	i.VerifiedAt = now.UTC()
	i.UpdatedAt = i.VerifiedAt
	i.Record(InvoiceVerified{InvoiceID: i.ID, BookingID: i.BookingID, At: i.UpdatedAt})
	return nil
}

// Approve settles the final breakdown and assigns the invoice number and
// payment reference, each only if not already present, then moves to
// APPROVED. A retried approval on an APPROVED invoice is a no-op that
// keeps the previously assigned references. PAID is terminal.
func (i *Invoice) Approve(final settlement.Breakdown, number, paymentRef string, now time.Time) error {
	switch i.State {
	case StatePaid:
		return ErrAlreadyPaid
	case StateApproved:
		return nil
	case StateRequested, StateVerified:
	default:
		return ErrInvalidState
	}
	i.Breakdown = final
	if i.Number == "" {
		i.Number = number
	}
	if i.PaymentRef == "" {
		i.PaymentRef = paymentRef
	}
	i.State = StateApproved
	i.ApprovedAt = now.UTC()
	i.UpdatedAt = i.ApprovedAt
	i.Record(InvoiceApproved{
		InvoiceID:  i.ID,
		BookingID:  i.BookingID,
		OwnerID:    i.OwnerID,
		Number:     i.Number,
		NetPayable: i.Breakdown.NetPayable,
		At:         i.UpdatedAt,
	})
	return nil
}

// MarkPaid records the settlement payment and assigns the receipt number
// if absent. Repayment is never implicit: a PAID invoice yields
// ErrAlreadyPaid rather than idempotent success.
func (i *Invoice) MarkPaid(method, externalRef, receiptNumber string, now time.Time) error {
	if i.State == StatePaid {
		return ErrAlreadyPaid
	}
	if i.ReceiptNumber == "" {
		i.ReceiptNumber = receiptNumber
	}
	i.PaymentMethod = method
	i.ExternalRef = externalRef
	i.State = StatePaid
	i.PaidAt = now.UTC()
	i.UpdatedAt = i.PaidAt
	i.Record(InvoicePaid{
		InvoiceID:     i.ID,
		BookingID:     i.BookingID,
		OwnerID:       i.OwnerID,
		ReceiptNumber: i.ReceiptNumber,
		Amount:        i.Breakdown.NetPayable,
		At:            i.UpdatedAt,
	})
	return nil
}

// Reject is reachable from REQUESTED, VERIFIED and APPROVED.
func (i *Invoice) Reject(reasons []string, now time.Time) error {
	switch i.State {
	case StateRequested, StateVerified, StateApproved:
	case StatePaid:
		return ErrAlreadyPaid
	default:
		return ErrInvalidState
	}
	if len(reasons) == 0 {
		return ErrRejectReasons
	}
	i.State = StateRejected
	i.RejectReasons = reasons
	i.UpdatedAt = now.UTC()
	i.Record(InvoiceRejected{InvoiceID: i.ID, BookingID: i.BookingID, Reasons: reasons, At: i.UpdatedAt})
	return nil
}

// ReceiptPayload is the verifiable payload handed to downstream QR and
// visual receipt rendering.
type ReceiptPayload struct {
	ReceiptNumber string      `json:"receipt_number"`
	InvoiceNumber string      `json:"invoice_number"`
	BookingID     string      `json:"booking_id"`
	PropertyID    string      `json:"property_id"`
	Amount        money.Money `json:"amount"`
	Method        string      `json:"method"`
	IssuedAt      time.Time   `json:"issued_at"`
}

func (i *Invoice) Receipt() ReceiptPayload {
	return ReceiptPayload{
		ReceiptNumber: i.ReceiptNumber,
		InvoiceNumber: i.Number,
		BookingID:     i.BookingID,
		PropertyID:    i.PropertyID,
		Amount:        i.Breakdown.NetPayable,
		Method:        i.PaymentMethod,
		IssuedAt:      i.PaidAt,
	}
}
