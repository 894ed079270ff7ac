package booking

import (
	"context"
	"errors"
	"time"

	"staypay/internal/domain/shared/daterange"
	"staypay/internal/domain/shared/events"
	"staypay/internal/domain/shared/money"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrRatingRequired  = errors.New("booking: guest rating in 1..5 required for check-out")
)

type BookingID string

type BookingState string

const (
	StatePending    BookingState = "PENDING"
	StateConfirmed  BookingState = "CONFIRMED"
	StateCheckedIn  BookingState = "CHECKED_IN"
	StateCheckedOut BookingState = "CHECKED_OUT"
	StateCanceled   BookingState = "CANCELED"
)

// Booking is a reservation of a room over [checkIn, checkOut). The
// settlement engine never creates one; it only advances its state.
// TotalAmount includes the transport fare, which settles separately.
type Booking struct {
	ID            BookingID
	PropertyID    string
	OwnerID       string
	GuestName     string
	GuestPhone    string
	CustomerID    string
	Stay          daterange.DateRange
	TotalAmount   money.Money
	TransportFare money.Money
	State         BookingState
	Rating        int
	Feedback      string
	CancelReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
}

// PreStay reports whether the booking has not reached CHECKED_IN yet.
func (b *Booking) PreStay() bool {
	return b.State == StatePending || b.State == StateConfirmed
}

// ConfirmCheckIn advances a pre-stay booking to CHECKED_IN.
func (b *Booking) ConfirmCheckIn(now time.Time) error {
	if !b.PreStay() {
		return ErrInvalidState
	}
	b.State = StateCheckedIn
	b.UpdatedAt = now.UTC()
	b.Record(CheckInConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, At: b.UpdatedAt})
	return nil
}

// ConfirmCheckOut advances CHECKED_IN to CHECKED_OUT. The guest rating is
// a feedback-capture invariant: check-out cannot complete without it.
func (b *Booking) ConfirmCheckOut(rating int, feedback string, now time.Time) error {
	if b.State != StateCheckedIn {
		return ErrInvalidState
	}
	if rating < 1 || rating > 5 {
		return ErrRatingRequired
	}
	b.State = StateCheckedOut
	b.Rating = rating
	b.Feedback = feedback
	b.UpdatedAt = now.UTC()
	b.Record(CheckOutConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Rating: rating, At: b.UpdatedAt})
	return nil
}

// Cancel is terminal from any pre-stay state.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.PreStay() {
		return ErrInvalidState
	}
	b.State = StateCanceled
	b.CancelReason = reason
	b.UpdatedAt = now.UTC()
	b.Record(BookingCanceled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}
