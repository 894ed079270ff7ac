package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	"staypay/internal/domain/shared/daterange"
	"staypay/internal/domain/shared/money"
	"staypay/internal/infra/storage/memory"
)

var (
	stayStart = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	stayEnd   = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	inWindow  = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	bookings *memory.BookingRepository
	codes    *memory.CodeRepository
	factory  memory.Factory
	outbox   *memory.Outbox
	audit    *memory.AuditSink
}

func newFixture() *fixture {
	bookings := memory.NewBookingRepository()
	codes := memory.NewCodeRepository()
	return &fixture{
		bookings: bookings,
		codes:    codes,
		factory: memory.Factory{
			BookingRepo: bookings,
			CodeRepo:    codes,
			InvoiceRepo: memory.NewInvoiceRepository(),
			OwnerRepo:   memory.NewOwnerRepository(),
		},
		outbox: memory.NewOutbox(),
		audit:  memory.NewAuditSink(),
	}
}

func (f *fixture) seedBooking(t *testing.T, state domainbooking.BookingState) *domaincode.Code {
	t.Helper()
	stay, err := daterange.New(stayStart, stayEnd)
	require.NoError(t, err)
	b := &domainbooking.Booking{
		ID:            "bk-1",
		PropertyID:    "prop-1",
		OwnerID:       "own-1",
		GuestName:     "Ada Obi",
		GuestPhone:    "+2348010000001",
		CustomerID:    "cust-1",
		Stay:          stay,
		TotalAmount:   money.Money{Amount: 110000, Currency: "NGN"},
		TransportFare: money.Money{Amount: 10000, Currency: "NGN"},
		State:         state,
		CreatedAt:     stayStart.AddDate(0, 0, -7),
		UpdatedAt:     stayStart.AddDate(0, 0, -7),
	}
	require.NoError(t, f.bookings.Save(context.Background(), b))
	code := domaincode.New("bk-1", stayStart.AddDate(0, 0, -7))
	require.NoError(t, f.codes.Save(context.Background(), code))
	return code
}

func (f *fixture) checkInHandler() *ConfirmCheckInHandler {
	return &ConfirmCheckInHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Now:        func() time.Time { return inWindow },
	}
}

func TestConfirmCheckIn(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateConfirmed)
	h := f.checkInHandler()

	res, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-1"})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", res.BookingID)
	assert.Equal(t, string(domainbooking.StateCheckedIn), res.Status)
	assert.False(t, res.AlreadyConfirmed)

	b, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCheckedIn, b.State)

	code, err := f.codes.ByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domaincode.StateUsed, code.State)
	assert.Equal(t, "own-1", code.UsedByOwner)
	assert.Equal(t, inWindow, code.UsedAt)

	assert.Len(t, f.outbox.Records(), 2)
	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "booking.check_in.confirm", entries[0].Action)
	assert.Equal(t, string(domainbooking.StateConfirmed), entries[0].Before)
	assert.Equal(t, string(domainbooking.StateCheckedIn), entries[0].After)
}

func TestConfirmCheckInRepeatIsIdempotent(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateConfirmed)
	h := f.checkInHandler()

	_, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-1"})
	require.NoError(t, err)

	res, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-1"})
	require.NoError(t, err)
	assert.True(t, res.AlreadyConfirmed)
	assert.Equal(t, string(domainbooking.StateCheckedIn), res.Status)

	// No duplicated side effects on the repeat.
	assert.Len(t, f.outbox.Records(), 2)
	assert.Len(t, f.audit.Entries(), 1)
}

func TestConfirmCheckInOutsideWindow(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
	}{
		{"before stay", stayStart.AddDate(0, 0, -1)},
		{"after stay", stayEnd.AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.seedBooking(t, domainbooking.StateConfirmed)
			h := f.checkInHandler()
			h.Now = func() time.Time { return tc.now }

			_, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-1"})
			assert.ErrorIs(t, err, ErrNotEligible)

			b, err := f.bookings.ByID(context.Background(), "bk-1")
			require.NoError(t, err)
			assert.Equal(t, domainbooking.StateConfirmed, b.State)
			assert.Empty(t, f.outbox.Records())
		})
	}
}

func TestConfirmCheckInWrongOwner(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateConfirmed)
	h := f.checkInHandler()

	_, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-2"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestConfirmCheckInVoidedCode(t *testing.T) {
	f := newFixture()
	code := f.seedBooking(t, domainbooking.StateConfirmed)
	require.NoError(t, code.Void("payment reversed", inWindow))
	require.NoError(t, f.codes.Save(context.Background(), code))

	h := f.checkInHandler()
	_, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-1"})
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestConfirmCheckOut(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateCheckedIn)
	h := &ConfirmCheckOutHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Now:        func() time.Time { return stayEnd },
	}

	res, err := h.Handle(context.Background(), ConfirmCheckOutCommand{
		BookingID: "bk-1",
		OwnerID:   "own-1",
		Rating:    4,
		Feedback:  "quiet room, slow wifi",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCheckedOut), res.Status)

	b, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, 4, b.Rating)
	assert.Equal(t, "quiet room, slow wifi", b.Feedback)

	repeat, err := h.Handle(context.Background(), ConfirmCheckOutCommand{BookingID: "bk-1", OwnerID: "own-1", Rating: 4})
	require.NoError(t, err)
	assert.True(t, repeat.AlreadyConfirmed)
	assert.Len(t, f.outbox.Records(), 1)
	assert.Len(t, f.audit.Entries(), 1)
}

func TestConfirmCheckOutRequiresRating(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateCheckedIn)
	h := &ConfirmCheckOutHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Now:        func() time.Time { return stayEnd },
	}

	for _, rating := range []int{0, -1, 6} {
		_, err := h.Handle(context.Background(), ConfirmCheckOutCommand{BookingID: "bk-1", OwnerID: "own-1", Rating: rating})
		assert.ErrorIs(t, err, ErrNotEligible, "rating %d", rating)
	}

	b, err := f.bookings.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCheckedIn, b.State)
}

func TestCancelBookingVoidsCode(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateConfirmed)
	h := &CancelBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Now:        func() time.Time { return stayStart.AddDate(0, 0, -2) },
	}

	res, err := h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", Reason: "guest request", ActorID: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCanceled), res.Status)
	assert.False(t, res.AlreadyCanceled)

	code, err := f.codes.ByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domaincode.StateVoid, code.State)
	assert.Equal(t, "guest request", code.VoidReason)

	repeat, err := h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", Reason: "guest request", ActorID: "cust-1"})
	require.NoError(t, err)
	assert.True(t, repeat.AlreadyCanceled)
}

func TestCancelBookingRefusedMidStay(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateCheckedIn)
	h := &CancelBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Now:        func() time.Time { return inWindow },
	}

	_, err := h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", Reason: "late change"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestPreviewCode(t *testing.T) {
	f := newFixture()
	code := f.seedBooking(t, domainbooking.StateConfirmed)
	h := &PreviewCodeHandler{
		UoWFactory: f.factory,
		Now:        func() time.Time { return inWindow },
	}

	res, err := h.Handle(context.Background(), PreviewCodeQuery{Code: code.Visible, OwnerID: "own-1"})
	require.NoError(t, err)
	assert.True(t, res.CanValidate)
	assert.Equal(t, "Ada Obi", res.GuestName)
	assert.Equal(t, "bk-1", res.BookingID)
	assert.Equal(t, domaincode.PhaseInWindow, res.Window.Phase)
	assert.Nil(t, res.Cancellation)
}

func TestPreviewCodeWrongOwner(t *testing.T) {
	f := newFixture()
	code := f.seedBooking(t, domainbooking.StateConfirmed)
	h := &PreviewCodeHandler{UoWFactory: f.factory, Now: func() time.Time { return inWindow }}

	_, err := h.Handle(context.Background(), PreviewCodeQuery{Code: code.Visible, OwnerID: "own-2"})
	assert.ErrorIs(t, err, domaincode.ErrCodeNotFound)
}

func TestPreviewCodeAfterCancellation(t *testing.T) {
	f := newFixture()
	code := f.seedBooking(t, domainbooking.StateConfirmed)
	cancel := &CancelBookingHandler{
		UoWFactory: f.factory,
		Outbox:     f.outbox,
		Audit:      f.audit,
		Now:        func() time.Time { return stayStart.AddDate(0, 0, -1) },
	}
	_, err := cancel.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", Reason: "double booked"})
	require.NoError(t, err)

	h := &PreviewCodeHandler{UoWFactory: f.factory, Now: func() time.Time { return inWindow }}
	res, err := h.Handle(context.Background(), PreviewCodeQuery{Code: code.Visible, OwnerID: "own-1"})
	require.NoError(t, err)
	assert.False(t, res.CanValidate)
	assert.Equal(t, string(domaincode.StateVoid), res.CodeState)
	require.NotNil(t, res.Cancellation)
	assert.Equal(t, "double booked", res.Cancellation.BookingReason)
	assert.Equal(t, "double booked", res.Cancellation.CodeReason)
}

func TestAuditFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture()
	f.seedBooking(t, domainbooking.StateConfirmed)
	f.audit.FailWith = assert.AnError
	h := f.checkInHandler()

	res, err := h.Handle(context.Background(), ConfirmCheckInCommand{BookingID: "bk-1", OwnerID: "own-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCheckedIn), res.Status)
	assert.Empty(t, f.audit.Entries())
}
