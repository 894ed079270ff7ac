package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"staypay/internal/app/audit"
	"staypay/internal/app/commands"
	"staypay/internal/app/handlers/support"
	"staypay/internal/app/middleware"
	"staypay/internal/app/outbox"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
)

const confirmCheckInKey = "checkin.confirm"

type ConfirmCheckInCommand struct {
	BookingID       string
	OwnerID         string
	IdempotencyKeyV string
}

func (c ConfirmCheckInCommand) Key() string { return confirmCheckInKey }

func (c ConfirmCheckInCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ConfirmCheckInCommand) ResultPrototype() any { return &ConfirmCheckInResult{} }

type ConfirmCheckInResult struct {
	BookingID        string `json:"booking_id"`
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"already_confirmed"`
}

// ConfirmCheckInHandler flips the code to USED and the booking to
// CHECKED_IN as one atomic unit. Repeating the call after success is safe:
// a checked-in booking with a used code answers alreadyConfirmed without
// mutating anything or duplicating side effects.
type ConfirmCheckInHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Audit      audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ConfirmCheckInHandler) Handle(ctx context.Context, cmd ConfirmCheckInCommand) (*ConfirmCheckInResult, error) {
	unit, ctx, cleanup, managed, err := support.BeginUnit(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				cleanup()
			}
		}()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if b.OwnerID != cmd.OwnerID {
		// Outside the requesting owner's properties: indistinguishable
		// from a missing booking.
		return nil, domainbooking.ErrBookingNotFound
	}
	code, err := unit.Codes().ByBookingID(ctx, string(b.ID))
	if err != nil {
		return nil, err
	}

	if b.State == domainbooking.StateCheckedIn && code.State == domaincode.StateUsed {
		return &ConfirmCheckInResult{
			BookingID:        string(b.ID),
			Status:           string(b.State),
			AlreadyConfirmed: true,
		}, nil
	}

	now := h.now()
	if code.State != domaincode.StateActive {
		return nil, fmt.Errorf("%w: code is %s", ErrNotEligible, code.State)
	}
	window := domaincode.ClassifyWindow(b.Stay.CheckIn, b.Stay.CheckOut, now)
	if !window.CanValidate {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, window.Reason)
	}

	before := string(b.State)
	if err := code.MarkUsed(cmd.OwnerID, now); err != nil {
		return nil, err
	}
	if err := b.ConfirmCheckIn(now); err != nil {
		return nil, err
	}
	if err := unit.Codes().Save(ctx, code); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := append(code.PendingEvents(), b.PendingEvents()...)
	code.ClearEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	uow.AfterCommit(ctx, func(ctx context.Context) {
		audit.BestEffort(ctx, h.Audit, h.Logger, audit.Entry{
			Action:     "booking.check_in.confirm",
			EntityType: "booking",
			EntityID:   string(b.ID),
			Before:     before,
			After:      string(b.State),
			ActorID:    cmd.OwnerID,
			At:         now,
		})
	})

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
		uow.RunAfterCommitHooks(ctx)
	}

	return &ConfirmCheckInResult{
		BookingID: string(b.ID),
		Status:    string(b.State),
	}, nil
}

func (h *ConfirmCheckInHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ConfirmCheckInHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ConfirmCheckInCommand, *ConfirmCheckInResult] = (*ConfirmCheckInHandler)(nil)
var _ middleware.IdempotentCommand = (*ConfirmCheckInCommand)(nil)
