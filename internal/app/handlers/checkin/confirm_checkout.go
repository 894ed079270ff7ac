package checkin

import (
	"context"
	"errors"
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
)

const confirmCheckOutKey = "checkout.confirm"

type ConfirmCheckOutCommand struct {
	BookingID       string
	OwnerID         string
	Rating          int
	Feedback        string
	IdempotencyKeyV string
}

func (c ConfirmCheckOutCommand) Key() string { return confirmCheckOutKey }

func (c ConfirmCheckOutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ConfirmCheckOutCommand) ResultPrototype() any { return &ConfirmCheckOutResult{} }

type ConfirmCheckOutResult struct {
	BookingID        string `json:"booking_id"`
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"already_confirmed"`
}

// ConfirmCheckOutHandler closes out a stay. The guest rating travels into
// the audit trail; check-out is refused without one.
type ConfirmCheckOutHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Audit      audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ConfirmCheckOutHandler) Handle(ctx context.Context, cmd ConfirmCheckOutCommand) (*ConfirmCheckOutResult, error) {
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
		return nil, domainbooking.ErrBookingNotFound
	}

	if b.State == domainbooking.StateCheckedOut {
		return &ConfirmCheckOutResult{
			BookingID:        string(b.ID),
			Status:           string(b.State),
			AlreadyConfirmed: true,
		}, nil
	}

	now := h.now()
	before := string(b.State)
	if err := b.ConfirmCheckOut(cmd.Rating, cmd.Feedback, now); err != nil {
		if errors.Is(err, domainbooking.ErrRatingRequired) {
			return nil, fmt.Errorf("%w: %s", ErrNotEligible, err)
		}
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	uow.AfterCommit(ctx, func(ctx context.Context) {
		audit.BestEffort(ctx, h.Audit, h.Logger, audit.Entry{
			Action:     "booking.check_out.confirm",
			EntityType: "booking",
			EntityID:   string(b.ID),
			Before:     before,
			After:      string(b.State),
			ActorID:    cmd.OwnerID,
			Details:    map[string]any{"rating": cmd.Rating, "feedback": cmd.Feedback},
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

	return &ConfirmCheckOutResult{
		BookingID: string(b.ID),
		Status:    string(b.State),
	}, nil
}

func (h *ConfirmCheckOutHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ConfirmCheckOutHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ConfirmCheckOutCommand, *ConfirmCheckOutResult] = (*ConfirmCheckOutHandler)(nil)
var _ middleware.IdempotentCommand = (*ConfirmCheckOutCommand)(nil)
