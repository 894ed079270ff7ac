package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staypay/internal/app/audit"
	"staypay/internal/app/commands"
	"staypay/internal/app/handlers/support"
	"staypay/internal/app/outbox"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
)

const cancelBookingKey = "booking.cancel"

// CancelBookingCommand is the surface the cancellation workflow calls into:
// the booking moves to CANCELED and its code to VOID in the same unit.
type CancelBookingCommand struct {
	BookingID string
	Reason    string
	ActorID   string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID       string `json:"booking_id"`
	Status          string `json:"status"`
	AlreadyCanceled bool   `json:"already_canceled"`
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Audit      audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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
	if b.State == domainbooking.StateCanceled {
		return &CancelBookingResult{
			BookingID:       string(b.ID),
			Status:          string(b.State),
			AlreadyCanceled: true,
		}, nil
	}

	now := h.now()
	before := string(b.State)
	if err := b.Cancel(cmd.Reason, now); err != nil {
		return nil, err
	}

	code, err := unit.Codes().ByBookingID(ctx, string(b.ID))
	switch {
	case err == nil:
		if code.State == domaincode.StateActive {
			if voidErr := code.Void(cmd.Reason, now); voidErr != nil {
				return nil, voidErr
			}
			if saveErr := unit.Codes().Save(ctx, code); saveErr != nil {
				return nil, saveErr
			}
		}
	case errors.Is(err, domaincode.ErrCodeNotFound):
		// Pending bookings may not have been issued a code yet.
		code = nil
	default:
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if code != nil {
		pending = append(pending, code.PendingEvents()...)
		code.ClearEvents()
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	uow.AfterCommit(ctx, func(ctx context.Context) {
		audit.BestEffort(ctx, h.Audit, h.Logger, audit.Entry{
			Action:     "booking.cancel",
			EntityType: "booking",
			EntityID:   string(b.ID),
			Before:     before,
			After:      string(b.State),
			ActorID:    cmd.ActorID,
			Details:    map[string]any{"reason": cmd.Reason},
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

	return &CancelBookingResult{
		BookingID: string(b.ID),
		Status:    string(b.State),
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
