package invoice

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"staypay/internal/app/audit"
	"staypay/internal/app/commands"
	"staypay/internal/app/handlers/support"
	"staypay/internal/app/middleware"
	"staypay/internal/app/outbox"
	"staypay/internal/app/policies"
	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaininvoice "staypay/internal/domain/invoice"
	"staypay/internal/domain/settlement"
)

const createOrSubmitKey = "invoice.create_or_submit"

// CreateOrSubmitCommand creates the booking's invoice draft if it does not
// exist and submits it. Safe to repeat: an existing invoice is reused and
// submission past DRAFT is a no-op.
type CreateOrSubmitCommand struct {
	BookingID       string
	OwnerID         string
	Track           domaininvoice.Track
	IdempotencyKeyV string
}

func (c CreateOrSubmitCommand) Key() string { return createOrSubmitKey }

func (c CreateOrSubmitCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateOrSubmitCommand) ResultPrototype() any { return &CreateOrSubmitResult{} }

type CreateOrSubmitResult struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	Created   bool   `json:"created"`
	Submitted bool   `json:"submitted"`
}

type CreateOrSubmitHandler struct {
	UoWFactory        uow.UoWFactory
	Commission        policies.CommissionPort
	DefaultTaxPercent float64
	Outbox            outbox.Outbox
	Encoder           outbox.EventEncoder
	Audit             audit.Recorder
	Logger            *slog.Logger
	Now               func() time.Time
}

func (h *CreateOrSubmitHandler) Handle(ctx context.Context, cmd CreateOrSubmitCommand) (*CreateOrSubmitResult, error) {
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
	if b.State != domainbooking.StateCheckedOut {
		return nil, domainbooking.ErrInvalidState
	}

	track := cmd.Track
	if track == "" {
		track = domaininvoice.TrackCustomer
	}

	now := h.now()
	created := false
	inv, err := unit.Invoices().ByBookingAndTrack(ctx, string(b.ID), track)
	switch {
	case err == nil:
	case errors.Is(err, domaininvoice.ErrInvoiceNotFound):
		inv, err = h.newDraft(ctx, unit, b, track, now)
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, err
	}

	submitted, err := inv.Submit(now)
	if err != nil {
		return nil, err
	}
	if created || submitted {
		if err := unit.Invoices().Save(ctx, inv); err != nil {
			return nil, err
		}
	}

	pending := inv.PendingEvents()
	inv.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if created || submitted {
		invoiceID := inv.ID
		state := string(inv.State)
		uow.AfterCommit(ctx, func(ctx context.Context) {
			audit.BestEffort(ctx, h.Audit, h.Logger, audit.Entry{
				Action:     "invoice.submit",
				EntityType: "invoice",
				EntityID:   strconv.FormatInt(invoiceID, 10),
				Before:     string(domaininvoice.StateDraft),
				After:      state,
				ActorID:    cmd.OwnerID,
				At:         now,
			})
		})
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
		uow.RunAfterCommitHooks(ctx)
	}

	return &CreateOrSubmitResult{
		InvoiceID: inv.ID,
		Status:    string(inv.State),
		Created:   created,
		Submitted: submitted,
	}, nil
}

func (h *CreateOrSubmitHandler) newDraft(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, track domaininvoice.Track, now time.Time) (*domaininvoice.Invoice, error) {
	commissionPercent, err := h.Commission.EffectiveCommissionPercent(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	preview, err := settlement.Compute(b.TotalAmount, b.TransportFare, commissionPercent, h.DefaultTaxPercent)
	if err != nil {
		return nil, err
	}
	id, err := unit.Invoices().NextID(ctx)
	if err != nil {
		return nil, err
	}
	return domaininvoice.NewDraft(domaininvoice.DraftParams{
		ID:            id,
		BookingID:     string(b.ID),
		PropertyID:    b.PropertyID,
		OwnerID:       b.OwnerID,
		Track:         track,
		Total:         b.TotalAmount,
		TransportFare: b.TransportFare,
		Breakdown:     preview,
		CreatedAt:     now,
	}), nil
}

func (h *CreateOrSubmitHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateOrSubmitHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateOrSubmitCommand, *CreateOrSubmitResult] = (*CreateOrSubmitHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateOrSubmitCommand)(nil)
