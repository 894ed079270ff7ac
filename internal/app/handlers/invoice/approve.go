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
	"staypay/internal/app/outbox"
	"staypay/internal/app/policies"
	"staypay/internal/app/uow"
	domaininvoice "staypay/internal/domain/invoice"
	"staypay/internal/domain/settlement"
)

const approveKey = "invoice.approve"

type ApproveCommand struct {
	InvoiceID          int64
	TaxPercentOverride *float64
	ActorID            string
}

func (c ApproveCommand) Key() string { return approveKey }

type ApproveResult struct {
	InvoiceID  int64                  `json:"invoice_id"`
	Status     string                 `json:"status"`
	Number     string                 `json:"invoice_number"`
	PaymentRef string                 `json:"payment_ref"`
	Breakdown  settlement.Breakdown   `json:"breakdown"`
}

// ApproveHandler runs the payout gate, settles the final breakdown and
// assigns the invoice number and payment reference. The gate runs before
// anything is assigned: a blocked approval leaves no references behind.
type ApproveHandler struct {
	UoWFactory        uow.UoWFactory
	Commission        policies.CommissionPort
	DefaultTaxPercent float64
	Prefixes          ReferencePrefixes
	Outbox            outbox.Outbox
	Encoder           outbox.EventEncoder
	Audit             audit.Recorder
	Logger            *slog.Logger
	Now               func() time.Time
}

func (h *ApproveHandler) Handle(ctx context.Context, cmd ApproveCommand) (*ApproveResult, error) {
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

	inv, err := unit.Invoices().ByID(ctx, cmd.InvoiceID)
	if err != nil {
		return nil, err
	}

	payee, err := unit.Owners().ByID(ctx, inv.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := payee.Payout.Validate(); err != nil {
		return nil, err
	}

	commissionPercent, err := h.Commission.EffectiveCommissionPercent(ctx, inv.PropertyID)
	if err != nil {
		return nil, err
	}
	taxPercent := h.DefaultTaxPercent
	if cmd.TaxPercentOverride != nil {
		taxPercent = *cmd.TaxPercentOverride
	}
	final, err := settlement.Compute(inv.Total, inv.TransportFare, commissionPercent, taxPercent)
	if err != nil {
		return nil, err
	}

	now := h.now()
	prefixes := h.Prefixes.withDefaults()
	issuedAt := inv.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = now
	}
	number := domaininvoice.Number(prefixes.ForTrack(inv.Track), issuedAt, inv.ID)
	paymentRef := domaininvoice.PaymentRef(prefixes.PaymentRef, inv.ID, now)

	if inv.PaymentRef == "" {
		if err := ensureRefFree(ctx, unit, paymentRef, inv.ID); err != nil {
			return nil, err
		}
	}

	before := string(inv.State)
	if err := inv.Approve(final, number, paymentRef, now); err != nil {
		return nil, err
	}
	if err := unit.Invoices().Save(ctx, inv); err != nil {
		return nil, err
	}

	pending := inv.PendingEvents()
	inv.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	uow.AfterCommit(ctx, func(ctx context.Context) {
		audit.BestEffort(ctx, h.Audit, h.Logger, audit.Entry{
			Action:     "invoice.approve",
			EntityType: "invoice",
			EntityID:   strconv.FormatInt(inv.ID, 10),
			Before:     before,
			After:      string(inv.State),
			ActorID:    cmd.ActorID,
			Details:    map[string]any{"invoice_number": inv.Number, "net_payable": inv.Breakdown.NetPayable.Amount},
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

	return &ApproveResult{
		InvoiceID:  inv.ID,
		Status:     string(inv.State),
		Number:     inv.Number,
		PaymentRef: inv.PaymentRef,
		Breakdown:  inv.Breakdown,
	}, nil
}

// ensureRefFree surfaces a DuplicateReferenceError when the candidate
// payment reference already belongs to a different invoice.
func ensureRefFree(ctx context.Context, unit uow.UnitOfWork, ref string, selfID int64) error {
	existing, err := unit.Invoices().ByPaymentRef(ctx, ref)
	switch {
	case errors.Is(err, domaininvoice.ErrInvoiceNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	default:
		return &domaininvoice.DuplicateReferenceError{Ref: ref}
	}
}

func (h *ApproveHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ApproveHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ApproveCommand, *ApproveResult] = (*ApproveHandler)(nil)
