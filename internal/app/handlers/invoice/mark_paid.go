package invoice

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"staypay/internal/app/audit"
	"staypay/internal/app/commands"
	"staypay/internal/app/handlers/support"
	"staypay/internal/app/outbox"
	"staypay/internal/app/uow"
	domaininvoice "staypay/internal/domain/invoice"
)

const markPaidKey = "invoice.mark_paid"

type MarkPaidCommand struct {
	InvoiceID int64
	Method    string
	Ref       string
	ActorID   string
}

func (c MarkPaidCommand) Key() string { return markPaidKey }

type MarkPaidResult struct {
	InvoiceID     int64                        `json:"invoice_id"`
	Status        string                       `json:"status"`
	ReceiptNumber string                       `json:"receipt_number"`
	Receipt       domaininvoice.ReceiptPayload `json:"receipt"`
}

// MarkPaidHandler records the settlement payment. Paying an already-PAID
// invoice is an explicit error, never a silent no-op: repayment must be a
// conscious decision. A caller-supplied reference colliding with another
// invoice fails before any mutation.
type MarkPaidHandler struct {
	UoWFactory uow.UoWFactory
	Prefixes   ReferencePrefixes
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Audit      audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *MarkPaidHandler) Handle(ctx context.Context, cmd MarkPaidCommand) (*MarkPaidResult, error) {
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
	if inv.State == domaininvoice.StatePaid {
		return nil, domaininvoice.ErrAlreadyPaid
	}
	if cmd.Ref != "" {
		if err := ensureRefFree(ctx, unit, cmd.Ref, inv.ID); err != nil {
			return nil, err
		}
	}

	now := h.now()
	prefixes := h.Prefixes.withDefaults()
	receiptNumber := domaininvoice.Number(prefixes.Receipt, now, inv.ID)

	before := string(inv.State)
	if err := inv.MarkPaid(cmd.Method, cmd.Ref, receiptNumber, now); err != nil {
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
			Action:     "invoice.mark_paid",
			EntityType: "invoice",
			EntityID:   strconv.FormatInt(inv.ID, 10),
			Before:     before,
			After:      string(inv.State),
			ActorID:    cmd.ActorID,
			Details:    map[string]any{"method": cmd.Method, "receipt_number": inv.ReceiptNumber},
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

	return &MarkPaidResult{
		InvoiceID:     inv.ID,
		Status:        string(inv.State),
		ReceiptNumber: inv.ReceiptNumber,
		Receipt:       inv.Receipt(),
	}, nil
}

func (h *MarkPaidHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *MarkPaidHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[MarkPaidCommand, *MarkPaidResult] = (*MarkPaidHandler)(nil)
