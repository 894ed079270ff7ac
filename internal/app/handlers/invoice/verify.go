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
)

const verifyKey = "invoice.verify"

type VerifyCommand struct {
	InvoiceID int64
	Notes     string
	ActorID   string
}

func (c VerifyCommand) Key() string { return verifyKey }

type VerifyResult struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
}

type VerifyHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Audit      audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *VerifyHandler) Handle(ctx context.Context, cmd VerifyCommand) (*VerifyResult, error) {
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

	now := h.now()
	before := string(inv.State)
	if err := inv.Verify(cmd.Notes, now); err != nil {
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
			Action:     "invoice.verify",
			EntityType: "invoice",
			EntityID:   strconv.FormatInt(inv.ID, 10),
			Before:     before,
			After:      string(inv.State),
			ActorID:    cmd.ActorID,
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

	return &VerifyResult{InvoiceID: inv.ID, Status: string(inv.State)}, nil
}

func (h *VerifyHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *VerifyHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[VerifyCommand, *VerifyResult] = (*VerifyHandler)(nil)
