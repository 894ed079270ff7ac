package invoice

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"staypay/internal/app/audit"
	"staypay/internal/app/commands"
	"staypay/internal/app/handlers/support"
	"staypay/internal/app/outbox"
	"staypay/internal/app/uow"
)

const rejectKey = "invoice.reject"

type RejectCommand struct {
	InvoiceID int64
	Reasons   []string
	ActorID   string
}

func (c RejectCommand) Key() string { return rejectKey }

type RejectResult struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
}

type RejectHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Audit      audit.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *RejectHandler) Handle(ctx context.Context, cmd RejectCommand) (*RejectResult, error) {
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
	if err := inv.Reject(cmd.Reasons, now); err != nil {
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
			Action:     "invoice.reject",
			EntityType: "invoice",
			EntityID:   strconv.FormatInt(inv.ID, 10),
			Before:     before,
			After:      string(inv.State),
			ActorID:    cmd.ActorID,
			Details:    map[string]any{"reasons": strings.Join(cmd.Reasons, "; ")},
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

	return &RejectResult{InvoiceID: inv.ID, Status: string(inv.State)}, nil
}

func (h *RejectHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RejectHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RejectCommand, *RejectResult] = (*RejectHandler)(nil)
