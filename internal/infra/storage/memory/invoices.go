package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"staypay/internal/app/uow"
	domaininvoice "staypay/internal/domain/invoice"
	"staypay/internal/domain/shared/events"
)

// InvoiceRepository mirrors the durable invoice store: atomic id sequence,
// version-checked saves, and lookups by (booking, track) and payment ref.
type InvoiceRepository struct {
	mu    sync.RWMutex
	seq   atomic.Int64
	items map[int64]domaininvoice.Invoice
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{items: make(map[int64]domaininvoice.Invoice)}
}

func (r *InvoiceRepository) NextID(ctx context.Context) (int64, error) {
	return r.seq.Add(1), nil
}

func (r *InvoiceRepository) ByID(ctx context.Context, id int64) (*domaininvoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domaininvoice.ErrInvoiceNotFound
	}
	return &stored, nil
}

func (r *InvoiceRepository) ByBookingAndTrack(ctx context.Context, bookingID string, track domaininvoice.Track) (*domaininvoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.items {
		if stored.BookingID == bookingID && stored.Track == track {
			out := stored
			return &out, nil
		}
	}
	return nil, domaininvoice.ErrInvoiceNotFound
}

func (r *InvoiceRepository) ByPaymentRef(ctx context.Context, ref string) (*domaininvoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.items {
		if stored.PaymentRef != "" && stored.PaymentRef == ref {
			out := stored
			return &out, nil
		}
	}
	return nil, domaininvoice.ErrInvoiceNotFound
}

func (r *InvoiceRepository) Save(ctx context.Context, inv *domaininvoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[inv.ID]; ok && stored.Version != inv.Version {
		return uow.ErrConcurrentUpdate
	}
	// Enforce the same unique constraint the durable store carries.
	if inv.PaymentRef != "" {
		for id, stored := range r.items {
			if id != inv.ID && stored.PaymentRef == inv.PaymentRef {
				return &domaininvoice.DuplicateReferenceError{Ref: inv.PaymentRef}
			}
		}
	}
	inv.Version++
	snapshot := *inv
	snapshot.EventRecorder = events.EventRecorder{}
	r.items[inv.ID] = snapshot
	return nil
}
