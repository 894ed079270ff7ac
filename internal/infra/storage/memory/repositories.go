package memory

import (
	"context"
	"sync"

	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	"staypay/internal/domain/shared/events"
)

// BookingRepository is an in-memory implementation for dev mode and tests.
// Saves are version-checked so optimistic-concurrency behavior matches the
// durable store.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return &stored, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[b.ID]; ok && stored.Version != b.Version {
		return uow.ErrConcurrentUpdate
	}
	b.Version++
	snapshot := *b
	snapshot.EventRecorder = events.EventRecorder{}
	r.items[b.ID] = snapshot
	return nil
}

// CodeRepository keeps check-in codes in memory, indexed by booking and hash.
type CodeRepository struct {
	mu    sync.RWMutex
	items map[domaincode.CodeID]domaincode.Code
}

func NewCodeRepository() *CodeRepository {
	return &CodeRepository{items: make(map[domaincode.CodeID]domaincode.Code)}
}

func (r *CodeRepository) ByID(ctx context.Context, id domaincode.CodeID) (*domaincode.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domaincode.ErrCodeNotFound
	}
	return &stored, nil
}

func (r *CodeRepository) ByBookingID(ctx context.Context, bookingID string) (*domaincode.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.items {
		if stored.BookingID == bookingID && stored.State != domaincode.StateVoid {
			out := stored
			return &out, nil
		}
	}
	// Fall back to a voided code so previews can still explain the
	// cancellation.
	for _, stored := range r.items {
		if stored.BookingID == bookingID {
			out := stored
			return &out, nil
		}
	}
	return nil, domaincode.ErrCodeNotFound
}

func (r *CodeRepository) ByHash(ctx context.Context, hash string) (*domaincode.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.items {
		if stored.Hash == hash {
			out := stored
			return &out, nil
		}
	}
	return nil, domaincode.ErrCodeNotFound
}

func (r *CodeRepository) Save(ctx context.Context, code *domaincode.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[code.ID]; ok && stored.Version != code.Version {
		return uow.ErrConcurrentUpdate
	}
	code.Version++
	snapshot := *code
	snapshot.EventRecorder = events.EventRecorder{}
	r.items[code.ID] = snapshot
	return nil
}
