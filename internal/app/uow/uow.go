package uow

import (
	"context"
	"errors"

	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	domaininvoice "staypay/internal/domain/invoice"
	domainowner "staypay/internal/domain/owner"
)

// ErrConcurrentUpdate is surfaced by repositories when a conditional write
// loses an optimistic-concurrency race. The retry middleware re-runs the
// whole read-compute-write cycle on it.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary. Every
// multi-entity transition (code flip + booking flip, invoice references +
// state change) commits or rolls back as one unit.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Codes() domaincode.Repository
	Invoices() domaininvoice.Repository
	Owners() domainowner.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
