package memory

import (
	"context"
	"errors"

	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	domaininvoice "staypay/internal/domain/invoice"
	domainowner "staypay/internal/domain/owner"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo domainbooking.Repository
	CodeRepo    domaincode.Repository
	InvoiceRepo domaininvoice.Repository
	OwnerRepo   domainowner.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.CodeRepo == nil || f.InvoiceRepo == nil || f.OwnerRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		bookings: f.BookingRepo,
		codes:    f.CodeRepo,
		invoices: f.InvoiceRepo,
		owners:   f.OwnerRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	bookings domainbooking.Repository
	codes    domaincode.Repository
	invoices domaininvoice.Repository
	owners   domainowner.Repository
}

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Codes() domaincode.Repository { return u.codes }

func (u *Unit) Invoices() domaininvoice.Repository { return u.invoices }

func (u *Unit) Owners() domainowner.Repository { return u.owners }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }
