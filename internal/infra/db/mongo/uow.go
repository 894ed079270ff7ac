package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domaincode "staypay/internal/domain/checkincode"
	domaininvoice "staypay/internal/domain/invoice"
	domainowner "staypay/internal/domain/owner"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	BookingRepo domainbooking.Repository
	CodeRepo    domaincode.Repository
	InvoiceRepo domaininvoice.Repository
	OwnerRepo   domainowner.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		bookings: f.BookingRepo,
		codes:    f.CodeRepo,
		invoices: f.InvoiceRepo,
		owners:   f.OwnerRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	bookings domainbooking.Repository
	codes    domaincode.Repository
	invoices domaininvoice.Repository
	owners   domainowner.Repository
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Codes() domaincode.Repository {
	return u.codes
}

func (u *Unit) Invoices() domaininvoice.Repository {
	return u.invoices
}

func (u *Unit) Owners() domainowner.Repository {
	return u.owners
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
