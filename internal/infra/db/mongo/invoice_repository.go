package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staypay/internal/app/uow"
	"staypay/internal/domain/settlement"
	"staypay/internal/domain/shared/money"

	domaininvoice "staypay/internal/domain/invoice"
)

type InvoiceRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) *InvoiceRepository {
	col := db.Collection("agg_invoice")
	partial := options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"payment_ref": bson.M{"$gt": ""}})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "payment_ref", Value: 1}},
		Options: partial.SetName("uniq_payment_ref"),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "track", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_booking_track"),
	})
	return &InvoiceRepository{col: col, counters: db.Collection("app_counters")}
}

// NextID allocates the next invoice primary key from a counters document.
// The counter only moves forward, so derived references never collide.
func (r *InvoiceRepository) NextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "invoice"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

func (r *InvoiceRepository) ByID(ctx context.Context, id int64) (*domaininvoice.Invoice, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *InvoiceRepository) ByBookingAndTrack(ctx context.Context, bookingID string, track domaininvoice.Track) (*domaininvoice.Invoice, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID, "track": string(track)})
}

func (r *InvoiceRepository) ByPaymentRef(ctx context.Context, ref string) (*domaininvoice.Invoice, error) {
	return r.findOne(ctx, bson.M{"payment_ref": ref})
}

func (r *InvoiceRepository) findOne(ctx context.Context, filter bson.M) (*domaininvoice.Invoice, error) {
	var doc invoiceDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domaininvoice.ErrInvoiceNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *InvoiceRepository) Save(ctx context.Context, inv *domaininvoice.Invoice) error {
	doc := newInvoiceDocument(inv)
	filter := bson.M{"_id": doc.ID, "version": inv.Version}
	doc.Version = inv.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "uniq_payment_ref") {
				return &domaininvoice.DuplicateReferenceError{Ref: inv.PaymentRef}
			}
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	inv.Version = doc.Version
	return nil
}

type invoiceDocument struct {
	ID            int64                `bson:"_id"`
	BookingID     string               `bson:"booking_id"`
	PropertyID    string               `bson:"property_id"`
	OwnerID       string               `bson:"owner_id"`
	Track         string               `bson:"track"`
	State         string               `bson:"state"`
	Number        string               `bson:"invoice_number"`
	PaymentRef    string               `bson:"payment_ref"`
	ReceiptNumber string               `bson:"receipt_number"`
	Total         money.Money          `bson:"total"`
	TransportFare money.Money          `bson:"transport_fare"`
	Breakdown     settlement.Breakdown `bson:"breakdown"`
	Notes         string               `bson:"notes"`
	RejectReasons []string             `bson:"reject_reasons"`
	PaymentMethod string               `bson:"payment_method"`
	ExternalRef   string               `bson:"external_ref"`
	IssuedAt      int64                `bson:"issued_at"`
	VerifiedAt    int64                `bson:"verified_at"`
	ApprovedAt    int64                `bson:"approved_at"`
	PaidAt        int64                `bson:"paid_at"`
	CreatedAt     int64                `bson:"created_at"`
	UpdatedAt     int64                `bson:"updated_at"`
	Version       int64                `bson:"version"`
}

func newInvoiceDocument(inv *domaininvoice.Invoice) invoiceDocument {
	return invoiceDocument{
		ID:            inv.ID,
		BookingID:     inv.BookingID,
		PropertyID:    inv.PropertyID,
		OwnerID:       inv.OwnerID,
		Track:         string(inv.Track),
		State:         string(inv.State),
		Number:        inv.Number,
		PaymentRef:    inv.PaymentRef,
		ReceiptNumber: inv.ReceiptNumber,
		Total:         inv.Total,
		TransportFare: inv.TransportFare,
		Breakdown:     inv.Breakdown,
		Notes:         inv.Notes,
		RejectReasons: inv.RejectReasons,
		PaymentMethod: inv.PaymentMethod,
		ExternalRef:   inv.ExternalRef,
		IssuedAt:      optionalMilli(inv.IssuedAt),
		VerifiedAt:    optionalMilli(inv.VerifiedAt),
		ApprovedAt:    optionalMilli(inv.ApprovedAt),
		PaidAt:        optionalMilli(inv.PaidAt),
		CreatedAt:     inv.CreatedAt.UnixMilli(),
		UpdatedAt:     inv.UpdatedAt.UnixMilli(),
		Version:       inv.Version,
	}
}

func (d invoiceDocument) toAggregate() *domaininvoice.Invoice {
	return &domaininvoice.Invoice{
		ID:            d.ID,
		BookingID:     d.BookingID,
		PropertyID:    d.PropertyID,
		OwnerID:       d.OwnerID,
		Track:         domaininvoice.Track(d.Track),
		State:         domaininvoice.InvoiceState(d.State),
		Number:        d.Number,
		PaymentRef:    d.PaymentRef,
		ReceiptNumber: d.ReceiptNumber,
		Total:         d.Total,
		TransportFare: d.TransportFare,
		Breakdown:     d.Breakdown,
		Notes:         d.Notes,
		RejectReasons: d.RejectReasons,
		PaymentMethod: d.PaymentMethod,
		ExternalRef:   d.ExternalRef,
		IssuedAt:      optionalTime(d.IssuedAt),
		VerifiedAt:    optionalTime(d.VerifiedAt),
		ApprovedAt:    optionalTime(d.ApprovedAt),
		PaidAt:        optionalTime(d.PaidAt),
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}
