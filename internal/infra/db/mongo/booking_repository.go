package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staypay/internal/app/uow"
	domainbooking "staypay/internal/domain/booking"
	domainrange "staypay/internal/domain/shared/daterange"
	"staypay/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID            string        `bson:"_id"`
	PropertyID    string        `bson:"property_id"`
	OwnerID       string        `bson:"owner_id"`
	GuestName     string        `bson:"guest_name"`
	GuestPhone    string        `bson:"guest_phone"`
	CustomerID    string        `bson:"customer_id"`
	Stay          rangeDocument `bson:"stay"`
	TotalAmount   money.Money   `bson:"total_amount"`
	TransportFare money.Money   `bson:"transport_fare"`
	State         string        `bson:"state"`
	Rating        int           `bson:"rating"`
	Feedback      string        `bson:"feedback"`
	CancelReason  string        `bson:"cancel_reason"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		PropertyID:    b.PropertyID,
		OwnerID:       b.OwnerID,
		GuestName:     b.GuestName,
		GuestPhone:    b.GuestPhone,
		CustomerID:    b.CustomerID,
		Stay:          rangeDocument{CheckIn: b.Stay.CheckIn.UnixMilli(), CheckOut: b.Stay.CheckOut.UnixMilli()},
		TotalAmount:   b.TotalAmount,
		TransportFare: b.TransportFare,
		State:         string(b.State),
		Rating:        b.Rating,
		Feedback:      b.Feedback,
		CancelReason:  b.CancelReason,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		PropertyID:    d.PropertyID,
		OwnerID:       d.OwnerID,
		GuestName:     d.GuestName,
		GuestPhone:    d.GuestPhone,
		CustomerID:    d.CustomerID,
		Stay:          domainrange.DateRange{CheckIn: timestampToTime(d.Stay.CheckIn), CheckOut: timestampToTime(d.Stay.CheckOut)},
		TotalAmount:   d.TotalAmount,
		TransportFare: d.TransportFare,
		State:         domainbooking.BookingState(d.State),
		Rating:        d.Rating,
		Feedback:      d.Feedback,
		CancelReason:  d.CancelReason,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
