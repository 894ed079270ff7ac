package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staypay/internal/app/uow"
	domaincode "staypay/internal/domain/checkincode"
)

type CodeRepository struct {
	col *mongo.Collection
}

func NewCodeRepository(db *mongo.Database) *CodeRepository {
	col := db.Collection("agg_checkin_code")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "booking_id", Value: 1}},
	})
	return &CodeRepository{col: col}
}

func (r *CodeRepository) ByID(ctx context.Context, id domaincode.CodeID) (*domaincode.Code, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

// ByBookingID resolves the live code for a booking. A voided code only
// matches when no other code exists, so reissues shadow their predecessor.
func (r *CodeRepository) ByBookingID(ctx context.Context, bookingID string) (*domaincode.Code, error) {
	code, err := r.findOne(ctx, bson.M{"booking_id": bookingID, "state": bson.M{"$ne": string(domaincode.StateVoid)}})
	if err == domaincode.ErrCodeNotFound {
		return r.findOne(ctx, bson.M{"booking_id": bookingID})
	}
	return code, err
}

func (r *CodeRepository) ByHash(ctx context.Context, hash string) (*domaincode.Code, error) {
	return r.findOne(ctx, bson.M{"hash": hash})
}

func (r *CodeRepository) findOne(ctx context.Context, filter bson.M) (*domaincode.Code, error) {
	var doc codeDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domaincode.ErrCodeNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CodeRepository) Save(ctx context.Context, code *domaincode.Code) error {
	doc := newCodeDocument(code)
	filter := bson.M{"_id": doc.ID, "version": code.Version}
	doc.Version = code.Version + 1
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
	code.Version = doc.Version
	return nil
}

type codeDocument struct {
	ID          string `bson:"_id"`
	BookingID   string `bson:"booking_id"`
	Visible     string `bson:"visible"`
	Hash        string `bson:"hash"`
	State       string `bson:"state"`
	GeneratedAt int64  `bson:"generated_at"`
	UsedAt      int64  `bson:"used_at"`
	UsedByOwner string `bson:"used_by_owner"`
	VoidedAt    int64  `bson:"voided_at"`
	VoidReason  string `bson:"void_reason"`
	Version     int64  `bson:"version"`
}

func newCodeDocument(c *domaincode.Code) codeDocument {
	return codeDocument{
		ID:          string(c.ID),
		BookingID:   c.BookingID,
		Visible:     c.Visible,
		Hash:        c.Hash,
		State:       string(c.State),
		GeneratedAt: c.GeneratedAt.UnixMilli(),
		UsedAt:      optionalMilli(c.UsedAt),
		UsedByOwner: c.UsedByOwner,
		VoidedAt:    optionalMilli(c.VoidedAt),
		VoidReason:  c.VoidReason,
		Version:     c.Version,
	}
}

func (d codeDocument) toAggregate() *domaincode.Code {
	return &domaincode.Code{
		ID:          domaincode.CodeID(d.ID),
		BookingID:   d.BookingID,
		Visible:     d.Visible,
		Hash:        d.Hash,
		State:       domaincode.CodeState(d.State),
		GeneratedAt: timestampToTime(d.GeneratedAt),
		UsedAt:      optionalTime(d.UsedAt),
		UsedByOwner: d.UsedByOwner,
		VoidedAt:    optionalTime(d.VoidedAt),
		VoidReason:  d.VoidReason,
		Version:     d.Version,
	}
}

func optionalMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func optionalTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
