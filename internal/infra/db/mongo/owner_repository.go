package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainowner "staypay/internal/domain/owner"
)

type OwnerRepository struct {
	col *mongo.Collection
}

func NewOwnerRepository(db *mongo.Database) *OwnerRepository {
	return &OwnerRepository{col: db.Collection("agg_owner")}
}

func (r *OwnerRepository) ByID(ctx context.Context, id string) (*domainowner.Owner, error) {
	var doc ownerDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainowner.ErrOwnerNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Put upserts an owner profile. Used by seeding and profile sync, not by
// the settlement transitions themselves.
func (r *OwnerRepository) Put(ctx context.Context, o *domainowner.Owner) error {
	doc := ownerDocument{
		ID:     o.ID,
		Name:   o.Name,
		Phone:  o.Phone,
		Payout: o.Payout,
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type ownerDocument struct {
	ID     string                    `bson:"_id"`
	Name   string                    `bson:"name"`
	Phone  string                    `bson:"phone"`
	Payout domainowner.PayoutProfile `bson:"payout"`
}

func (d ownerDocument) toAggregate() *domainowner.Owner {
	return &domainowner.Owner{
		ID:     d.ID,
		Name:   d.Name,
		Phone:  d.Phone,
		Payout: d.Payout,
	}
}
