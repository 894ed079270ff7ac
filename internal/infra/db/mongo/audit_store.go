package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staypay/internal/app/audit"
)

type AuditStore struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	col := db.Collection("app_audit")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "at", Value: -1}},
	})
	return &AuditStore{col: col, timeout: 3 * time.Second}
}

// Record inserts outside any caller session. Audit rows run after the
// owning transaction has committed and must not join a dead session.
func (s *AuditStore) Record(_ context.Context, entry audit.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	doc := auditDocument{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Before:     entry.Before,
		After:      entry.After,
		ActorID:    entry.ActorID,
		Details:    entry.Details,
		At:         entry.At,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// Recent lists the latest entries for one entity, newest first.
func (s *AuditStore) Recent(ctx context.Context, entityType, entityID string, limit int64) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"entity_type": entityType, "entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []audit.Entry
	for cur.Next(ctx) {
		var doc auditDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, audit.Entry{
			Action:     doc.Action,
			EntityType: doc.EntityType,
			EntityID:   doc.EntityID,
			Before:     doc.Before,
			After:      doc.After,
			ActorID:    doc.ActorID,
			Details:    doc.Details,
			At:         doc.At,
		})
	}
	return out, cur.Err()
}

type auditDocument struct {
	Action     string         `bson:"action"`
	EntityType string         `bson:"entity_type"`
	EntityID   string         `bson:"entity_id"`
	Before     string         `bson:"before"`
	After      string         `bson:"after"`
	ActorID    string         `bson:"actor_id"`
	Details    map[string]any `bson:"details"`
	At         time.Time      `bson:"at"`
}

var _ audit.Recorder = (*AuditStore)(nil)
