package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iare/sceh-portal/internal/core/domain"
)

const auditCollection = "session_events"

// AuditRepository stores session events in MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// InsertEvent persists a session event to the audit collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"kind":        string(event.Kind),
		"email":       event.Email,
		"method":      event.Method,
		"at":          event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
	}
	if event.Role != "" {
		doc["role"] = string(event.Role)
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes supports per-user history lookups and time range scans.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
