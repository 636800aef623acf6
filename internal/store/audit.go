package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ersinakyuz/todoapp-backend/internal/models"
)

// AuditStore keeps the change journal in MongoDB. Writes are best-effort:
// a failed journal entry is logged, never surfaced to the request.
type AuditStore struct {
	col *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{col: db.Collection("audit_events")}
}

// Record appends one event to the journal.
func (s *AuditStore) Record(ctx context.Context, ev models.AuditEvent) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		log.Printf("audit record error: %v", err)
	}
}

// ListByActor returns an actor's journal entries, newest first.
func (s *AuditStore) ListByActor(ctx context.Context, actor string) ([]models.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"actor": actor}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.AuditEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
