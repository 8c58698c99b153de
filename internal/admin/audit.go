package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditStore keeps the rule change trail in MongoDB, alongside the sent
// event archive.
type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *AuditLog) error
	GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error)
}

type mongoAuditStore struct {
	collection *mongo.Collection
}

func NewAuditStore(client *mongo.Client, database, collection string) AuditStore {
	return &mongoAuditStore{
		collection: client.Database(database).Collection(collection),
	}
}

func (s *mongoAuditStore) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	if _, err := s.collection.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (s *mongoAuditStore) GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error) {
	filter := bson.M{}
	if ruleID != nil {
		filter["rule_id"] = *ruleID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode audit logs: %w", err)
	}
	return logs, nil
}
