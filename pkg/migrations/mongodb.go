package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoCollections creates the indexes the event archive and the rule
// audit trail query by. Collections themselves are created lazily on first
// insert.
func EnsureMongoCollections(ctx context.Context, db *mongo.Database, archiveCollection string) error {
	archiveIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sent_at", Value: -1}},
			Options: options.Index().SetName("idx_sent_events_sent_at"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "sent_at", Value: -1}},
			Options: options.Index().SetName("idx_sent_events_type_sent_at"),
		},
		{
			Keys:    bson.D{{Key: "page_name", Value: 1}},
			Options: options.Index().SetName("idx_sent_events_page_name"),
		},
	}
	if err := createIndexes(ctx, db.Collection(archiveCollection), archiveIndexes); err != nil {
		return err
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_rule_audit_logs_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "rule_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_rule_audit_logs_rule_id_timestamp"),
		},
	}
	return createIndexes(ctx, db.Collection("rule_audit_logs"), auditIndexes)
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create indexes on %s: %w", collection.Name(), err)
		}
	}
	return nil
}
