package dispatch

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"beacon/internal/logger"
	"beacon/internal/xdm"
)

// Archiver keeps a fire-and-forget audit trail of delivered documents.
// Failures are logged and never surface to the send path.
type Archiver struct {
	collection *mongo.Collection
	logger     logger.Logger
}

func NewArchiver(client *mongo.Client, database, collection string, log logger.Logger) *Archiver {
	return &Archiver{
		collection: client.Database(database).Collection(collection),
		logger:     log,
	}
}

// Record archives a delivered document asynchronously.
func (a *Archiver) Record(doc xdm.Document, eventType string) {
	pageName := doc.VendorField(xdm.VendorPageName)
	entry := bson.M{
		"event_type":  eventType,
		"page_name":   pageName,
		"event_count": doc.EventCount(),
		"sent_at":     time.Now().UTC(),
		"document":    map[string]interface{}(doc),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := a.collection.InsertOne(ctx, entry); err != nil {
			a.logger.Warnw("Failed to archive sent event",
				"event_type", eventType,
				"page_name", pageName,
				"error", err,
			)
		}
	}()
}
