package mongodb

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paymenthub/internal/domain"
)

// archivedEvent is the document stored per ledger event. The event id is the
// document id, so re-delivered events are rejected as duplicates.
type archivedEvent struct {
	ID         string         `bson:"_id"`
	Sequence   uint64         `bson:"sequence"`
	Type       string         `bson:"type"`
	Key        string         `bson:"key"`
	Payload    map[string]any `bson:"payload"`
	CreatedAt  time.Time      `bson:"created_at"`
	ArchivedAt time.Time      `bson:"archived_at"`
}

// EventArchive is an events.Publisher writing to a MongoDB collection.
type EventArchive struct {
	Client     *mongo.Client
	Database   string
	Collection string
}

// NewEventArchive creates an archive over database.collection.
func NewEventArchive(client *mongo.Client, database, collection string) *EventArchive {
	if collection == "" {
		collection = "ledger_events"
	}
	return &EventArchive{Client: client, Database: database, Collection: collection}
}

func (r *EventArchive) collection() *mongo.Collection {
	return r.Client.Database(r.Database).Collection(r.Collection)
}

// Publish inserts the batch. Events already archived are skipped.
func (r *EventArchive) Publish(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]any, 0, len(events))
	for _, e := range events {
		var payload map[string]any
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return err
		}
		docs = append(docs, archivedEvent{
			ID:         e.ID,
			Sequence:   e.Sequence,
			Type:       string(e.Type),
			Key:        e.Key,
			Payload:    payload,
			CreatedAt:  e.CreatedAt,
			ArchivedAt: now,
		})
	}

	_, err := r.collection().InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return err
	}
	return nil
}

// onlyDuplicates reports whether every write error in err is a duplicate key.
func onlyDuplicates(err error) bool {
	bwe, ok := err.(mongo.BulkWriteException)
	if !ok {
		return mongo.IsDuplicateKeyError(err)
	}
	if bwe.WriteConcernError != nil {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
