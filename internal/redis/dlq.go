package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paymenthub/internal/domain"
)

// DefaultDeadLetterList is the Redis list that receives undeliverable events.
const DefaultDeadLetterList = "ledger:events:dead-letter"

// DeadLetterQueue parks events the relay could not publish.
type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
}

// NewDeadLetterQueue creates a dead-letter queue backed by a Redis list.
func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger, listName string) *DeadLetterQueue {
	if listName == "" {
		listName = DefaultDeadLetterList
	}
	return &DeadLetterQueue{client: client, logger: logger, listName: listName}
}

// Send appends every event to the dead-letter list. Events that cannot be
// encoded are logged and skipped; a Redis failure aborts the batch.
func (q *DeadLetterQueue) Send(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]any, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			q.logger.Error("failed to marshal event", zap.Uint64("sequence", e.Sequence), zap.Error(err))
			continue
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}

	if err := q.client.RPush(ctx, q.listName, values...).Err(); err != nil {
		return err
	}

	q.logger.Warn("events dead-lettered", zap.String("list", q.listName), zap.Int("count", len(values)))
	return nil
}
