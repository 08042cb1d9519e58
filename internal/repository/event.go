package repository

import (
	"context"
	"time"

	"paymenthub/internal/domain"
)

// EventRepository is the append-only notification log.
type EventRepository interface {
	// Append stores the event and assigns its Sequence.
	Append(ctx context.Context, event *domain.Event) error

	// ListUnpublished returns up to limit unpublished events in sequence order.
	ListUnpublished(ctx context.Context, limit int) ([]*domain.Event, error)

	// MarkPublished stamps the given sequences as published.
	MarkPublished(ctx context.Context, sequences []uint64, at time.Time) error

	// ListByKey returns every event for a key in sequence order.
	ListByKey(ctx context.Context, key string) ([]*domain.Event, error)
}
