package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"paymenthub/internal/domain"
)

// EventRepository is a PostgreSQL implementation of repository.EventRepository.
type EventRepository struct {
	q Querier
}

// Append inserts the event and assigns its sequence.
func (r *EventRepository) Append(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO ledger_events (id, type, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`

	var seq int64
	err := r.q.QueryRowContext(ctx, query,
		event.ID,
		event.Type,
		event.Key,
		[]byte(event.Payload),
		event.CreatedAt,
	).Scan(&seq)
	if err != nil {
		return err
	}

	event.Sequence = uint64(seq)
	return nil
}

// ListUnpublished returns up to limit unpublished events in sequence order.
func (r *EventRepository) ListUnpublished(ctx context.Context, limit int) ([]*domain.Event, error) {
	query := `
		SELECT seq, id, type, key, payload, created_at, published_at
		FROM ledger_events WHERE published_at IS NULL
		ORDER BY seq LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// MarkPublished stamps the given sequences as published.
func (r *EventRepository) MarkPublished(ctx context.Context, sequences []uint64, at time.Time) error {
	if len(sequences) == 0 {
		return nil
	}

	seqs := make([]int64, len(sequences))
	for i, s := range sequences {
		seqs[i] = int64(s)
	}

	query := `UPDATE ledger_events SET published_at = $1 WHERE seq = ANY($2) AND published_at IS NULL`
	_, err := r.q.ExecContext(ctx, query, at, pq.Array(seqs))
	return err
}

// ListByKey returns every event for a key in sequence order.
func (r *EventRepository) ListByKey(ctx context.Context, key string) ([]*domain.Event, error) {
	query := `
		SELECT seq, id, type, key, payload, created_at, published_at
		FROM ledger_events WHERE key = $1
		ORDER BY seq
	`
	return r.list(ctx, query, key)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*domain.Event{}
	for rows.Next() {
		var (
			e           domain.Event
			seq         int64
			payload     []byte
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&seq, &e.ID, &e.Type, &e.Key, &payload, &e.CreatedAt, &publishedAt); err != nil {
			return nil, err
		}
		e.Sequence = uint64(seq)
		e.Payload = payload
		if publishedAt.Valid {
			t := publishedAt.Time
			e.PublishedAt = &t
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}
