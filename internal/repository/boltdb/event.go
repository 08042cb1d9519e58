package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	"paymenthub/internal/domain"
)

// EventRepository is a BoltDB implementation of repository.EventRepository.
// Events are keyed by sequence; the outbox bucket indexes the unpublished ones.
type EventRepository struct {
	run runner
}

// Append stores the event under the bucket's next sequence.
func (r *EventRepository) Append(ctx context.Context, event *domain.Event) error {
	return r.run(true, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		event.Sequence = seq
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		key := uint64Key(seq)
		if err := b.Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(bucketOutbox).Put(key, []byte{})
	})
}

// ListUnpublished returns up to limit unpublished events in sequence order.
func (r *EventRepository) ListUnpublished(ctx context.Context, limit int) ([]*domain.Event, error) {
	var events []*domain.Event
	err := r.run(false, func(tx *bolt.Tx) error {
		eb := tx.Bucket(bucketEvents)
		c := tx.Bucket(bucketOutbox).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var e domain.Event
			if err := json.Unmarshal(eb.Get(k), &e); err != nil {
				return err
			}
			events = append(events, &e)
		}
		return nil
	})
	return events, err
}

// MarkPublished removes the sequences from the outbox and stamps them.
func (r *EventRepository) MarkPublished(ctx context.Context, sequences []uint64, at time.Time) error {
	return r.run(true, func(tx *bolt.Tx) error {
		eb := tx.Bucket(bucketEvents)
		ob := tx.Bucket(bucketOutbox)
		for _, seq := range sequences {
			key := uint64Key(seq)
			raw := eb.Get(key)
			if raw == nil {
				continue
			}
			var e domain.Event
			if err := json.Unmarshal(raw, &e); err != nil {
				return err
			}
			published := at
			e.PublishedAt = &published
			data, err := json.Marshal(&e)
			if err != nil {
				return err
			}
			if err := eb.Put(key, data); err != nil {
				return err
			}
			if err := ob.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByKey scans the log for events with the given key.
func (r *EventRepository) ListByKey(ctx context.Context, key string) ([]*domain.Event, error) {
	events := []*domain.Event{}
	err := r.run(false, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			var e domain.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.Key == key {
				e.Sequence = binary.BigEndian.Uint64(k)
				events = append(events, &e)
			}
			return nil
		})
	})
	return events, err
}
