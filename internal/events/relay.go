package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// RelayConfig tunes the outbox relay.
type RelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Relay moves committed events from the store's log to a Publisher.
type Relay struct {
	events    repository.EventRepository
	publisher Publisher
	dlq       DeadLetterQueue
	cfg       RelayConfig
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	attempts int
	wake     chan struct{}
}

// NewRelay creates a relay. dlq may be nil, in which case failing batches are
// retried forever.
func NewRelay(events repository.EventRepository, publisher Publisher, dlq DeadLetterQueue, cfg RelayConfig, logger *zap.Logger) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		events:    events,
		publisher: publisher,
		dlq:       dlq,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

// Notify wakes the relay before its next tick. It never blocks.
func (r *Relay) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run flushes on every tick or Notify until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.wake:
		}

		if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("event relay flush failed", zap.Int("attempts", r.failures()), zap.Error(err))
		}
	}
}

// Flush publishes unpublished events batch by batch until the log is drained
// or a batch fails. It returns the number of events delivered or dead-lettered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for {
		batch, err := r.events.ListUnpublished(ctx, r.cfg.BatchSize)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		if err := r.publisher.Publish(ctx, batch); err != nil {
			r.attempts++
			if r.dlq == nil || r.cfg.MaxAttempts <= 0 || r.attempts < r.cfg.MaxAttempts {
				return total, err
			}
			if dlqErr := r.dlq.Send(ctx, batch); dlqErr != nil {
				return total, dlqErr
			}
			r.logger.Error("events dead-lettered after repeated publish failures",
				zap.Int("count", len(batch)),
				zap.Uint64("first_sequence", batch[0].Sequence),
				zap.Error(err),
			)
		}

		if err := r.events.MarkPublished(ctx, sequences(batch), r.now().UTC()); err != nil {
			return total, err
		}
		r.attempts = 0
		total += len(batch)
	}
}

func (r *Relay) failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func sequences(batch []*domain.Event) []uint64 {
	seqs := make([]uint64, len(batch))
	for i, e := range batch {
		seqs[i] = e.Sequence
	}
	return seqs
}
