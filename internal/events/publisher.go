// Package events delivers committed ledger events to downstream sinks.
//
// Mutations append events to the store's log inside their transaction. The
// Relay picks them up after commit, so a sink only ever sees events whose
// mutation committed. Delivery is at-least-once; consumers dedupe by event id.
package events

import (
	"context"

	"go.uber.org/multierr"

	"paymenthub/internal/domain"
)

// Publisher delivers a batch of events to one sink.
type Publisher interface {
	Publish(ctx context.Context, events []*domain.Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, events []*domain.Event) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, events []*domain.Event) error {
	return f(ctx, events)
}

// MultiPublisher fans a batch out to every sink. All sinks are attempted;
// the batch fails if any of them fails.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, events []*domain.Event) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, events))
	}
	return err
}

// DeadLetterQueue parks events that repeatedly failed to publish.
type DeadLetterQueue interface {
	Send(ctx context.Context, events []*domain.Event) error
}
