package redis

import (
	"context"
	"time"

	"paymenthub/internal/domain"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// CacheStoreInterface defines the interface for payment read caching.
type CacheStoreInterface interface {
	GetPayment(ctx context.Context, id domain.PaymentID) (*domain.Payment, error)
	SetPayment(ctx context.Context, payment *domain.Payment) error
	InvalidatePayment(ctx context.Context, id domain.PaymentID) error
}

// DeadLetterQueueInterface defines the interface for parking undeliverable events.
type DeadLetterQueueInterface interface {
	Send(ctx context.Context, events []*domain.Event) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface       = (*LockStore)(nil)
	_ CacheStoreInterface      = (*CacheStore)(nil)
	_ DeadLetterQueueInterface = (*DeadLetterQueue)(nil)
)
