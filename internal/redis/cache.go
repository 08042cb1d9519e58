package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"paymenthub/internal/domain"
)

// PaymentCacheTTL bounds how long a payment snapshot is served from cache.
// Mutations invalidate the entry after commit.
const PaymentCacheTTL = 30 * time.Second

const paymentCachePrefix = "cache:payment:"

// CacheStore handles payment read caching in Redis.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = PaymentCacheTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// GetPayment retrieves a payment from cache. A miss returns nil, nil.
func (s *CacheStore) GetPayment(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	data, err := s.client.Get(ctx, paymentCachePrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var payment domain.Payment
	if err := json.Unmarshal(data, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SetPayment stores a payment in cache.
func (s *CacheStore) SetPayment(ctx context.Context, payment *domain.Payment) error {
	data, err := json.Marshal(payment)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, paymentCachePrefix+payment.ID.String(), data, s.ttl).Err()
}

// InvalidatePayment removes a payment from cache.
func (s *CacheStore) InvalidatePayment(ctx context.Context, id domain.PaymentID) error {
	return s.client.Del(ctx, paymentCachePrefix+id.String()).Err()
}
