package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:payment:"

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles per-payment distributed locking in Redis.
type LockStore struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, tokens: make(map[string]string)}
}

// Acquire attempts to take the lock for key.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	s.mu.Lock()
	s.tokens[key] = token
	s.mu.Unlock()
	return true, nil
}

// Release releases the lock for key if this store still owns it. A lock that
// expired and was taken by another instance is left alone.
func (s *LockStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	token, ok := s.tokens[key]
	delete(s.tokens, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	return releaseScript.Run(ctx, s.client, []string{lockPrefix + key}, token).Err()
}
