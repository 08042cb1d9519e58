package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Set HUB_TEST_REDIS_ADDR (host:port) to run these tests against a live server.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("HUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("HUB_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Fatalf("failed to reach redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "exclusive-" + uuid.NewString()
	a, b := NewLockStore(client), NewLockStore(client)

	ok, err := a.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got %v (%v)", ok, err)
	}
	ok, err = b.Acquire(ctx, key, time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, got %v (%v)", ok, err)
	}

	if err := a.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = b.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed, got %v (%v)", ok, err)
	}
	if err := b.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestLockStore_ReleaseAfterExpiryKeepsNewOwner(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "expiry-" + uuid.NewString()
	slow, fast := NewLockStore(client), NewLockStore(client)

	ok, err := slow.Acquire(ctx, key, 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got %v (%v)", ok, err)
	}
	time.Sleep(150 * time.Millisecond)

	ok, err = fast.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after expiry to succeed, got %v (%v)", ok, err)
	}
	t.Cleanup(func() { fast.Release(context.Background(), key) })

	// The slow holder finishes late and must not free the new owner's lock.
	if err := slow.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = slow.Acquire(ctx, key, time.Minute)
	if err != nil || ok {
		t.Fatalf("expected lock to still be held by the new owner, got %v (%v)", ok, err)
	}
}

func TestLockStore_ReleaseWithoutAcquireIsNoop(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := "noop-" + uuid.NewString()
	owner, other := NewLockStore(client), NewLockStore(client)

	ok, err := owner.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got %v (%v)", ok, err)
	}
	t.Cleanup(func() { owner.Release(context.Background(), key) })

	if err := other.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if n, err := client.Exists(ctx, lockPrefix+key).Result(); err != nil || n != 1 {
		t.Fatalf("expected lock to survive a foreign release, exists=%d (%v)", n, err)
	}
}
