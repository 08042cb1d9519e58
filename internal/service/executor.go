package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// DefaultLockTTL bounds how long a crashed instance can hold a payment lock.
const DefaultLockTTL = 30 * time.Second

// Locker guards a key across service instances.
type Locker interface {
	// Acquire returns false if another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// LocalLocker is an in-process Locker for single-node deployments and tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewLocalLocker creates a new LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time)}
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

// Release implements Locker.
func (l *LocalLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type mutationKey struct{}

// InMutation reports whether ctx belongs to a mutation that has not finished.
func InMutation(ctx context.Context) bool {
	_, ok := ctx.Value(mutationKey{}).(string)
	return ok
}

// CommitHook runs after a mutation on key has committed.
type CommitHook func(ctx context.Context, key string)

// Executor runs ledger mutations one at a time. Each mutation holds the
// process-wide mutex and the key's distributed lock, and runs in a single store
// transaction: either all of its record, event and token writes commit or none do.
type Executor struct {
	store   repository.Store
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []CommitHook
}

// NewExecutor creates a new Executor. A nil locker falls back to a LocalLocker.
func NewExecutor(store repository.Store, locker Locker, lockTTL time.Duration, logger *zap.Logger) *Executor {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Executor{
		store:   store,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// OnCommit registers a hook. Hooks must not start new mutations synchronously.
func (e *Executor) OnCommit(hook CommitHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, hook)
}

// Execute runs fn as one atomic mutation on key.
// It fails with domain.ErrReentrantCall when called from inside another mutation
// and with domain.ErrPaymentLocked when another instance holds key.
func (e *Executor) Execute(ctx context.Context, key string, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if InMutation(ctx) {
		return domain.ErrReentrantCall
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.locker.Acquire(ctx, key, e.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", key, err)
	}
	if !ok {
		return domain.ErrPaymentLocked
	}

	err = e.store.RunInTx(context.WithValue(ctx, mutationKey{}, key), fn)

	if relErr := e.locker.Release(context.WithoutCancel(ctx), key); relErr != nil {
		e.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(relErr))
	}
	if err != nil {
		return err
	}

	for _, hook := range e.hooks {
		hook(ctx, key)
	}
	return nil
}
