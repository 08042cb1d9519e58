package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// Operation names accepted by MockStore.FailOn.
const (
	OpCreatePayment   = "payments.create"
	OpUpdatePayment   = "payments.update"
	OpSetRoles        = "roles.set"
	OpSavePlatform    = "platform.save"
	OpSetBalance      = "tokens.set_balance"
	OpSetAllowance    = "tokens.set_allowance"
	OpAppendEvent     = "events.append"
	OpMarkPublished   = "events.mark_published"
	OpListUnpublished = "events.list_unpublished"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

type allowanceKey struct {
	owner, spender domain.Address
}

// ledgerState is everything one transaction can touch.
type ledgerState struct {
	payments   map[domain.PaymentID]domain.Payment
	roles      map[domain.Address]domain.RoleSet
	platform   *domain.PlatformConfig
	balances   map[domain.Address]uint64
	allowances map[allowanceKey]uint64
	events     []domain.Event
	nextSeq    uint64
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		payments:   make(map[domain.PaymentID]domain.Payment),
		roles:      make(map[domain.Address]domain.RoleSet),
		balances:   make(map[domain.Address]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

func (s *ledgerState) clone() *ledgerState {
	c := newLedgerState()
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	if s.platform != nil {
		p := *s.platform
		c.platform = &p
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.allowances {
		c.allowances[k] = v
	}
	c.events = append([]domain.Event(nil), s.events...)
	c.nextSeq = s.nextSeq
	return c
}

// MockStore is an in-memory repository.Store. A transaction works on a private
// copy of the state that replaces the committed state only when fn succeeds.
type MockStore struct {
	txMu      sync.Mutex // one writer at a time
	mu        sync.RWMutex
	committed *ledgerState

	errMu  sync.RWMutex
	failOn map[string]error
	calls  map[string]*int32

	// OnSetBalance runs inside the transaction after every balance write,
	// standing in for a token contract's transfer callback. A returned error
	// aborts the transaction.
	OnSetBalance func(ctx context.Context, addr domain.Address, amount uint64) error

	// Counters for verification
	TxCount       int32
	CommitCount   int32
	RollbackCount int32
}

var _ repository.Store = (*MockStore)(nil)

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	s := &MockStore{
		committed: newLedgerState(),
		failOn:    make(map[string]error),
		calls:     make(map[string]*int32),
	}
	for _, op := range []string{
		OpCreatePayment, OpUpdatePayment, OpSetRoles, OpSavePlatform,
		OpSetBalance, OpSetAllowance, OpAppendEvent, OpMarkPublished, OpListUnpublished,
	} {
		s.calls[op] = new(int32)
	}
	return s
}

// FailOn makes every call of op return err. A nil err clears the injection.
func (s *MockStore) FailOn(op string, err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err == nil {
		delete(s.failOn, op)
		return
	}
	s.failOn[op] = err
}

// Calls returns how many times op was attempted.
func (s *MockStore) Calls(op string) int {
	return int(atomic.LoadInt32(s.calls[op]))
}

func (s *MockStore) check(op string) error {
	atomic.AddInt32(s.calls[op], 1)
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.failOn[op]
}

func (s *MockStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	atomic.AddInt32(&s.TxCount, 1)
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &memRepos{store: s, state: work}); err != nil {
		atomic.AddInt32(&s.RollbackCount, 1)
		return err
	}

	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	atomic.AddInt32(&s.CommitCount, 1)
	return nil
}

func (s *MockStore) Close() error { return nil }

func (s *MockStore) direct() *memRepos { return &memRepos{store: s} }

func (s *MockStore) Payments() repository.PaymentRepository  { return s.direct() }
func (s *MockStore) Roles() repository.RoleRepository        { return &memRoles{s.direct()} }
func (s *MockStore) Platform() repository.PlatformRepository { return &memPlatform{s.direct()} }
func (s *MockStore) Tokens() repository.TokenRepository      { return &memTokens{s.direct()} }
func (s *MockStore) Events() repository.EventRepository      { return &memEvents{s.direct()} }

// Snapshot returns a copy of the committed state for assertions.
func (s *MockStore) Snapshot() *ledgerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.clone()
}

// Balance returns a committed balance.
func (s *MockStore) Balance(addr domain.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.balances[addr]
}

// EventCount returns the number of committed events.
func (s *MockStore) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.committed.events)
}

// memRepos binds repositories to a transaction's private state, or to the
// committed state when state is nil.
type memRepos struct {
	store *MockStore
	state *ledgerState
}

func (r *memRepos) Payments() repository.PaymentRepository  { return r }
func (r *memRepos) Roles() repository.RoleRepository        { return &memRoles{r} }
func (r *memRepos) Platform() repository.PlatformRepository { return &memPlatform{r} }
func (r *memRepos) Tokens() repository.TokenRepository      { return &memTokens{r} }
func (r *memRepos) Events() repository.EventRepository      { return &memEvents{r} }

func (r *memRepos) read(fn func(st *ledgerState) error) error {
	if r.state != nil {
		return fn(r.state)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return fn(r.store.committed)
}

func (r *memRepos) write(op string, fn func(st *ledgerState) error) error {
	if err := r.store.check(op); err != nil {
		return err
	}
	if r.state != nil {
		return fn(r.state)
	}
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.committed)
}

// ──────────────────────────────────────────────
// PAYMENTS
// ──────────────────────────────────────────────

func (r *memRepos) Create(ctx context.Context, payment *domain.Payment) error {
	return r.write(OpCreatePayment, func(st *ledgerState) error {
		if _, ok := st.payments[payment.ID]; ok {
			return domain.ErrPaymentAlreadyProcessed
		}
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (r *memRepos) GetByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.read(func(st *ledgerState) error {
		p, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *memRepos) Update(ctx context.Context, payment *domain.Payment) error {
	return r.write(OpUpdatePayment, func(st *ledgerState) error {
		if _, ok := st.payments[payment.ID]; !ok {
			return repository.ErrNotFound
		}
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (r *memRepos) List(ctx context.Context, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	payments := []*domain.Payment{}
	err := r.read(func(st *ledgerState) error {
		for _, p := range st.payments {
			if filter.Consumer != "" && p.Consumer != filter.Consumer {
				continue
			}
			if filter.Merchant != "" && p.Merchant != filter.Merchant {
				continue
			}
			p := p
			payments = append(payments, &p)
		}
		return nil
	})
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	if filter.Limit > 0 && len(payments) > filter.Limit {
		payments = payments[:filter.Limit]
	}
	return payments, err
}

// ──────────────────────────────────────────────
// ROLES
// ──────────────────────────────────────────────

type memRoles struct{ *memRepos }

func (r *memRoles) Get(ctx context.Context, addr domain.Address) (domain.RoleSet, error) {
	var roles domain.RoleSet
	err := r.read(func(st *ledgerState) error {
		roles = st.roles[addr]
		return nil
	})
	return roles, err
}

func (r *memRoles) Set(ctx context.Context, addr domain.Address, roles domain.RoleSet) error {
	return r.write(OpSetRoles, func(st *ledgerState) error {
		if roles == 0 {
			delete(st.roles, addr)
			return nil
		}
		st.roles[addr] = roles
		return nil
	})
}

func (r *memRoles) ListByRole(ctx context.Context, role domain.Role) ([]domain.Address, error) {
	var members []domain.Address
	err := r.read(func(st *ledgerState) error {
		for addr, roles := range st.roles {
			if roles.Has(role) {
				members = append(members, addr)
			}
		}
		return nil
	})
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members, err
}

// ──────────────────────────────────────────────
// PLATFORM
// ──────────────────────────────────────────────

type memPlatform struct{ *memRepos }

func (r *memPlatform) Get(ctx context.Context) (*domain.PlatformConfig, error) {
	var cfg domain.PlatformConfig
	err := r.read(func(st *ledgerState) error {
		if st.platform == nil {
			return repository.ErrNotFound
		}
		cfg = *st.platform
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *memPlatform) Save(ctx context.Context, cfg *domain.PlatformConfig) error {
	return r.write(OpSavePlatform, func(st *ledgerState) error {
		c := *cfg
		st.platform = &c
		return nil
	})
}

// ──────────────────────────────────────────────
// TOKENS
// ──────────────────────────────────────────────

type memTokens struct{ *memRepos }

func (r *memTokens) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	var balance uint64
	err := r.read(func(st *ledgerState) error {
		balance = st.balances[addr]
		return nil
	})
	return balance, err
}

func (r *memTokens) SetBalance(ctx context.Context, addr domain.Address, amount uint64) error {
	err := r.write(OpSetBalance, func(st *ledgerState) error {
		st.balances[addr] = amount
		return nil
	})
	if err != nil {
		return err
	}
	if hook := r.store.OnSetBalance; hook != nil {
		return hook(ctx, addr, amount)
	}
	return nil
}

func (r *memTokens) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	var allowance uint64
	err := r.read(func(st *ledgerState) error {
		allowance = st.allowances[allowanceKey{owner, spender}]
		return nil
	})
	return allowance, err
}

func (r *memTokens) SetAllowance(ctx context.Context, owner, spender domain.Address, amount uint64) error {
	return r.write(OpSetAllowance, func(st *ledgerState) error {
		st.allowances[allowanceKey{owner, spender}] = amount
		return nil
	})
}

// ──────────────────────────────────────────────
// EVENTS
// ──────────────────────────────────────────────

type memEvents struct{ *memRepos }

func (r *memEvents) Append(ctx context.Context, event *domain.Event) error {
	return r.write(OpAppendEvent, func(st *ledgerState) error {
		st.nextSeq++
		event.Sequence = st.nextSeq
		st.events = append(st.events, *event)
		return nil
	})
}

func (r *memEvents) ListUnpublished(ctx context.Context, limit int) ([]*domain.Event, error) {
	if err := r.store.check(OpListUnpublished); err != nil {
		return nil, err
	}
	var events []*domain.Event
	err := r.read(func(st *ledgerState) error {
		for _, e := range st.events {
			if e.PublishedAt != nil {
				continue
			}
			if limit > 0 && len(events) >= limit {
				break
			}
			e := e
			events = append(events, &e)
		}
		return nil
	})
	return events, err
}

func (r *memEvents) MarkPublished(ctx context.Context, sequences []uint64, at time.Time) error {
	return r.write(OpMarkPublished, func(st *ledgerState) error {
		marked := make(map[uint64]bool, len(sequences))
		for _, seq := range sequences {
			marked[seq] = true
		}
		for i := range st.events {
			if marked[st.events[i].Sequence] {
				published := at
				st.events[i].PublishedAt = &published
			}
		}
		return nil
	})
}

func (r *memEvents) ListByKey(ctx context.Context, key string) ([]*domain.Event, error) {
	events := []*domain.Event{}
	err := r.read(func(st *ledgerState) error {
		for _, e := range st.events {
			if e.Key == key {
				e := e
				events = append(events, &e)
			}
		}
		return nil
	})
	return events, err
}

// ──────────────────────────────────────────────
// MOCK LOCKER
// ──────────────────────────────────────────────

// MockLocker is a service.Locker whose keys can be held by a simulated peer instance.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	// Counters for verification
	AcquireCount int32
	ReleaseCount int32

	// Error injection
	AcquireError error
}

// NewMockLocker creates a new mock locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

// HoldElsewhere marks key as owned by another instance.
func (m *MockLocker) HoldElsewhere(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[key] = true
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockLocker) Release(ctx context.Context, key string) error {
	atomic.AddInt32(&m.ReleaseCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// IsHeld reports whether key is currently locked.
func (m *MockLocker) IsHeld(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}

// ──────────────────────────────────────────────
// MOCK PAYMENT CACHE
// ──────────────────────────────────────────────

// MockPaymentCache is a map-backed service.PaymentCache.
type MockPaymentCache struct {
	mu       sync.Mutex
	payments map[domain.PaymentID]domain.Payment

	// Counters for verification
	HitCount        int32
	MissCount       int32
	InvalidateCount int32
}

// NewMockPaymentCache creates a new mock cache.
func NewMockPaymentCache() *MockPaymentCache {
	return &MockPaymentCache{payments: make(map[domain.PaymentID]domain.Payment)}
}

func (m *MockPaymentCache) GetPayment(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		atomic.AddInt32(&m.MissCount, 1)
		return nil, nil
	}
	atomic.AddInt32(&m.HitCount, 1)
	return &p, nil
}

func (m *MockPaymentCache) SetPayment(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = *payment
	return nil
}

func (m *MockPaymentCache) InvalidatePayment(ctx context.Context, id domain.PaymentID) error {
	atomic.AddInt32(&m.InvalidateCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payments, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER / DEAD LETTER QUEUE
// ──────────────────────────────────────────────

// ErrSinkDown is the error returned by a failing MockPublisher.
var ErrSinkDown = errors.New("sink unavailable")

// MockPublisher records published events and can be told to fail.
type MockPublisher struct {
	mu        sync.Mutex
	published []domain.Event
	fail      bool

	PublishCount int32
}

// SetFailing toggles publish failures.
func (m *MockPublisher) SetFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *MockPublisher) Publish(ctx context.Context, events []*domain.Event) error {
	atomic.AddInt32(&m.PublishCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrSinkDown
	}
	for _, e := range events {
		m.published = append(m.published, *e)
	}
	return nil
}

// Published returns the delivered events in order.
func (m *MockPublisher) Published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.published...)
}

// MockDeadLetterQueue records dead-lettered events.
type MockDeadLetterQueue struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *MockDeadLetterQueue) Send(ctx context.Context, events []*domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events = append(m.events, *e)
	}
	return nil
}

// Events returns the dead-lettered events.
func (m *MockDeadLetterQueue) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.events...)
}
