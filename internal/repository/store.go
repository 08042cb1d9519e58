package repository

import "context"

// Repositories groups the repositories that share one transaction.
type Repositories interface {
	Payments() PaymentRepository
	Roles() RoleRepository
	Platform() PlatformRepository
	Tokens() TokenRepository
	Events() EventRepository
}

// Store is the ledger's storage backend. Repositories obtained directly from the
// Store run each call on its own; those passed to RunInTx share one transaction
// that commits only if fn returns nil.
type Store interface {
	Repositories
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}
