package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"paymenthub/internal/repository"
)

//go:embed schema.sql
var schema string

// Migrate creates the ledger tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
	repos
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a new PostgreSQL ledger store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: repos{q: db}}
}

// RunInTx runs fn inside one database transaction. Rows read through the
// transaction's repositories are locked until commit.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, repos{q: tx, lock: true}); err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// repos hands out repositories sharing a Querier.
type repos struct {
	q    Querier
	lock bool
}

func (r repos) Payments() repository.PaymentRepository {
	return &PaymentRepository{q: r.q, lock: r.lock}
}
func (r repos) Roles() repository.RoleRepository { return &RoleRepository{q: r.q, lock: r.lock} }
func (r repos) Platform() repository.PlatformRepository {
	return &PlatformRepository{q: r.q, lock: r.lock}
}
func (r repos) Tokens() repository.TokenRepository { return &TokenRepository{q: r.q, lock: r.lock} }
func (r repos) Events() repository.EventRepository { return &EventRepository{q: r.q} }

// forUpdate returns the row-locking suffix for reads inside a transaction.
func forUpdate(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}
