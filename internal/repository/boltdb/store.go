// Package boltdb provides an embedded BoltDB-backed ledger store.
//
// All data lives in a single file, so a node can run without PostgreSQL.
// Bolt allows one writer at a time, which gives every RunInTx call exclusive
// access to the ledger until it commits or rolls back.
package boltdb

import (
	"context"
	"encoding/binary"
	"time"

	bolt "github.com/boltdb/bolt"

	"paymenthub/internal/repository"
)

var (
	bucketPayments   = []byte("payments")
	bucketRoles      = []byte("roles")
	bucketPlatform   = []byte("platform")
	bucketBalances   = []byte("token_balances")
	bucketAllowances = []byte("token_allowances")
	bucketEvents     = []byte("events")
	bucketOutbox     = []byte("outbox")

	allBuckets = [][]byte{
		bucketPayments, bucketRoles, bucketPlatform,
		bucketBalances, bucketAllowances, bucketEvents, bucketOutbox,
	}
)

// runner executes fn against a bolt transaction.
type runner func(writable bool, fn func(tx *bolt.Tx) error) error

// Store wraps a BoltDB database and implements repository.Store.
type Store struct {
	db *bolt.DB
	repos
}

var _ repository.Store = (*Store)(nil)

// New opens (or creates) a BoltDB database at path and ensures every bucket exists.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	s.repos = repos{run: func(writable bool, fn func(tx *bolt.Tx) error) error {
		if writable {
			return db.Update(fn)
		}
		return db.View(fn)
	}}
	return s, nil
}

// RunInTx runs fn inside a single read-write transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		inTx := repos{run: func(_ bool, f func(tx *bolt.Tx) error) error {
			return f(tx)
		}}
		return fn(ctx, inTx)
	})
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// repos hands out repositories bound to a runner.
type repos struct {
	run runner
}

func (r repos) Payments() repository.PaymentRepository  { return &PaymentRepository{run: r.run} }
func (r repos) Roles() repository.RoleRepository        { return &RoleRepository{run: r.run} }
func (r repos) Platform() repository.PlatformRepository { return &PlatformRepository{run: r.run} }
func (r repos) Tokens() repository.TokenRepository      { return &TokenRepository{run: r.run} }
func (r repos) Events() repository.EventRepository      { return &EventRepository{run: r.run} }

func uint64Key(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
