package boltdb

import (
	"context"
	"encoding/binary"

	bolt "github.com/boltdb/bolt"

	"paymenthub/internal/domain"
)

// TokenRepository is a BoltDB implementation of repository.TokenRepository.
type TokenRepository struct {
	run runner
}

func allowanceKey(owner, spender domain.Address) []byte {
	return []byte(string(owner) + "|" + string(spender))
}

func (r *TokenRepository) get(bucket, key []byte) (uint64, error) {
	var v uint64
	err := r.run(false, func(tx *bolt.Tx) error {
		if raw := tx.Bucket(bucket).Get(key); len(raw) == 8 {
			v = binary.BigEndian.Uint64(raw)
		}
		return nil
	})
	return v, err
}

func (r *TokenRepository) put(bucket, key []byte, v uint64) error {
	return r.run(true, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if v == 0 {
			return b.Delete(key)
		}
		return b.Put(key, uint64Key(v))
	})
}

// Balance returns the balance of addr.
func (r *TokenRepository) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	return r.get(bucketBalances, []byte(addr))
}

// SetBalance stores the balance of addr.
func (r *TokenRepository) SetBalance(ctx context.Context, addr domain.Address, amount uint64) error {
	return r.put(bucketBalances, []byte(addr), amount)
}

// Allowance returns the allowance of spender over owner.
func (r *TokenRepository) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	return r.get(bucketAllowances, allowanceKey(owner, spender))
}

// SetAllowance stores the allowance of spender over owner.
func (r *TokenRepository) SetAllowance(ctx context.Context, owner, spender domain.Address, amount uint64) error {
	return r.put(bucketAllowances, allowanceKey(owner, spender), amount)
}
