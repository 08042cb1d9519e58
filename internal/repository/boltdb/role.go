package boltdb

import (
	"context"

	bolt "github.com/boltdb/bolt"

	"paymenthub/internal/domain"
)

// RoleRepository is a BoltDB implementation of repository.RoleRepository.
type RoleRepository struct {
	run runner
}

// Get returns the roles held by addr.
func (r *RoleRepository) Get(ctx context.Context, addr domain.Address) (domain.RoleSet, error) {
	var roles domain.RoleSet
	err := r.run(false, func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketRoles).Get([]byte(addr)); len(v) == 1 {
			roles = domain.RoleSet(v[0])
		}
		return nil
	})
	return roles, err
}

// Set replaces the roles held by addr. An empty set removes the entry.
func (r *RoleRepository) Set(ctx context.Context, addr domain.Address, roles domain.RoleSet) error {
	return r.run(true, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoles)
		if roles == 0 {
			return b.Delete([]byte(addr))
		}
		return b.Put([]byte(addr), []byte{byte(roles)})
	})
}

// ListByRole returns every address holding role, in key order.
func (r *RoleRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Address, error) {
	addrs := []domain.Address{}
	err := r.run(false, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRoles).ForEach(func(k, v []byte) error {
			if len(v) == 1 && domain.RoleSet(v[0]).Has(role) {
				addrs = append(addrs, domain.Address(k))
			}
			return nil
		})
	})
	return addrs, err
}
