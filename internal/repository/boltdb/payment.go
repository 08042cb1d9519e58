package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	bolt "github.com/boltdb/bolt"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// PaymentRepository is a BoltDB implementation of repository.PaymentRepository.
type PaymentRepository struct {
	run runner
}

// Create persists a new payment only if its id is unused.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.run(true, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPayments)
		if b.Get(payment.ID[:]) != nil {
			return domain.ErrPaymentAlreadyProcessed
		}
		data, err := json.Marshal(payment)
		if err != nil {
			return err
		}
		return b.Put(payment.ID[:], data)
	})
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.run(false, func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPayments).Get(id[:])
		if v == nil {
			return repository.ErrNotFound
		}
		return json.Unmarshal(v, &payment)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Update overwrites an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	return r.run(true, func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPayments)
		if b.Get(payment.ID[:]) == nil {
			return repository.ErrNotFound
		}
		data, err := json.Marshal(payment)
		if err != nil {
			return err
		}
		return b.Put(payment.ID[:], data)
	})
}

// List returns payments matching the filter, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	payments := []*domain.Payment{}
	err := r.run(false, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPayments).ForEach(func(_, v []byte) error {
			var p domain.Payment
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			if filter.Consumer != "" && p.Consumer != filter.Consumer {
				return nil
			}
			if filter.Merchant != "" && p.Merchant != filter.Merchant {
				return nil
			}
			payments = append(payments, &p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	if filter.Limit > 0 && len(payments) > filter.Limit {
		payments = payments[:filter.Limit]
	}
	return payments, nil
}
