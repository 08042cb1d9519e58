package boltdb

import (
	"context"
	"encoding/json"

	bolt "github.com/boltdb/bolt"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

var platformKey = []byte("config")

// PlatformRepository is a BoltDB implementation of repository.PlatformRepository.
type PlatformRepository struct {
	run runner
}

// Get returns the platform configuration.
func (r *PlatformRepository) Get(ctx context.Context) (*domain.PlatformConfig, error) {
	var cfg domain.PlatformConfig
	err := r.run(false, func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPlatform).Get(platformKey)
		if v == nil {
			return repository.ErrNotFound
		}
		return json.Unmarshal(v, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save creates or replaces the platform configuration.
func (r *PlatformRepository) Save(ctx context.Context, cfg *domain.PlatformConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.run(true, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPlatform).Put(platformKey, data)
	})
}
