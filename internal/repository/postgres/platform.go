package postgres

import (
	"context"
	"database/sql"
	"errors"

	"paymenthub/internal/domain"
	"paymenthub/internal/repository"
)

// PlatformRepository is a PostgreSQL implementation of repository.PlatformRepository.
type PlatformRepository struct {
	q    Querier
	lock bool
}

// Get returns the platform configuration.
func (r *PlatformRepository) Get(ctx context.Context) (*domain.PlatformConfig, error) {
	query := `
		SELECT fee_bps, max_fee_bps, fee_recipient, custody, paused
		FROM platform_config WHERE id = 1` + forUpdate(r.lock)

	var cfg domain.PlatformConfig
	err := r.q.QueryRowContext(ctx, query).Scan(
		&cfg.FeeBps,
		&cfg.MaxFeeBps,
		&cfg.FeeRecipient,
		&cfg.Custody,
		&cfg.Paused,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &cfg, nil
}

// Save creates or replaces the configuration row.
func (r *PlatformRepository) Save(ctx context.Context, cfg *domain.PlatformConfig) error {
	query := `
		INSERT INTO platform_config (id, fee_bps, max_fee_bps, fee_recipient, custody, paused, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			fee_bps = EXCLUDED.fee_bps,
			max_fee_bps = EXCLUDED.max_fee_bps,
			fee_recipient = EXCLUDED.fee_recipient,
			custody = EXCLUDED.custody,
			paused = EXCLUDED.paused,
			updated_at = NOW()
	`

	_, err := r.q.ExecContext(ctx, query,
		cfg.FeeBps,
		cfg.MaxFeeBps,
		cfg.FeeRecipient,
		cfg.Custody,
		cfg.Paused,
	)
	return err
}
