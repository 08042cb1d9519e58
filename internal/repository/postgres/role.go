package postgres

import (
	"context"
	"database/sql"
	"errors"

	"paymenthub/internal/domain"
)

// RoleRepository is a PostgreSQL implementation of repository.RoleRepository.
type RoleRepository struct {
	q    Querier
	lock bool
}

// Get returns the roles held by addr.
func (r *RoleRepository) Get(ctx context.Context, addr domain.Address) (domain.RoleSet, error) {
	query := `SELECT roles FROM roles WHERE address = $1` + forUpdate(r.lock)

	var roles int16
	err := r.q.QueryRowContext(ctx, query, addr).Scan(&roles)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}

	return domain.RoleSet(roles), nil
}

// Set replaces the roles held by addr. An empty set removes the row.
func (r *RoleRepository) Set(ctx context.Context, addr domain.Address, roles domain.RoleSet) error {
	if roles == 0 {
		_, err := r.q.ExecContext(ctx, `DELETE FROM roles WHERE address = $1`, addr)
		return err
	}

	query := `
		INSERT INTO roles (address, roles) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET roles = EXCLUDED.roles
	`
	_, err := r.q.ExecContext(ctx, query, addr, int16(roles))
	return err
}

// ListByRole returns every address holding role.
func (r *RoleRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Address, error) {
	query := `SELECT address FROM roles WHERE roles & $1 <> 0 ORDER BY address`

	rows, err := r.q.QueryContext(ctx, query, int16(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addrs := []domain.Address{}
	for rows.Next() {
		var addr domain.Address
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}

	return addrs, rows.Err()
}
