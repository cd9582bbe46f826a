package role

import (
	"context"

	"koperasi-storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Has(ctx context.Context, accountID, role string) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1 FROM user_roles WHERE account_id::text = $1 AND role = $2
)
`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, accountID, role).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *postgresRepo) Grant(ctx context.Context, accountID, role string) error {
	const q = `
INSERT INTO user_roles (account_id, role)
VALUES ($1, $2)
ON CONFLICT (account_id, role) DO NOTHING
`
	_, err := r.pool.Exec(ctx, q, accountID, role)
	return err
}

func (r *postgresRepo) Revoke(ctx context.Context, accountID, role string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE account_id::text = $1 AND role = $2`, accountID, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
