package product

import (
	"context"
	"errors"
	"io"
	"log"

	"koperasi-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id::text, name, COALESCE(description, ''), price, category, is_available, COALESCE(image_ref, ''), created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if f.AvailableOnly {
		q += ` WHERE is_available`
	}
	q += ` ORDER BY category ASC, name ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list available_only=%t error=%v", f.AvailableOnly, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Printf("product repo: list scan error=%v", err)
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("product repo: list available_only=%t count=%d", f.AvailableOnly, len(result))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id::text = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("product repo: get id=%s error=%v", id, err)
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (name, description, price, category, is_available, image_ref)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''))
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q, p.Name, p.Description, p.Price, string(p.Category), p.IsAvailable, p.ImageRef))
	if err != nil {
		r.logger.Printf("product repo: create name=%q error=%v", p.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%s name=%q", created.ID, created.Name)
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
UPDATE products
SET name = $2,
    description = NULLIF($3, ''),
    price = $4,
    category = $5,
    is_available = $6,
    image_ref = NULLIF($7, '')
WHERE id::text = $1
RETURNING ` + productColumns
	updated, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.Price, string(p.Category), p.IsAvailable, p.ImageRef))
	if err != nil {
		r.logger.Printf("product repo: update id=%s error=%v", p.ID, err)
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		r.logger.Printf("product repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ToggleAvailability(ctx context.Context, id string) (*domain.Product, error) {
	q := `UPDATE products SET is_available = NOT is_available WHERE id::text = $1 RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("product repo: toggle id=%s error=%v", id, err)
		}
		return nil, err
	}
	return p, nil
}

// Upsert inserts or replaces a product by id; an empty id always inserts.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, name, description, price, category, is_available, image_ref)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''))
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    is_available = EXCLUDED.is_available,
    image_ref = EXCLUDED.image_ref
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.Description, p.Price, string(p.Category), p.IsAvailable, p.ImageRef))
	if err != nil {
		r.logger.Printf("product repo: upsert name=%q error=%v", p.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted id=%s name=%q", res.ID, res.Name)
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		category string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &category, &p.IsAvailable, &p.ImageRef, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	p.Category, err = domain.ParseCategory(category)
	if err != nil {
		return nil, &domain.DataIntegrityError{Entity: "product", ID: p.ID, Reason: err.Error()}
	}
	if p.Price <= 0 {
		return nil, &domain.DataIntegrityError{Entity: "product", ID: p.ID, Reason: "non-positive price"}
	}
	return &p, nil
}
