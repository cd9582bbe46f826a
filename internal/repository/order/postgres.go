package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"koperasi-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id::text, account_id::text, student_name, student_dorm, room_number, phone,
       delivery_method, COALESCE(delivery_address, ''), COALESCE(delivery_time, ''),
       status, total_amount, COALESCE(notes, ''), created_at`

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

func (r *postgresRepo) CreateWithItems(ctx context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := `
INSERT INTO orders (
    account_id, student_name, student_dorm, room_number, phone,
    delivery_method, delivery_address, delivery_time, status, total_amount, notes
) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, NULLIF($11, ''))
RETURNING ` + orderColumns
	created, err := scanOrder(tx.QueryRow(ctx, q,
		o.UserID,
		o.StudentName,
		o.StudentDorm,
		o.RoomNumber,
		o.Phone,
		string(o.DeliveryMethod),
		o.DeliveryAddress,
		o.DeliveryTime,
		string(o.Status),
		o.TotalAmount,
		o.Notes,
	))
	if err != nil {
		r.logger.Printf("order repo: insert order account_id=%s error=%v", o.UserID, err)
		return nil, err
	}

	// Items go out in one batch; their relative order carries no meaning.
	const itemQuery = `
INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
VALUES ($1, NULLIF($2, ''), $3, $4, $5)
RETURNING id::text, order_id::text, COALESCE(product_id, ''), product_name, price, quantity, created_at
`
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(itemQuery, created.ID, it.ProductID, it.ProductName, it.Price, it.Quantity)
	}
	results := tx.SendBatch(ctx, batch)
	for i := range items {
		item, err := scanItem(results.QueryRow())
		if err != nil {
			_ = results.Close()
			r.logger.Printf("order repo: insert item order_id=%s index=%d error=%v", created.ID, i, err)
			return nil, err
		}
		created.Items = append(created.Items, *item)
	}
	if err := results.Close(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Printf("order repo: commit order_id=%s error=%v", created.ID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s account_id=%s items=%d total=%d", created.ID, created.UserID, len(created.Items), created.TotalAmount)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id::text = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("order repo: get id=%s error=%v", id, err)
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, COALESCE(product_id, ''), product_name, price, quantity, created_at
FROM order_items
WHERE order_id::text = $1
ORDER BY created_at ASC, product_name ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *postgresRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE account_id::text = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, accountID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from *domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error) {
	var row pgx.Row
	if from != nil {
		q := `UPDATE orders SET status = $2 WHERE id::text = $1 AND status = $3 RETURNING ` + orderColumns
		row = r.pool.QueryRow(ctx, q, id, string(to), string(*from))
	} else {
		q := `UPDATE orders SET status = $2 WHERE id::text = $1 RETURNING ` + orderColumns
		row = r.pool.QueryRow(ctx, q, id, string(to))
	}
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && from != nil {
			return nil, fmt.Errorf("%w: order %s is no longer %s", domain.ErrConflict, id, *from)
		}
		r.logger.Printf("order repo: update status id=%s to=%s error=%v", id, to, err)
		return nil, err
	}
	r.logger.Printf("order repo: status id=%s status=%s", o.ID, o.Status)
	return o, nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o              domain.Order
		deliveryMethod string
		status         string
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.StudentName,
		&o.StudentDorm,
		&o.RoomNumber,
		&o.Phone,
		&deliveryMethod,
		&o.DeliveryAddress,
		&o.DeliveryTime,
		&status,
		&o.TotalAmount,
		&o.Notes,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if o.DeliveryMethod, err = domain.ParseDeliveryMethod(deliveryMethod); err != nil {
		return nil, &domain.DataIntegrityError{Entity: "order", ID: o.ID, Reason: err.Error()}
	}
	if o.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, &domain.DataIntegrityError{Entity: "order", ID: o.ID, Reason: err.Error()}
	}
	return &o, nil
}

func scanItem(row pgx.Row) (*domain.OrderItem, error) {
	var it domain.OrderItem
	if err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.CreatedAt); err != nil {
		return nil, err
	}
	if it.Quantity <= 0 {
		return nil, &domain.DataIntegrityError{Entity: "order item", ID: it.ID, Reason: "non-positive quantity"}
	}
	return &it, nil
}
