package order

import (
	"context"
	"errors"
	"os"
	"testing"

	"koperasi-storefront/internal/domain"
	"koperasi-storefront/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_CreateWithItemsAndRead(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if _, err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	accountID := insertAccount(ctx, t, pool, "siswa@example.com")

	repo := NewPostgres(pool, nil)
	created, err := repo.CreateWithItems(ctx, sampleOrder(accountID, 38000), []domain.OrderItem{
		{ProductID: "p1", ProductName: "Nasi Goreng", Price: 15000, Quantity: 2},
		{ProductID: "p2", ProductName: "Mie Ayam", Price: 8000, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateWithItems: %v", err)
	}
	if created.Status != domain.StatusPending || created.TotalAmount != 38000 || len(created.Items) != 2 {
		t.Fatalf("unexpected order %+v", created)
	}

	items, err := repo.ListItems(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 || domain.ItemsTotal(items) != created.TotalAmount {
		t.Fatalf("unexpected items %+v", items)
	}

	mine, err := repo.ListByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", mine)
	}
}

func TestPostgres_CreateWithItemsRollsBack(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if _, err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	accountID := insertAccount(ctx, t, pool, "gagal@example.com")

	repo := NewPostgres(pool, nil)
	_, err := repo.CreateWithItems(ctx, sampleOrder(accountID, 15000), []domain.OrderItem{
		{ProductID: "p1", ProductName: "Nasi Goreng", Price: 15000, Quantity: 1},
		{ProductID: "p2", ProductName: "Broken", Price: 1000, Quantity: 0},
	})
	if err == nil {
		t.Fatalf("expected item constraint failure")
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no orders after rollback, got %d", len(all))
	}
}

func TestPostgres_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if _, err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	accountID := insertAccount(ctx, t, pool, "status@example.com")

	repo := NewPostgres(pool, nil)
	created, err := repo.CreateWithItems(ctx, sampleOrder(accountID, 3000), []domain.OrderItem{
		{ProductName: "Es Teh", Price: 3000, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateWithItems: %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, created.ID, nil, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("unexpected status %s", updated.Status)
	}

	from := domain.StatusPending
	if _, err := repo.UpdateStatus(ctx, created.ID, &from, domain.StatusProcessing); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "missing", nil, domain.StatusReady); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func sampleOrder(accountID string, total int64) domain.Order {
	return domain.Order{
		UserID:         accountID,
		StudentName:    "Aisyah",
		StudentDorm:    "Fatimah",
		RoomNumber:     "12",
		Phone:          "081234567890",
		DeliveryMethod: domain.DeliveryPickup,
		Status:         domain.StatusPending,
		TotalAmount:    total,
	}
}

func insertAccount(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO accounts (email, password_hash, full_name) VALUES ($1, 'x', 'Test') RETURNING id::text`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return id
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, user_roles, tokens, accounts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
