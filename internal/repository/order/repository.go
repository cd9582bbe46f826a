package order

import (
	"context"

	"koperasi-storefront/internal/domain"
)

type Repository interface {
	// CreateWithItems stores the order and every item atomically.
	CreateWithItems(ctx context.Context, o domain.Order, items []domain.OrderItem) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus sets the status. When from is non-nil the row is only
	// updated while it still holds that status; a miss yields domain.ErrConflict.
	UpdateStatus(ctx context.Context, id string, from *domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error)
}
