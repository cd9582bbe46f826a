package role

import "context"

// Repository stores role assignments. Only domain.RoleAdmin is used today.
type Repository interface {
	Has(ctx context.Context, accountID, role string) (bool, error)
	Grant(ctx context.Context, accountID, role string) error
	Revoke(ctx context.Context, accountID, role string) error
}
