package seed

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"koperasi-storefront/internal/domain"
	productrepo "koperasi-storefront/internal/repository/product"
	rolerepo "koperasi-storefront/internal/repository/role"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// seedNamespace derives stable product ids so reseeding updates in place.
var seedNamespace = uuid.MustParse("6f1c1f4e-4b7a-4d1e-9a55-2f0a8e7c3b10")

type productSeed struct {
	Key         string
	Name        string
	Description string
	Price       int64
	Category    domain.Category
}

var demoCatalog = []productSeed{
	{Key: "nasi-goreng", Name: "Nasi Goreng", Description: "Nasi goreng telur dengan kerupuk", Price: 15000, Category: domain.CategoryHeavyMeal},
	{Key: "mie-ayam", Name: "Mie Ayam", Description: "Mie ayam kuah dengan pangsit", Price: 13000, Category: domain.CategoryHeavyMeal},
	{Key: "nasi-kuning", Name: "Nasi Kuning", Description: "Nasi kuning lauk lengkap", Price: 12000, Category: domain.CategoryHeavyMeal},
	{Key: "roti-bakar", Name: "Roti Bakar", Description: "Roti bakar coklat keju", Price: 8000, Category: domain.CategoryLightSnack},
	{Key: "pisang-goreng", Name: "Pisang Goreng", Description: "Tiga potong pisang goreng", Price: 5000, Category: domain.CategoryLightSnack},
	{Key: "es-teh", Name: "Es Teh Manis", Price: 3000, Category: domain.CategoryBeverage},
	{Key: "es-jeruk", Name: "Es Jeruk", Price: 5000, Category: domain.CategoryBeverage},
}

// Options controls the demo admin account. An empty AdminEmail skips it.
type Options struct {
	AdminEmail    string
	AdminPassword string
}

// Apply inserts the demo catalog and, when configured, a demo admin account.
// It is idempotent.
func Apply(ctx context.Context, pool *pgxpool.Pool, opts Options, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	products := productrepo.NewPostgres(pool, logger)
	for _, p := range demoCatalog {
		_, err := products.Upsert(ctx, domain.Product{
			ID:          uuid.NewSHA1(seedNamespace, []byte(p.Key)).String(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			IsAvailable: true,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}

	if opts.AdminEmail == "" {
		return nil
	}
	if len(opts.AdminPassword) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters")
	}
	accountID, err := ensureAccount(ctx, pool, opts.AdminEmail, opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin account: %w", err)
	}
	if err := rolerepo.NewPostgres(pool).Grant(ctx, accountID, domain.RoleAdmin); err != nil {
		return fmt.Errorf("grant admin role: %w", err)
	}
	logger.Printf("seed: admin account email=%s id=%s", opts.AdminEmail, accountID)
	return nil
}

func ensureAccount(ctx context.Context, pool *pgxpool.Pool, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	const q = `
INSERT INTO accounts (email, password_hash, full_name)
VALUES ($1, $2, 'Admin Koperasi')
ON CONFLICT ((lower(email))) DO UPDATE SET password_hash = EXCLUDED.password_hash
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, strings.ToLower(email), string(hash)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
