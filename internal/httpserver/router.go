package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"koperasi-storefront/internal/cart"
	"koperasi-storefront/internal/domain"
	"koperasi-storefront/internal/service/access"
	accountsvc "koperasi-storefront/internal/service/account"
	catalogsvc "koperasi-storefront/internal/service/catalog"
	ordersvc "koperasi-storefront/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type accountService interface {
	Signup(ctx context.Context, in accountsvc.SignupInput) (*domain.Account, string, error)
	Login(ctx context.Context, email, password string) (*domain.Account, string, error)
	Logout(ctx context.Context, token string) error
	IsAdmin(ctx context.Context, accountID string) (bool, error)
	SessionTTLSeconds() int
}

type guard interface {
	Require(ctx context.Context, token string, level access.Level) (*domain.Actor, error)
}

type catalogService interface {
	Menu(ctx context.Context) ([]domain.CategoryGroup, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	Save(ctx context.Context, in catalogsvc.ProductInput, image *catalogsvc.ImageUpload) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	ToggleAvailability(ctx context.Context, id string) (*domain.Product, error)
}

type orderService interface {
	Submit(ctx context.Context, actor *domain.Actor, c ordersvc.Cart, form ordersvc.CheckoutForm) (*domain.Order, error)
	ListMine(ctx context.Context, actor *domain.Actor) ([]domain.Order, error)
	Get(ctx context.Context, actor *domain.Actor, id string, isAdmin bool) (*domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

type cartSessions interface {
	Issue() string
	Open(ctx context.Context, sessionID string, actor *domain.Actor) (*cart.Store, error)
}

type fileStore interface {
	Open(ref string) (*os.File, error)
}

// Deps are the services the router dispatches to.
type Deps struct {
	Accounts       accountService
	Guard          guard
	Catalog        catalogService
	Orders         orderService
	Carts          cartSessions
	Files          fileStore
	CORSOrigins    []string
	MaxUploadBytes int64
}

func (d Deps) validate() error {
	switch {
	case d.Accounts == nil:
		return errors.New("accounts service required")
	case d.Guard == nil:
		return errors.New("guard required")
	case d.Catalog == nil:
		return errors.New("catalog service required")
	case d.Orders == nil:
		return errors.New("order service required")
	case d.Carts == nil:
		return errors.New("cart sessions required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 5 << 20
	}
	h := &handlers{deps: deps, logger: logger}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", cartSessionHeader},
			ExposeHeaders:    []string{"Location"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.MaxMultipartMemory = deps.MaxUploadBytes

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	anyone := router.Group("/", requireLevel(deps.Guard, access.Anonymous, logger))
	anyone.POST("/auth/signup", h.signup)
	anyone.POST("/auth/session", h.login)
	anyone.DELETE("/auth/session", h.logout)
	anyone.GET("/menu", h.menu)
	anyone.GET("/products/:id", h.product)
	anyone.POST("/cart/session", h.newCartSession)
	anyone.GET("/cart", h.getCart)
	anyone.DELETE("/cart", h.clearCart)
	anyone.POST("/cart/lines", h.addCartLine)
	anyone.PATCH("/cart/lines/:productId", h.changeCartLine)
	anyone.DELETE("/cart/lines/:productId", h.removeCartLine)
	if deps.Files != nil {
		router.GET("/files/*ref", h.file)
	}

	signedIn := router.Group("/", requireLevel(deps.Guard, access.Authenticated, logger))
	signedIn.GET("/auth/me", h.me)
	signedIn.POST("/checkout", h.checkout)
	signedIn.GET("/orders", h.myOrders)
	signedIn.GET("/orders/:id", h.order)

	admin := router.Group("/admin", requireLevel(deps.Guard, access.Admin, logger))
	admin.GET("/dashboard", h.dashboard)
	admin.GET("/orders", h.allOrders)
	admin.PATCH("/orders/:id/status", h.updateOrderStatus)
	admin.GET("/products", h.allProducts)
	admin.POST("/products", h.saveProduct)
	admin.PUT("/products/:id", h.saveProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.POST("/products/:id/availability", h.toggleAvailability)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}
