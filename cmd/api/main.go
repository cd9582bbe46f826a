package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"koperasi-storefront/internal/cart"
	"koperasi-storefront/internal/config"
	"koperasi-storefront/internal/db"
	"koperasi-storefront/internal/domain"
	"koperasi-storefront/internal/httpserver"
	accountrepo "koperasi-storefront/internal/repository/account"
	orderrepo "koperasi-storefront/internal/repository/order"
	productrepo "koperasi-storefront/internal/repository/product"
	rolerepo "koperasi-storefront/internal/repository/role"
	tokenrepo "koperasi-storefront/internal/repository/token"
	"koperasi-storefront/internal/service/access"
	accountsvc "koperasi-storefront/internal/service/account"
	"koperasi-storefront/internal/service/cartsession"
	catalogsvc "koperasi-storefront/internal/service/catalog"
	ordersvc "koperasi-storefront/internal/service/order"
	"koperasi-storefront/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	policy, err := domain.PolicyByName(cfg.OrderTransitions)
	if err != nil {
		logger.Fatalf("order transitions: %v", err)
	}

	var slots cart.Slots
	if cfg.RedisURL != "" {
		rdb, err := cart.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer rdb.Close()
		slots = cart.NewRedisSlots(rdb, cfg.CartTTL)
		logger.Printf("cart slots: redis ttl=%s", cfg.CartTTL)
	} else {
		slots = cart.NewMemorySlots()
		logger.Printf("cart slots: memory")
	}

	files, err := storage.NewDisk(cfg.StorageDir, strings.TrimSuffix(cfg.FileURLHost, "/")+"/files", cfg.MaxUploadBytes, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}

	accountService := accountsvc.New(
		accountrepo.NewPostgres(dbpool, logger),
		tokenrepo.NewPostgres(dbpool),
		rolerepo.NewPostgres(dbpool),
		cfg.SessionTTL,
	)
	catalogService := catalogsvc.New(productrepo.NewPostgres(dbpool, logger), files, logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), policy, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Accounts:       accountService,
		Guard:          access.New(accountService, accountService),
		Catalog:        catalogService,
		Orders:         orderService,
		Carts:          cartsession.New(slots, logger),
		Files:          files,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeSessions(purgeCtx, accountService, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s transitions=%s", cfg.HTTPAddr, cfg.OrderTransitions)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// purgeSessions removes expired session tokens once an hour.
func purgeSessions(ctx context.Context, svc *accountsvc.Service, logger *log.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				logger.Printf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Printf("purged expired sessions count=%d", n)
			}
		}
	}
}
