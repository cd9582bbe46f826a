package main

import (
	"context"
	"flag"
	"log"
	"os"

	"koperasi-storefront/internal/config"
	"koperasi-storefront/internal/db"
	"koperasi-storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()

	var opts seed.Options
	flag.StringVar(&opts.AdminEmail, "admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "Email of the demo admin account (empty skips it)")
	flag.StringVar(&opts.AdminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Password of the demo admin account")
	flag.Parse()

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, opts, logger); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
