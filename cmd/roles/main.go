package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"koperasi-storefront/internal/config"
	"koperasi-storefront/internal/db"
	accountrepo "koperasi-storefront/internal/repository/account"
	rolerepo "koperasi-storefront/internal/repository/role"
	tokenrepo "koperasi-storefront/internal/repository/token"
	accountsvc "koperasi-storefront/internal/service/account"
)

func main() {
	var (
		email  string
		grant  bool
		revoke bool
	)
	flag.StringVar(&email, "email", "", "Account email")
	flag.BoolVar(&grant, "grant", false, "Grant the admin role")
	flag.BoolVar(&revoke, "revoke", false, "Revoke the admin role")
	flag.Parse()

	if email == "" || grant == revoke {
		fmt.Fprintln(os.Stderr, "usage: roles -email <email> (-grant | -revoke)")
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[roles] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	svc := accountsvc.New(
		accountrepo.NewPostgres(pool, logger),
		tokenrepo.NewPostgres(pool),
		rolerepo.NewPostgres(pool),
		cfg.SessionTTL,
	)

	if grant {
		acc, err := svc.GrantAdmin(ctx, email)
		if err != nil {
			logger.Fatalf("grant admin email=%s: %v", email, err)
		}
		logger.Printf("granted admin id=%s email=%s", acc.ID, acc.Email)
		return
	}
	acc, err := svc.RevokeAdmin(ctx, email)
	if err != nil {
		logger.Fatalf("revoke admin email=%s: %v", email, err)
	}
	logger.Printf("revoked admin id=%s email=%s", acc.ID, acc.Email)
}
