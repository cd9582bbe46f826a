package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"koperasi-storefront/internal/config"
	"koperasi-storefront/internal/db"
	"koperasi-storefront/internal/importer"
	"koperasi-storefront/internal/repository/product"
	"koperasi-storefront/internal/storage"
)

func main() {
	var (
		filePath  string
		imagesDir string
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV (id,name,description,price,category,available,image)")
	flag.StringVar(&imagesDir, "images", "", "Directory holding files named in the image column (defaults to the CSV's directory)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if imagesDir == "" {
		imagesDir = filepath.Dir(filePath)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	store, err := storage.NewDisk(cfg.StorageDir, cfg.FileURLHost+"/files", cfg.MaxUploadBytes, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), store, os.DirFS(imagesDir))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", count, err)
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
