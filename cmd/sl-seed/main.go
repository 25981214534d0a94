package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tuanvumaihuynh/stock-ledger/internal/apperr"
	"github.com/tuanvumaihuynh/stock-ledger/internal/config"
	"github.com/tuanvumaihuynh/stock-ledger/internal/log"
	"github.com/tuanvumaihuynh/stock-ledger/internal/repository"
	"github.com/tuanvumaihuynh/stock-ledger/internal/service"
	"github.com/tuanvumaihuynh/stock-ledger/internal/storage/db"
)

// seedProducts start with their opening stock only; no opening transactions
// are written since InitialStock is already the replay baseline.
var seedProducts = []service.CreateProductParams{
	{Name: "Laptop", Sku: "LP101", InitialStock: 20},
	{Name: "Wireless Mouse", Sku: "WM202", InitialStock: 50},
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running seed application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Ledger   config.Ledger
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)
	ledgerService := service.NewLedgerService(
		cfg.Ledger,
		dbClient,
		repository.NewProductRepository(dbClient),
		repository.NewTransactionRepository(dbClient),
		repository.NewOutboxMsgRepository(dbClient),
	)

	logger.InfoContext(ctx, "seeding products", slog.Int("count", len(seedProducts)))

	g, gCtx := errgroup.WithContext(ctx)
	for _, params := range seedProducts {
		g.Go(func() error {
			product, err := ledgerService.CreateProduct(gCtx, params)
			if errors.Is(err, apperr.DuplicateSkuErr) {
				logger.InfoContext(gCtx, "product already seeded", slog.String("sku", params.Sku))
				return nil
			}
			if err != nil {
				return fmt.Errorf("create product %s: %w", params.Sku, err)
			}

			logger.InfoContext(gCtx, "product seeded",
				slog.String("product_id", product.ID.String()),
				slog.String("sku", product.Sku),
				slog.Int("stock", product.Stock),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("error seeding products: %w", err)
	}

	logger.InfoContext(ctx, "seeding completed successfully")

	return nil
}
