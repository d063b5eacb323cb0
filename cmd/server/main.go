// Package main is the entry point for the clinstock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinstock/internal/config"
	"clinstock/internal/domain/ledger"
	"clinstock/internal/domain/location"
	"clinstock/internal/domain/movement"
	v1 "clinstock/internal/infrastructure/http/v1"
	"clinstock/internal/infrastructure/storage/postgres"
	"clinstock/internal/infrastructure/storage/postgres/catalog_repo"
	"clinstock/internal/infrastructure/storage/postgres/ledger_repo"
	"clinstock/internal/infrastructure/storage/postgres/movement_repo"
	"clinstock/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting clinstock server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)
	txm.SetStatementTimeout(cfg.DBStatementTime)

	// --- Repositories ---
	ledgerRepo := ledger_repo.NewStockLocationRepo(txm)
	movementRepo := movement_repo.NewMovementRepo(txm)
	products := catalog_repo.NewProductCatalog(txm)

	resolver := location.NewResolver(
		catalog_repo.NewSupplierCatalog(txm),
		catalog_repo.NewUserCatalog(txm),
		catalog_repo.NewClientCatalog(txm),
	)

	// --- Domain services ---
	ledgerService := ledger.NewService(ledgerRepo)
	movementService := movement.NewService(movementRepo, ledgerService, resolver, txm)
	movementQuery := movement.NewQuery(movementRepo, resolver, products)

	// --- HTTP ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		MovementService: movementService,
		MovementQuery:   movementQuery,
		LedgerService:   ledgerService,
		Products:        products,
		Development:     cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
