// Package main is the entry point for the storeroom API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storeroom/internal/domain/catalogs/masteritem"
	"storeroom/internal/domain/catalogs/store"
	"storeroom/internal/domain/catalogs/storeitem"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/requisition"
	"storeroom/internal/domain/transfer"
	v1 "storeroom/internal/infrastructure/http/v1"
	"storeroom/internal/infrastructure/numerator"
	"storeroom/internal/infrastructure/storage/postgres"
	"storeroom/internal/infrastructure/storage/postgres/catalog_repo"
	"storeroom/internal/infrastructure/storage/postgres/ledger_repo"
	"storeroom/internal/infrastructure/storage/postgres/requisition_repo"
	"storeroom/internal/infrastructure/storage/postgres/transfer_repo"
	"storeroom/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting storeroom server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	masterItemRepo := catalog_repo.NewMasterItemRepo(txManager)
	storeRepo := catalog_repo.NewStoreRepo(txManager)
	storeItemRepo := catalog_repo.NewStoreItemRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	requisitionRepo := requisition_repo.NewRequisitionRepo(txManager)
	transferRepo := transfer_repo.NewTransferRepo(txManager)

	// Numerator talks straight to the pool: sequence reservation must not
	// roll back with the business transaction.
	numeratorService := numerator.New(pool)

	// --- Services ---
	movementPublisher := postgres.NewMovementPublisher(txManager)

	masterItemService := masteritem.NewService(masterItemRepo, txManager)
	storeService := store.NewService(storeRepo, txManager)
	storeItemService := storeitem.NewService(storeItemRepo, txManager)
	ledgerService := ledger.NewService(ledgerRepo, storeItemRepo, numeratorService, txManager, movementPublisher)

	requisitionCfg := requisition.DefaultConfig()
	requisitionCfg.AllowOverReceipt = getEnv("ALLOW_OVER_RECEIPT", "true") == "true"
	requisitionService := requisition.NewService(
		requisitionRepo, storeItemService, ledgerService, numeratorService, txManager, requisitionCfg)

	transferService := transfer.NewService(
		transferRepo, storeItemService, storeItemRepo, ledgerService, numeratorService, txManager)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool,
		Logger:       log,
		MasterItems:  masterItemService,
		Stores:       storeService,
		StoreItems:   storeItemService,
		Ledger:       ledgerService,
		Requisitions: requisitionService,
		Transfers:    transferService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
