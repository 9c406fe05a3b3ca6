package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"points-ledger/config"
	httpHandler "points-ledger/internal/adapter/http/handler"
	"points-ledger/internal/adapter/storage/memory"
	pgStorage "points-ledger/internal/adapter/storage/postgres"
	redisStorage "points-ledger/internal/adapter/storage/redis"
	"points-ledger/internal/core/ports"
	"points-ledger/internal/service"
	"points-ledger/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("backend", cfg.Storage.Backend).
		Int("port", cfg.Server.Port).
		Msg("Starting Points Ledger Service")

	ctx := context.Background()

	// Select the transaction store backend
	var (
		store          ports.TransactionStore
		healthCheckers []ports.HealthChecker
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		pgStore := pgStorage.NewLedgerStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure ledger schema")
		}
		store = pgStore
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL connected")
	default:
		store = memory.NewStore()
	}

	// Optional Redis: rate limiting plus the balances cache
	var (
		rateLimitStore *redisStorage.RateLimitStore
		balanceCache   ports.BalanceCache
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		balanceCache = redisStorage.NewBalanceCache(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	}

	// Seed the ledger from file when configured and the store is empty
	if cfg.Storage.SeedFile != "" {
		if err := seedStore(ctx, store, cfg.Storage.SeedFile, log); err != nil {
			log.Fatal().Err(err).Str("file", cfg.Storage.SeedFile).Msg("Failed to seed ledger")
		}
	}

	// Initialize the ledger service
	ledgerSvc := service.NewLedgerService(store, balanceCache, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// seedStore loads a transactions file into an empty store. A non-empty
// store is left untouched so restarts against PostgreSQL do not replay
// the seed.
func seedStore(ctx context.Context, store ports.TransactionStore, path string, log zerolog.Logger) error {
	existing, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info().Int("transactions", len(existing)).Msg("Store already populated, skipping seed")
		return nil
	}

	txns, err := memory.LoadSeedFile(path)
	if err != nil {
		return err
	}
	for _, txn := range txns {
		if err := store.Append(ctx, txn); err != nil {
			return err
		}
	}
	log.Info().Int("transactions", len(txns)).Str("file", path).Msg("Ledger seeded")
	return nil
}
