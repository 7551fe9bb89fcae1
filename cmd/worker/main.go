/**
 * @description
 * Worker Service Entry Point.
 * Runs the sync orchestrator on a periodic timer, concurrently with query
 * serving: each tick reconciles the recent feed window into the canonical
 * store and bumps the cache generation so readers converge.
 *
 * @dependencies
 * - internal/config
 * - internal/db
 * - internal/oddsfeed
 * - internal/syncer
 * - internal/cache
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/P2PPERU/sportbackend2-sub001/internal/cache"
	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
	"github.com/P2PPERU/sportbackend2-sub001/internal/db"
	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
	"github.com/P2PPERU/sportbackend2-sub001/internal/oddsfeed"
	"github.com/P2PPERU/sportbackend2-sub001/internal/store"
	"github.com/P2PPERU/sportbackend2-sub001/internal/syncer"
)

func main() {
	logger.Info("🔥 Starting sync worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Migrations + DB connections
	if err := db.Migrate(cfg); err != nil {
		logger.Fatal("Failed to apply migrations: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	feedClient := oddsfeed.NewClient(cfg)
	canonical := store.New(pgDB)
	orchestrator := syncer.New(feedClient, canonical, cfg.Sync.MaxAttempts)
	responseCache := cache.New(redisClient)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Sync Loop
	go func() {
		ticker := time.NewTicker(cfg.Sync.Interval)
		defer ticker.Stop()

		runPass(ctx, cfg, orchestrator, responseCache)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runPass(ctx, cfg, orchestrator, responseCache)
			}
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(1 * time.Second) // Give the in-flight pass time to notice
	logger.Info("Worker exited.")
}

// runPass reconciles the recent window and invalidates generation-scoped
// cache entries on success. A degraded pass keeps the cache as is: stale
// served data beats partially refreshed data.
func runPass(ctx context.Context, cfg *config.Config, orchestrator *syncer.Orchestrator, responseCache *cache.Cache) {
	now := time.Now().UTC()
	window := oddsfeed.Window{
		From: now.Add(-time.Duration(cfg.Sync.WindowHours) * time.Hour),
		To:   now,
	}

	result := orchestrator.Sync(ctx, window)
	if result.Degraded {
		return
	}
	if _, err := responseCache.BumpGeneration(ctx); err != nil {
		logger.Error("Failed to bump cache generation: %v", err)
	}
}
