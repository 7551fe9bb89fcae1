package main

import (
	"context"
	"log"
	"time"

	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
	"github.com/P2PPERU/sportbackend2-sub001/internal/db"
	"github.com/P2PPERU/sportbackend2-sub001/internal/oddsfeed"
	"github.com/P2PPERU/sportbackend2-sub001/internal/store"
	"github.com/P2PPERU/sportbackend2-sub001/internal/syncer"
)

// One-shot sync pass against the real store, for operators and CI. Cache
// invalidation is left to the worker; a manual pass only writes the store.
func main() {
	log.Println("🚀 Starting manual feed sync...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := db.Migrate(cfg); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	feedClient := oddsfeed.NewClient(cfg)
	orchestrator := syncer.New(feedClient, store.New(pgDB), cfg.Sync.MaxAttempts)

	now := time.Now().UTC()
	window := oddsfeed.Window{
		From: now.Add(-time.Duration(cfg.Sync.WindowHours) * time.Hour),
		To:   now,
	}

	result := orchestrator.Sync(context.Background(), window)

	if result.Degraded {
		log.Fatalf("⚠️ Sync pass degraded: fixtures=%q odds=%q", result.Fixtures.Error, result.Odds.Error)
	}
	log.Printf("✅ Sync pass %s: %d fixtures and %d quotes upserted (%d skipped).",
		result.PassID, result.Fixtures.Upserted, result.Odds.Upserted,
		result.Fixtures.Skipped+result.Odds.Skipped)
}
