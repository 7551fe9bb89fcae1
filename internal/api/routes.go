/**
 * @description
 * API Route definitions.
 * Sets up the router groups, wires services to their dependencies and
 * assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - internal/api/handlers
 * - internal/api/middleware
 * - internal/services
 * - internal/syncer
 */

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/P2PPERU/sportbackend2-sub001/internal/api/handlers"
	"github.com/P2PPERU/sportbackend2-sub001/internal/api/middleware"
	"github.com/P2PPERU/sportbackend2-sub001/internal/cache"
	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
	"github.com/P2PPERU/sportbackend2-sub001/internal/oddsfeed"
	"github.com/P2PPERU/sportbackend2-sub001/internal/services"
	"github.com/P2PPERU/sportbackend2-sub001/internal/store"
	"github.com/P2PPERU/sportbackend2-sub001/internal/syncer"
	"github.com/P2PPERU/sportbackend2-sub001/internal/tz"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Services
	canonical := store.New(db)
	responseCache := cache.New(rdb)
	zones := tz.NewResolver(cfg.Query.DefaultTimezone)
	queryService := services.NewQueryService(canonical, responseCache, zones)

	feedClient := oddsfeed.NewClient(cfg)
	orchestrator := syncer.New(feedClient, canonical, cfg.Sync.MaxAttempts)

	// 2. Initialize Handlers
	fixtureHandler := handlers.NewFixtureHandler(queryService)
	oddsHandler := handlers.NewOddsHandler(queryService)
	marketHandler := handlers.NewMarketHandler(queryService)
	syncHandler := handlers.NewSyncHandler(orchestrator, responseCache, cfg.Sync.WindowHours)

	// 3. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
			dbStatus = "unreachable"
		}
		redisStatus := "ok"
		if err := rdb.Ping(c.Context()).Err(); err != nil {
			redisStatus = "unreachable"
		}

		status := fiber.StatusOK
		overall := "ok"
		if dbStatus != "ok" || redisStatus != "ok" {
			status = fiber.StatusServiceUnavailable
			overall = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	})

	v1.Get("/fixtures", fixtureHandler.GetByDay)

	fixtures := v1.Group("/fixtures")
	fixtures.Get("/live", fixtureHandler.GetLive)
	fixtures.Get("/search", fixtureHandler.Search)
	fixtures.Get("/:id/odds", oddsHandler.GetForFixture)
	fixtures.Get("/:id/odds/best", oddsHandler.GetBestForFixture)

	v1.Get("/odds/stats", oddsHandler.GetStats)
	v1.Get("/markets", marketHandler.GetCatalog)

	// Operational Routes (Protected)
	admin := v1.Group("/admin", middleware.RequireJobSecret(cfg.Sync.JobSecret))
	admin.Post("/sync", syncHandler.Trigger)
}
