/**
 * @description
 * Main entry point for the sports odds API.
 * Initializes the Fiber web server, loads configuration, applies schema
 * migrations, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - internal/config: Config loader
 * - internal/db: Database connections and migrations
 *
 * @notes
 * - Connects to Postgres and Redis on startup.
 * - Sets up basic middleware (CORS, Logger, Recover).
 */

package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/P2PPERU/sportbackend2-sub001/internal/api"
	"github.com/P2PPERU/sportbackend2-sub001/internal/config"
	"github.com/P2PPERU/sportbackend2-sub001/internal/db"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Apply schema migrations before accepting traffic
	if err := db.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// 3. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 4. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Sports Odds Backend",
		StrictRouting: true,
		CaseSensitive: true,
	})

	// 5. Global Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(logger.New())  // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Job-Secret",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// 6. Routes
	api.SetupRoutes(app, pgDB, redisClient, cfg)

	// 7. Start Server
	log.Printf("🚀 Starting sports odds backend on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
