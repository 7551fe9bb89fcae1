/**
 * @description
 * Manual sync trigger.
 * Runs one sync pass over the recent window and bumps the cache generation on
 * success so reads converge immediately. Protected by the job-secret
 * middleware; intended for operators and scheduled jobs, not end users.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - internal/syncer
 * - internal/cache
 * - internal/oddsfeed
 */

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/P2PPERU/sportbackend2-sub001/internal/cache"
	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
	"github.com/P2PPERU/sportbackend2-sub001/internal/oddsfeed"
	"github.com/P2PPERU/sportbackend2-sub001/internal/syncer"
)

type SyncHandler struct {
	Orchestrator *syncer.Orchestrator
	Cache        *cache.Cache
	WindowHours  int
}

func NewSyncHandler(orchestrator *syncer.Orchestrator, c *cache.Cache, windowHours int) *SyncHandler {
	if windowHours <= 0 {
		windowHours = 24
	}
	return &SyncHandler{Orchestrator: orchestrator, Cache: c, WindowHours: windowHours}
}

// Trigger runs one sync pass
// POST /api/v1/admin/sync
func (h *SyncHandler) Trigger(c *fiber.Ctx) error {
	now := time.Now().UTC()
	window := oddsfeed.Window{
		From: now.Add(-time.Duration(h.WindowHours) * time.Hour),
		To:   now,
	}

	result := h.Orchestrator.Sync(c.Context(), window)

	if !result.Degraded {
		if _, err := h.Cache.BumpGeneration(c.Context()); err != nil {
			logger.Error("failed to bump cache generation after sync: %v", err)
		}
	}

	status := fiber.StatusOK
	if result.Degraded {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(result)
}
