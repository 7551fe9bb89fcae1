/**
 * @description
 * Odds API Handlers.
 * Per-fixture aggregated odds, best-price snapshots and quote stats.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/P2PPERU/sportbackend2-sub001/internal/services"
)

type OddsHandler struct {
	Service *services.QueryService
}

func NewOddsHandler(service *services.QueryService) *OddsHandler {
	return &OddsHandler{Service: service}
}

// GetForFixture returns per-market aggregated odds for one fixture
// GET /api/v1/fixtures/:id/odds?bookmaker=BookmakerA
func (h *OddsHandler) GetForFixture(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid fixture id"})
	}

	resp, err := h.Service.OddsForFixture(c.Context(), uint(id),
		c.Query("bookmaker"),
		c.Query("timezone"),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetBestForFixture returns the best price per outcome across bookmakers
// GET /api/v1/fixtures/:id/odds/best
func (h *OddsHandler) GetBestForFixture(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid fixture id"})
	}

	resp, err := h.Service.BestOddsForFixture(c.Context(), uint(id), c.Query("timezone"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetStats returns current-quote counts per bookmaker and per market
// GET /api/v1/odds/stats
func (h *OddsHandler) GetStats(c *fiber.Ctx) error {
	resp, err := h.Service.Stats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
