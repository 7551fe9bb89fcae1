/**
 * @description
 * Fixture API Handlers.
 * Exposes fixtures-by-day, live fixtures and fixture search. The timezone
 * parameter is an IANA zone name; omitted or unknown zones resolve to the
 * configured default and the response says so.
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

type FixtureHandler struct {
	Service *services.QueryService
}

func NewFixtureHandler(service *services.QueryService) *FixtureHandler {
	return &FixtureHandler{Service: service}
}

// GetByDay returns the fixtures of one local calendar day
// GET /api/v1/fixtures?date=2024-03-09&timezone=Europe/Madrid&league=L1&limit=50
func (h *FixtureHandler) GetByDay(c *fiber.Ctx) error {
	resp, err := h.Service.FixturesByDay(c.Context(),
		c.Query("date"),
		c.Query("timezone"),
		c.Query("league"),
		c.QueryInt("limit", 0),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetLive returns fixtures currently in play
// GET /api/v1/fixtures/live
func (h *FixtureHandler) GetLive(c *fiber.Ctx) error {
	resp, err := h.Service.LiveFixtures(c.Context(),
		c.Query("timezone"),
		c.Query("league"),
		c.QueryInt("limit", 0),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Search filters fixtures by league, status, team name and date range
// GET /api/v1/fixtures/search?team=Alianza&status=FINISHED&from=2024-03-01&to=2024-03-09
func (h *FixtureHandler) Search(c *fiber.Ctx) error {
	resp, err := h.Service.SearchFixtures(c.Context(), services.SearchParams{
		Timezone: c.Query("timezone"),
		League:   c.Query("league"),
		Status:   c.Query("status"),
		Team:     c.Query("team"),
		DateFrom: c.Query("from"),
		DateTo:   c.Query("to"),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
