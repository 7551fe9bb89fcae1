/**
 * @description
 * Betting-market catalog handler.
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

type MarketHandler struct {
	Service *services.QueryService
}

func NewMarketHandler(service *services.QueryService) *MarketHandler {
	return &MarketHandler{Service: service}
}

// GetCatalog lists the market catalog in display order
// GET /api/v1/markets?category=goals&popular=true
func (h *MarketHandler) GetCatalog(c *fiber.Ctx) error {
	resp, err := h.Service.MarketCatalog(c.Context(),
		c.Query("category"),
		c.QueryBool("popular", false),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
