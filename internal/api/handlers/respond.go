/**
 * @description
 * Shared error mapping for API handlers: typed error kinds become HTTP
 * statuses, so clients can tell degraded upstreams from hard failures.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - internal/apperrors
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/P2PPERU/sportbackend2-sub001/internal/apperrors"
	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
)

func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)

	status := fiber.StatusInternalServerError
	switch kind {
	case apperrors.KindNotFound:
		status = fiber.StatusNotFound
	case apperrors.KindUpstreamUnavailable, apperrors.KindUpstreamRateLimited:
		status = fiber.StatusServiceUnavailable
	case apperrors.KindInvalidDate:
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": kind.String(),
	})
}
