/**
 * @description
 * Shared-secret guard for operational endpoints (manual sync trigger).
 * Compares the X-Job-Secret header against the configured secret in constant
 * time. An unset secret rejects everything rather than opening the endpoint.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - standard "crypto/subtle"
 */

package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// RequireJobSecret protects a route group with a shared secret.
func RequireJobSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-Job-Secret")
		if secret == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}
