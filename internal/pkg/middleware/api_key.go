package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lexpraxis/LexPraxis/internal/pkg/env"
	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

const adminAPIKeySecret = "admin_api_key"

// APIKeyAuthMiddleware authenticates operator requests against the admin API
// key held in the vault itself. The ADMIN_API_KEY environment variable is the
// bootstrap fallback before the store is seeded.
func APIKeyAuthMiddleware(v *vault.Vault) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		expected, ok := v.GetSecret(adminAPIKeySecret)
		if !ok || strings.TrimSpace(expected) == "" {
			expected = env.GetEnv("ADMIN_API_KEY", "")
		}
		if strings.TrimSpace(expected) == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "not_configured", "message": "Admin API key is not configured"})
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}

		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
