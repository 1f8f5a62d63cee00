package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/session"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token. On
// success the resolved user identity and the raw token (forwarded to the
// backend on outbound calls) are stored in the request locals.
func AuthRequired(verifier *session.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		tokenString := parts[1]

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		userID, err := session.UserID(claims)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token carries no user identity",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("token", tokenString)

		return c.Next()
	}
}
