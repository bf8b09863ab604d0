package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// RequireUser accepts a bearer token issued to a regular account and puts
// the caller's id in request locals.
func (m *AuthMiddleware) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Missing authorization token",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Invalid or expired token",
			})
		}

		if claims.Admin || claims.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}

// RequireAdmin accepts only tokens carrying the admin claim.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Missing authorization token",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil || !claims.Admin {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Admin access required",
			})
		}

		c.Locals("admin_email", claims.Email)
		return c.Next()
	}
}

// RequireWebhookSecret guards the engine callback route. When no secret is
// configured the check is skipped; the original behaves the same way.
func (m *AuthMiddleware) RequireWebhookSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.N8nWebhookSecret == "" {
			return c.Next()
		}

		if c.Get("X-Webhook-Secret") != m.cfg.N8nWebhookSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Invalid webhook secret",
			})
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
