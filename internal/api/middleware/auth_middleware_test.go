package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg config.Config) *fiber.App {
	m := NewAuthMiddleware(cfg)
	app := fiber.New()

	app.Get("/user", m.RequireUser(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	app.Get("/admin", m.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/hook", m.RequireWebhookSecret(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app
}

func TestRequireUser(t *testing.T) {
	cfg := config.Config{SecretKey: "secret"}
	app := newTestApp(cfg)

	token, err := utils.GenerateToken(cfg.SecretKey, "42", "ada@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", fiber.StatusUnauthorized},
		{"malformed header", token, fiber.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireUserRejectsAdminToken(t *testing.T) {
	cfg := config.Config{SecretKey: "secret"}
	app := newTestApp(cfg)

	adminToken, err := utils.GenerateAdminToken(cfg.SecretKey, "admin@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/user", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	cfg := config.Config{SecretKey: "secret"}
	app := newTestApp(cfg)

	userToken, err := utils.GenerateToken(cfg.SecretKey, "42", "ada@example.com", time.Hour)
	require.NoError(t, err)
	adminToken, err := utils.GenerateAdminToken(cfg.SecretKey, "admin@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "user tokens cannot reach admin routes")

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireWebhookSecret(t *testing.T) {
	t.Run("unconfigured secret skips the check", func(t *testing.T) {
		app := newTestApp(config.Config{SecretKey: "secret"})

		resp, err := app.Test(httptest.NewRequest("POST", "/hook", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("configured secret is enforced", func(t *testing.T) {
		app := newTestApp(config.Config{SecretKey: "secret", N8nWebhookSecret: "hook-secret"})

		resp, err := app.Test(httptest.NewRequest("POST", "/hook", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		req := httptest.NewRequest("POST", "/hook", nil)
		req.Header.Set("X-Webhook-Secret", "hook-secret")
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
