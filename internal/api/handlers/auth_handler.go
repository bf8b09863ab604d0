package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/internal/service"
	"github.com/quantivue/backend/internal/transfer"
)

type AuthHandler struct {
	cfg config.Config
	s   service.AuthService
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{cfg: cfg, s: service}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req transfer.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	token, user, err := h.s.SignUp(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	token, user, err := h.s.SignIn(c.Context(), &req, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	state, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HTTPOnly: true,
		MaxAge:   600,
	})

	return c.Redirect(h.s.GoogleAuthURL(state), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies("oauth_state") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"detail": "Invalid oauth state",
		})
	}

	token, user, err := h.s.GoogleCallback(c.Context(), c.Query("code"))
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:   "oauth_state",
		Value:  "",
		MaxAge: -1,
	})

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req transfer.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	devCode, err := h.s.ForgotPassword(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{
		"message": "If an account exists for this email, a reset code has been sent",
	}
	if devCode != "" {
		resp["verification_code"] = devCode
	}

	return c.JSON(resp)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req transfer.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	if err := h.s.ResetPassword(c.Context(), &req); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}
