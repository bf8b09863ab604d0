package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/service"
	"github.com/quantivue/backend/internal/transfer"
)

type AdminHandler struct {
	auth  service.AuthService
	admin service.AdminService
}

func NewAdminHandler(auth service.AuthService, admin service.AdminService) *AdminHandler {
	return &AdminHandler{auth: auth, admin: admin}
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	token, err := h.auth.AdminSignIn(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"token": token})
}

func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.admin.Metrics(c.Context()))
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.admin.ListUsers(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	if users == nil {
		users = []*models.User{}
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AdminHandler) ListWorkflows(c *fiber.Ctx) error {
	workflows, err := h.admin.ListWorkflows(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	if workflows == nil {
		workflows = []*models.Workflow{}
	}
	return c.JSON(fiber.Map{"workflows": workflows})
}
