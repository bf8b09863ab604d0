package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/service"
	"github.com/quantivue/backend/internal/transfer"
)

type ContactHandler struct {
	s service.ContactService
}

func NewContactHandler(service service.ContactService) *ContactHandler {
	return &ContactHandler{s: service}
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req transfer.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	if err := h.s.Submit(c.Context(), &req); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Thanks for reaching out. We will get back to you soon.",
	})
}

func (h *ContactHandler) Info(c *fiber.Ctx) error {
	return c.JSON(h.s.Info())
}
