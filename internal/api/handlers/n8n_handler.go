package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/service"
)

type N8nHandler struct {
	s service.N8nService
}

func NewN8nHandler(service service.N8nService) *N8nHandler {
	return &N8nHandler{s: service}
}

func (h *N8nHandler) ImportTemplate(c *fiber.Ctx) error {
	imported, err := h.s.ImportTemplate(c.Context(), c.Params("templateId"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Workflow imported successfully",
		"workflow": imported,
	})
}

func (h *N8nHandler) Test(c *fiber.Ctx) error {
	if err := h.s.Test(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": "n8n connection ok"})
}
