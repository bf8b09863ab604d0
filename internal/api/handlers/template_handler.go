package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/service"
)

type TemplateHandler struct {
	s service.TemplateService
}

func NewTemplateHandler(service service.TemplateService) *TemplateHandler {
	return &TemplateHandler{s: service}
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := h.s.List(c.Context(), c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"templates": templates})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	data, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/json")
	return c.Send(data)
}

func (h *TemplateHandler) DownloadTemplate(c *fiber.Ctx) error {
	id := c.Params("id")

	data, err := h.s.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/json")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".json"))
	return c.Send(data)
}
