package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/service"
	"github.com/quantivue/backend/internal/transfer"
)

type BillingHandler struct {
	s service.BillingService
}

func NewBillingHandler(service service.BillingService) *BillingHandler {
	return &BillingHandler{s: service}
}

func (h *BillingHandler) PaymentHistory(c *fiber.Ctx) error {
	userID := GetUserID(c)

	payments, err := h.s.PaymentHistory(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	if payments == nil {
		payments = []*models.Payment{}
	}
	return c.JSON(fiber.Map{"payments": payments})
}

func (h *BillingHandler) PaymentMethods(c *fiber.Ctx) error {
	userID := GetUserID(c)

	methods, err := h.s.PaymentMethods(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	if methods == nil {
		methods = []*models.PaymentMethod{}
	}
	return c.JSON(fiber.Map{"payment_methods": methods})
}

func (h *BillingHandler) AddPaymentMethod(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Unable to parse request body",
		})
	}

	method, err := h.s.AddPaymentMethod(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(method)
}

func (h *BillingHandler) Subscriptions(c *fiber.Ctx) error {
	userID := GetUserID(c)

	subscriptions, err := h.s.Subscriptions(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	if subscriptions == nil {
		subscriptions = []*models.Subscription{}
	}
	return c.JSON(fiber.Map{"subscriptions": subscriptions})
}
