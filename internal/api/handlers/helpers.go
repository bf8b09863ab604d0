package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/quantivue/backend/internal/apperr"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.Status(err)).JSON(fiber.Map{
		"detail": apperr.Message(err),
	})
}
