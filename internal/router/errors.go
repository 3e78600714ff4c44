package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// JSONErrorHandler renders every fiber error as {"error": message}. Internal
// failures keep a generic message so store and broker details never reach
// clients.
func JSONErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
