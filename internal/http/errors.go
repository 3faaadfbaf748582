package http

import (
	"github.com/gofiber/fiber/v2"
)

const errInternalServer = "Internal server error"

// jsonError writes {"error": msg} with the given status.
func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
