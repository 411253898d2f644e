package procurement

import (
	"ustapanel-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /api/procurement/call-list
func CallListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		groups, err := BuildCallList(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş listesi oluşturulamadı")
		}
		return c.JSON(groups)
	}
}
