package handlers

import (
	"github.com/gofiber/fiber/v2"

	"paymordomo/middleware"
	"paymordomo/workers"
)

// PermAdmin gates operator endpoints.
const PermAdmin = "admin"

func SetupAdminRoutes(r fiber.Router, resync *workers.BadgeResync) {
	admin := r.Group("/admin", middleware.RequirePermission(PermAdmin))

	// Re-runs the badge rules for every user, as the scheduled job does.
	admin.Post("/badges/resync", func(c *fiber.Ctx) error {
		failed, err := resync.RunOnce(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"failed": failed})
	})
}
