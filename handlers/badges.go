package handlers

import (
	"github.com/gofiber/fiber/v2"

	"paymordomo/middleware"
	"paymordomo/services"
)

func SetupBadgeRoutes(r fiber.Router, svc *services.BadgeService) {
	badges := r.Group("/badges")

	badges.Get("/", func(c *fiber.Ctx) error {
		o, err := svc.Overview(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(o)
	})

	// Runs the rules now; the session user comes from the request context.
	badges.Post("/sync", func(c *fiber.Ctx) error {
		res, err := svc.Sync(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	badges.Get("/stream", svc.StreamSSE)
}
