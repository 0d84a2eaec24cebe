package handlers

import (
	"github.com/gofiber/fiber/v2"

	"paymordomo/middleware"
	"paymordomo/services"
)

// stepDir parses the :dir param of the rotation endpoints.
func stepDir(c *fiber.Ctx) (int, error) {
	switch c.Params("dir") {
	case "next":
		return 1, nil
	case "prev", "previous":
		return -1, nil
	}
	return 0, fiber.NewError(fiber.StatusBadRequest, "Direção deve ser next ou prev")
}

func SetupDashboardRoutes(r fiber.Router, dash *services.DashboardService, reports *services.ReportService) {
	r.Get("/dashboard", func(c *fiber.Ctx) error {
		d, err := dash.Load(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(d)
	})

	r.Post("/dashboard/verse/:dir", func(c *fiber.Ctx) error {
		dir, err := stepDir(c)
		if err != nil {
			return err
		}
		v, err := dash.StepVerse(c.UserContext(), middleware.UserID(c), dir)
		if err != nil {
			return err
		}
		return c.JSON(v)
	})

	r.Post("/dashboard/tip/:dir", func(c *fiber.Ctx) error {
		dir, err := stepDir(c)
		if err != nil {
			return err
		}
		t, err := dash.StepTip(c.UserContext(), middleware.UserID(c), dir)
		if err != nil {
			return err
		}
		return c.JSON(t)
	})

	r.Get("/reports", func(c *fiber.Ctx) error {
		rep, err := reports.Build(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(rep)
	})

	r.Get("/tips", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"items": services.Tips})
	})
}
