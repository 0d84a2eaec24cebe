package handlers

import (
	"github.com/gofiber/fiber/v2"

	"paymordomo/apperr"
	"paymordomo/middleware"
	"paymordomo/services"
)

func SetupContributionRoutes(r fiber.Router, svc *services.ContributionService) {
	contrib := r.Group("/contributions")

	contrib.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext(), middleware.UserID(c), c.Query("type"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	// GET /contributions/calculator?income=5000&percent=10
	contrib.Get("/calculator", func(c *fiber.Ctx) error {
		income := c.QueryFloat("income", -1)
		if income < 0 {
			return apperr.Invalid(map[string]string{"income": "Informe uma renda válida"})
		}
		percent := c.QueryFloat("percent", services.DefaultTithePercent)
		if percent <= 0 || percent > 100 {
			return apperr.Invalid(map[string]string{"percent": "Percentual deve estar entre 0 e 100"})
		}
		return c.JSON(fiber.Map{
			"income":  income,
			"percent": percent,
			"tithe":   services.TitheFor(income, percent),
		})
	})

	contrib.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[services.ContributionInput](c)
		if err != nil {
			return err
		}
		item, err := svc.Create(c.UserContext(), middleware.UserID(c), *in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	})

	contrib.Get("/:id", func(c *fiber.Ctx) error {
		item, err := svc.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(item)
	})

	contrib.Put("/:id", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[services.ContributionInput](c)
		if err != nil {
			return err
		}
		item, err := svc.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), *in)
		if err != nil {
			return err
		}
		return c.JSON(item)
	})

	contrib.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
