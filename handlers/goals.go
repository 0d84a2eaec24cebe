package handlers

import (
	"github.com/gofiber/fiber/v2"

	"paymordomo/middleware"
	"paymordomo/services"
)

func SetupGoalRoutes(r fiber.Router, svc *services.GoalService) {
	goals := r.Group("/goals")

	goals.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	goals.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[services.GoalInput](c)
		if err != nil {
			return err
		}
		g, err := svc.Create(c.UserContext(), middleware.UserID(c), *in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	})

	goals.Get("/:id", func(c *fiber.Ctx) error {
		g, err := svc.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(g)
	})

	goals.Put("/:id", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[services.GoalInput](c)
		if err != nil {
			return err
		}
		g, err := svc.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), *in)
		if err != nil {
			return err
		}
		return c.JSON(g)
	})

	goals.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
