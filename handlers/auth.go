package handlers

import (
	"github.com/gofiber/fiber/v2"

	"paymordomo/middleware"
	"paymordomo/session"
)

type SignupInput struct {
	Name     string `json:"name" validate:"notblank,max=120"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name string `json:"name" validate:"notblank,max=120"`
}

// SetupAuthRoutes registers the public session endpoints. Phone and password
// strength are checked by the session service so its messages reach the client.
func SetupAuthRoutes(app *fiber.App, sessions *session.Service) {
	auth := app.Group("/auth")

	auth.Post("/signup", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[SignupInput](c)
		if err != nil {
			return err
		}
		u, err := sessions.Signup(c.UserContext(), in.Name, in.Phone, in.Password)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": u})
	})

	auth.Post("/login", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[LoginInput](c)
		if err != nil {
			return err
		}
		s, err := sessions.Login(c.UserContext(), in.Phone, in.Password)
		if err != nil {
			return err
		}
		return c.JSON(s)
	})

	auth.Post("/logout", func(c *fiber.Ctx) error {
		if err := sessions.Logout(c.UserContext(), middleware.RawToken(c)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func SetupProfileRoutes(r fiber.Router, sessions *session.Service) {
	r.Get("/auth/me", func(c *fiber.Ctx) error {
		u := middleware.CurrentUser(c)
		return c.JSON(fiber.Map{"user": u, "phone": session.EmailToPhone(u.Email)})
	})

	r.Patch("/auth/me", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[ProfileInput](c)
		if err != nil {
			return err
		}
		u, err := sessions.UpdateProfile(c.UserContext(), middleware.UserID(c), in.Name)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user": u})
	})
}
