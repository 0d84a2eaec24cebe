package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"paymordomo/apperr"
	"paymordomo/middleware"
	"paymordomo/services"
)

func transactionFilter(c *fiber.Ctx) services.TransactionFilter {
	return services.TransactionFilter{Type: c.Query("type"), Category: c.Query("category")}
}

func SetupTransactionRoutes(r fiber.Router, svc *services.TransactionService) {
	tx := r.Group("/transactions")

	tx.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext(), middleware.UserID(c), transactionFilter(c))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	tx.Get("/export", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := svc.ExportCSV(c.UserContext(), middleware.UserID(c), transactionFilter(c), &buf); err != nil {
			return err
		}
		name := fmt.Sprintf("transacoes_%s.csv", svc.Now().Format("2006-01-02"))
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	})

	tx.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[services.TransactionInput](c)
		if err != nil {
			return err
		}
		t, err := svc.Create(c.UserContext(), middleware.UserID(c), *in)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	tx.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(t)
	})

	tx.Put("/:id", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[services.TransactionInput](c)
		if err != nil {
			return err
		}
		t, err := svc.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), *in)
		if err != nil {
			return err
		}
		return c.JSON(t)
	})

	tx.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	tx.Post("/:id/receipt", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return apperr.Invalid(map[string]string{"file": "Arquivo do comprovante é obrigatório"})
		}
		f, err := fh.Open()
		if err != nil {
			return apperr.Store("Erro ao ler comprovante", err)
		}
		defer f.Close()

		url, err := svc.AttachReceipt(c.UserContext(), middleware.UserID(c), c.Params("id"),
			fh.Filename, fh.Header.Get(fiber.HeaderContentType), f)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})

	tx.Get("/:id/receipt", func(c *fiber.Ctx) error {
		rc, contentType, err := svc.Receipt(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return err
		}
		if contentType != "" {
			c.Set(fiber.HeaderContentType, contentType)
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc)
	})
}
