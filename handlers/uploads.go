package handlers

import (
	"errors"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"paymordomo/apperr"
	"paymordomo/middleware"
	"paymordomo/objstore"
)

// SetupUploadRoutes serves stored receipts by key. A key is only readable by
// the user it was uploaded under (receipts/<user_id>/...).
func SetupUploadRoutes(r fiber.Router, objects objstore.Store) {
	r.Get("/uploads/*", func(c *fiber.Ctx) error {
		key := path.Clean(c.Params("*"))
		if !strings.HasPrefix(key, "receipts/"+middleware.UserID(c)+"/") {
			return apperr.NotFound("Comprovante não encontrado")
		}
		rc, contentType, err := objects.Get(c.UserContext(), key)
		if errors.Is(err, objstore.ErrNotFound) {
			return apperr.NotFound("Comprovante não encontrado")
		}
		if err != nil {
			return apperr.Store("Erro ao baixar comprovante", err)
		}
		if contentType != "" {
			c.Set(fiber.HeaderContentType, contentType)
		}
		return c.SendStream(rc)
	})
}
