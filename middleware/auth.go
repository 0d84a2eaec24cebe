package middleware

import (
	"context"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/models"
	"paymordomo/session"
)

const tokenLocal = "token"

// Restorer resolves a verified token to its user.
type Restorer interface {
	Restore(ctx context.Context, token string) (*models.User, error)
}

// Protected verifies the HS256 bearer token. Browsers' EventSource cannot
// set headers, so ?token= is accepted too.
func Protected(secret []byte, onError fiber.ErrorHandler) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: secret},
		ContextKey:   tokenLocal,
		TokenLookup:  "header:Authorization,query:token",
		AuthScheme:   "Bearer",
		ErrorHandler: onError,
	})
}

// UserContext loads the session user for a verified token and attaches it
// to both fiber locals and the request context.
func UserContext(sessions Restorer, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := c.Locals(tokenLocal).(*jwt.Token)
		if !ok || tok == nil {
			return apperr.Unauthorized("Usuário não autenticado")
		}
		u, err := sessions.Restore(c.UserContext(), tok.Raw)
		if err != nil {
			log.Debug("session restore failed", zap.String("path", c.Path()), zap.Error(err))
			return err
		}

		c.Locals("user_id", u.ID)
		c.Locals("user", u)
		c.SetUserContext(session.WithUser(c.UserContext(), u))
		return c.Next()
	}
}

// RawToken returns the bearer token of the request, if any.
func RawToken(c *fiber.Ctx) string {
	if tok, ok := c.Locals(tokenLocal).(*jwt.Token); ok && tok != nil {
		return tok.Raw
	}
	h := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return c.Query("token")
}

// UserID is the authenticated user's id, "" on public routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// RequirePermission lets the request through only when the session user
// holds perm. It must run after UserContext.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !session.HasPermission(CurrentUser(c), perm) {
			return apperr.Forbidden("Acesso restrito")
		}
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("user").(*models.User)
	return u
}
